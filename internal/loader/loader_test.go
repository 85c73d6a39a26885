package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadParsesFrontmatterTagsAndLinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".obsidian"), 0o755))

	writeFile(t, root, "notes/alpha.md", "---\ntitle: Alpha\ntags: [project]\n---\n\nSee [[notes/beta]] and #urgent.\n")
	writeFile(t, root, "notes/beta.md", "---\ntitle: Beta\n---\n\nNo links here.\n")

	files, err := Load(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "notes/alpha.md", files[0].RelativePath)
	assert.Equal(t, "notes/beta.md", files[1].RelativePath)

	alpha := files[0]
	assert.Equal(t, "Alpha", alpha.Frontmatter["title"].Str)
	assert.Contains(t, alpha.Tags, "project")
	assert.Contains(t, alpha.Tags, "urgent")
	require.Len(t, alpha.Links, 1)
	assert.Equal(t, "notes/beta", alpha.Links[0].Target)

	beta := files[1]
	assert.Contains(t, beta.Backlinks, "notes/alpha.md")
}

func TestLoadSkipsDotDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".obsidian/workspace.json", "{}")
	writeFile(t, root, ".trash/deleted.md", "---\ntitle: Gone\n---\n")
	writeFile(t, root, "kept.md", "---\ntitle: Kept\n---\n")

	files, err := Load(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "kept.md", files[0].RelativePath)
}

func TestLoadParsesInlineTasks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "todo.md", "- [ ] buy milk [due:: 2024-01-01]\n- [x] done thing\n")

	files, err := Load(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, files[0].Tasks, 2)

	first, ok := files[0].Tasks[0].GetMember("done")
	require.True(t, ok)
	assert.False(t, first.Bool)

	second, ok := files[0].Tasks[1].GetMember("done")
	require.True(t, ok)
	assert.True(t, second.Bool)
}
