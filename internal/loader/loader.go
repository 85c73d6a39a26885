// Package loader implements the vault-loading contract (spec.md §6.2):
// a filesystem walk that produces vaultmodel.File descriptors, with
// frontmatter decoded via yaml.v3, tags and links extracted from
// masked note text, and a backlinks post-pass applying the spec's
// target-resolution rules.
package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// skipDir reports whether a directory name should be excluded from the
// walk: dotfiles/dotdirs (.obsidian, .git, ...) and Obsidian's trash.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == ".trash"
}

// Load walks vaultRoot and returns every note as a vaultmodel.File,
// sorted by RelativePath ascending (the deterministic file-iteration
// order decided for the otherwise-unspecified enumeration order).
func Load(vaultRoot string) ([]*vaultmodel.File, error) {
	root, err := filepath.Abs(vaultRoot)
	if err != nil {
		return nil, errors.Wrap(err, "resolving vault root")
	}

	var files []*vaultmodel.File
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && skipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		f, err := loadFile(root, path, d)
		if err != nil {
			return errors.Wrapf(err, "loading %q", path)
		}
		files = append(files, f)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	resolveBacklinks(root, files)
	return files, nil
}

func loadFile(root, path string, d fs.DirEntry) (*vaultmodel.File, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	folder := filepath.ToSlash(filepath.Dir(rel))
	ext := strings.TrimPrefix(filepath.Ext(d.Name()), ".")

	f := &vaultmodel.File{
		Path:         path,
		RelativePath: rel,
		Name:         strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
		Ext:          ext,
		Folder:       folder,
		Stat:         statOf(info),
		Frontmatter:  map[string]value.Value{},
		Properties:   map[string]value.Value{},
	}

	if ext != "md" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)

	fm, bodyStart, err := parseFrontmatter(text)
	if err != nil {
		return nil, err
	}
	f.Frontmatter = fm
	f.Properties = fm

	f.Tags = allTags(frontmatterTags(fm), bodyStart, text)

	for _, l := range parseWikilinks(text) {
		if l.IsEmbed {
			f.Embeds = append(f.Embeds, l)
		} else {
			f.Links = append(f.Links, l)
		}
	}
	f.Links = append(f.Links, parseMarkdownLinks(text)...)

	f.Tasks = parseTasks(text)

	return f, nil
}

func statOf(info os.FileInfo) vaultmodel.Stat {
	mtime := info.ModTime()
	return vaultmodel.Stat{
		Size:  info.Size(),
		Mtime: &mtime,
		Ctime: &mtime,
	}
}
