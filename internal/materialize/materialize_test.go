package materialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

func note(rel, title, status string, tags ...string) *vaultmodel.File {
	return &vaultmodel.File{
		Path:         "/vault/" + rel,
		RelativePath: rel,
		Name:         rel,
		Ext:          "md",
		Folder:       ".",
		Frontmatter: map[string]value.Value{
			"title":  value.String(title),
			"status": value.String(status),
		},
		Properties: map[string]value.Value{
			"title":  value.String(title),
			"status": value.String(status),
		},
		Tags: tags,
	}
}

func TestMaterializeTaggedViewWithFormulaColumn(t *testing.T) {
	files := []*vaultmodel.File{
		note("a.md", "Alpha", "active", "project"),
		note("b.md", "Beta", "active"),
		note("c.md", "Gamma", "archived", "project"),
	}
	base := &baseyaml.Base{
		Formulas: baseyaml.Formulas{{Name: "shout", Source: `title + "!"`}},
		Properties: baseyaml.Properties{
			{Key: "title", Meta: baseyaml.PropertyMeta{DisplayName: "Title"}},
		},
		Views: []baseyaml.View{
			{Name: "tagged", Filters: &baseyaml.Filter{Expr: `file.hasTag("project")`}, Order: []string{"title", "formula.shout"}},
		},
	}

	res, err := Materialize(base, "tagged", files)
	require.NoError(t, err)
	assert.Equal(t, "tagged", res.ViewName)
	assert.Equal(t, [][]string{
		{"Title", "formula.shout"},
		{"Alpha", "Alpha!"},
		{"Gamma", "Gamma!"},
	}, res.Rows)
}

func TestMaterializeViewLimit(t *testing.T) {
	files := []*vaultmodel.File{
		note("a.md", "Alpha", "archived"),
		note("b.md", "Beta", "archived"),
		note("c.md", "Gamma", "archived"),
	}
	limit := 1.0
	base := &baseyaml.Base{
		Properties: baseyaml.Properties{{Key: "title"}},
		Views: []baseyaml.View{
			{Name: "archived", Filters: &baseyaml.Filter{Expr: `status == "archived"`}, Limit: &limit},
		},
	}

	res, err := Materialize(base, "archived", files)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"title"}, {"Alpha"}}, res.Rows)
}

func TestMaterializeCircularFormulaErrors(t *testing.T) {
	files := []*vaultmodel.File{note("a.md", "Alpha", "active")}
	base := &baseyaml.Base{
		Formulas: baseyaml.Formulas{
			{Name: "a", Source: "formula.b + 1"},
			{Name: "b", Source: "formula.a + 1"},
		},
		Views: []baseyaml.View{{Name: "v"}},
	}
	_, err := Materialize(base, "v", files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Circular formula reference detected for")
}

func TestMaterializeEmptyViewYieldsPlaceholder(t *testing.T) {
	base := &baseyaml.Base{Views: []baseyaml.View{{Name: "empty"}}}
	res, err := Materialize(base, "empty", nil)
	require.NoError(t, err)
	assert.Nil(t, res.Rows)
}

func TestMaterializeUnknownViewFallsBackToFirst(t *testing.T) {
	base := &baseyaml.Base{
		Properties: baseyaml.Properties{{Key: "title"}},
		Views:      []baseyaml.View{{Name: "only"}},
	}
	files := []*vaultmodel.File{note("a.md", "Alpha", "active")}
	res, err := Materialize(base, "missing", files)
	require.NoError(t, err)
	assert.Equal(t, "only", res.ViewName)
}
