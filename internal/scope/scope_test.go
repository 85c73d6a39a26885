package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/exprlang"
	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

func sampleFile() *vaultmodel.File {
	mtime := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	return &vaultmodel.File{
		Path:         "/vault/notes/alpha.md",
		RelativePath: "notes/alpha.md",
		Name:         "alpha",
		Ext:          "md",
		Folder:       "notes",
		Stat:         vaultmodel.Stat{Size: 42, Mtime: &mtime},
		Frontmatter: map[string]value.Value{
			"title":  value.String("Alpha"),
			"status": value.String("active"),
		},
		Properties: map[string]value.Value{
			"title":  value.String("Alpha"),
			"status": value.String("active"),
		},
		Tags: []string{"project", "urgent"},
	}
}

func eval(t *testing.T, s exprlang.Scope, src string) value.Value {
	t.Helper()
	node, err := exprlang.Parse(src)
	require.NoError(t, err)
	v, err := exprlang.Evaluate(node, s)
	require.NoError(t, err)
	return v
}

func TestBuildExposesFileObjectFields(t *testing.T) {
	s := Build(sampleFile(), nil)

	assert.Equal(t, "alpha", eval(t, s, "file.name").Str)
	assert.Equal(t, "notes", eval(t, s, "file.folder").Str)
	assert.True(t, eval(t, s, `file.hasTag("urgent")`).Bool)
	assert.False(t, eval(t, s, `file.hasTag("missing")`).Bool)
	assert.True(t, eval(t, s, `file.inFolder("notes")`).Bool)
}

func TestBuildPromotesFrontmatterIdentifiers(t *testing.T) {
	s := Build(sampleFile(), nil)
	assert.Equal(t, "Alpha", eval(t, s, "title").Str)
	assert.Equal(t, "active", eval(t, s, "frontmatter.status").Str)
}

func TestBuildDoesNotPromoteReservedOrGlobalNames(t *testing.T) {
	f := sampleFile()
	f.Frontmatter["if"] = value.String("shadow")
	f.Frontmatter["link"] = value.String("shadow")
	s := Build(f, nil)

	assert.Equal(t, "undefined", eval(t, s, "typeof if").Str)
	v := eval(t, s, `link("a/b")`)
	assert.Equal(t, value.KindLink, v.Kind)
}

func TestFormulaProxyMemoizesAndDetectsCycles(t *testing.T) {
	formulas := baseyaml.Formulas{
		{Name: "double", Source: "2 * 21"},
		{Name: "a", Source: "formula.b + 1"},
		{Name: "b", Source: "formula.a + 1"},
	}
	s := Build(sampleFile(), formulas)

	v := eval(t, s, "formula.double")
	assert.Equal(t, float64(42), v.Num())
	proxy := s.bindings["formula"].Dyn.(*formulaProxy)
	assert.Equal(t, stateDone, proxy.slots["double"].state)

	node, err := exprlang.Parse("formula.a")
	require.NoError(t, err)
	_, err = exprlang.Evaluate(node, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Circular formula reference detected for "`)
}

func TestBuiltinNamespacesExposeMathAndJSON(t *testing.T) {
	s := Build(sampleFile(), nil)
	assert.Equal(t, float64(5), eval(t, s, "Math.max(1, 5, 3)").Num())
	assert.Equal(t, `"hi"`, eval(t, s, `JSON.stringify("hi")`).Str)
}
