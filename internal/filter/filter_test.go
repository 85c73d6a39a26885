package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/value"
)

type mapScope map[string]value.Value

func (m mapScope) Lookup(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

func TestMatchesNilFilterIsVacuouslyTrue(t *testing.T) {
	ok, err := Matches(nil, mapScope{}, "ctx")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesStringFilterCoercesBoolean(t *testing.T) {
	f := &baseyaml.Filter{Expr: `status == "active"`}
	ok, err := Matches(f, mapScope{"status": value.String("active")}, "ctx")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(f, mapScope{"status": value.String("archived")}, "ctx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesCompoundAndOrNot(t *testing.T) {
	f := &baseyaml.Filter{
		Compound: true,
		And: []baseyaml.Filter{
			{Expr: "a"},
			{Compound: true, Or: []baseyaml.Filter{{Expr: "b"}, {Expr: "c"}}},
		},
		Not: []baseyaml.Filter{{Expr: "d"}},
	}
	scope := mapScope{
		"a": value.Bool(true),
		"b": value.Bool(false),
		"c": value.Bool(true),
		"d": value.Bool(false),
	}
	ok, err := Matches(f, scope, "ctx")
	require.NoError(t, err)
	assert.True(t, ok)

	scope["d"] = value.Bool(true)
	ok, err = Matches(f, scope, "ctx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesEmptyOrGroupIsFalse(t *testing.T) {
	f := &baseyaml.Filter{Compound: true, Or: []baseyaml.Filter{}}
	ok, err := Matches(f, mapScope{}, "ctx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesWrapsErrorWithContext(t *testing.T) {
	f := &baseyaml.Filter{Expr: "undeclaredName"}
	_, err := Matches(f, mapScope{}, "base filter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to process base filter")
}
