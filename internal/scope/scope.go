// Package scope builds the per-file expression scope (spec.md §4.4):
// the file object, frontmatter/metadata/note/properties aliases, the
// built-in namespaces, promoted frontmatter identifiers, and the lazy
// formula proxy, assembled in the precedence order the spec lays out.
package scope

import (
	"regexp"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/exprlang"
	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// reserved holds identifiers frontmatter promotion must never shadow
// (spec.md §4.4 step 5, §9), whether because they're JS-reserved words
// or because this evaluator gives them special meaning (`if`).
var reserved = map[string]bool{
	"arguments":   true,
	"eval":        true,
	"prototype":   true,
	"constructor": true,
	"__proto__":   true,
	"super":       true,
	"globalThis":  true,
	"window":      true,
	"if":          true,
}

// globalFunctionNames mirrors exprlang's global-function table (§4.5):
// promotion must not shadow these either, so that e.g. a frontmatter
// field named `link` never hides the link() global.
var globalFunctionNames = map[string]bool{
	"today": true, "now": true, "date": true, "duration": true,
	"if": true, "link": true, "file": true, "list": true,
	"max": true, "min": true, "number": true, "image": true, "icon": true,
	"_if": true, "_fileFn": true,
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Scope implements exprlang.Scope: a flat binding map built once per
// file and consulted before the evaluator falls back to global
// functions (spec.md §4.4 step 3, §4.5).
type Scope struct {
	bindings map[string]value.Value
}

func (s *Scope) Lookup(name string) (value.Value, bool) {
	v, ok := s.bindings[name]
	return v, ok
}

// Build assembles a file's scope per spec.md §4.4's precedence ladder:
// file object, then frontmatter/metadata/note/properties aliases, then
// the built-in namespaces, then promoted frontmatter identifiers, then
// the formula proxy. Global functions are not copied into the binding
// map; exprlang.Evaluate consults them itself once scope lookup misses.
func Build(f *vaultmodel.File, formulas baseyaml.Formulas) *Scope {
	s := &Scope{bindings: make(map[string]value.Value)}

	fo := newFileObject(f)
	s.bindings["file"] = value.FileValue(fo)

	fm := plainObject(f.Frontmatter)
	s.bindings["frontmatter"] = fm
	s.bindings["note"] = fm
	s.bindings["metadata"] = value.Object(map[string]value.Value{})
	s.bindings["properties"] = plainObject(f.Properties)

	for name, ns := range builtinNamespaces() {
		s.bindings[name] = ns
	}

	for key, v := range f.Frontmatter {
		if !identifierPattern.MatchString(key) {
			continue
		}
		if reserved[key] || globalFunctionNames[key] {
			continue
		}
		if _, exists := s.bindings[key]; exists {
			continue
		}
		s.bindings[key] = v
	}

	proxy := newFormulaProxy(formulas)
	proxy.scope = s
	s.bindings["formula"] = value.DynamicObject(proxy)

	return s
}

var _ exprlang.Scope = (*Scope)(nil)
