// Package filter evaluates baseyaml.Filter trees against a per-file
// scope (spec.md §4.6).
package filter

import (
	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/exprlang"
)

// Matches evaluates f against scope, wrapping any inner failure with
// "Failed to process <context>" for error attribution. A nil filter is
// vacuously true.
func Matches(f *baseyaml.Filter, scope exprlang.Scope, context string) (bool, error) {
	ok, err := matches(f, scope, context)
	if err != nil {
		return false, errors.Wrapf(err, "Failed to process %s", context)
	}
	return ok, nil
}

func matches(f *baseyaml.Filter, scope exprlang.Scope, context string) (bool, error) {
	if f == nil {
		return true, nil
	}
	if !f.Compound {
		node, err := exprlang.Parse(f.Expr)
		if err != nil {
			return false, err
		}
		v, err := exprlang.Evaluate(node, scope)
		if err != nil {
			return false, err
		}
		return v.Truthy(), nil
	}

	for _, child := range f.And {
		ok, err := Matches(&child, scope, context+" (and)")
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if f.Or != nil {
		if len(f.Or) == 0 {
			return false, nil
		}
		any := false
		for _, child := range f.Or {
			ok, err := Matches(&child, scope, context+" (or)")
			if err != nil {
				return false, err
			}
			if ok {
				any = true
				break
			}
		}
		if !any {
			return false, nil
		}
	}

	for _, child := range f.Not {
		ok, err := Matches(&child, scope, context+" (not)")
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}

	return true, nil
}
