// Package materialize implements the core view-resolution and
// row-building pipeline (spec.md §4.7).
package materialize

import (
	"math"

	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/exprlang"
	"github.com/obsidian-tools/materialize-base/internal/filter"
	"github.com/obsidian-tools/materialize-base/internal/mdformat"
	"github.com/obsidian-tools/materialize-base/internal/scope"
	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// Result is a materialized view: the resolved view's name and the
// [header, ...rows] matrix of formatted cells.
type Result struct {
	ViewName string
	Rows     [][]string
}

// Materialize runs spec.md §4.7 against base and files, resolving
// viewName to a view (falling back to the first view, then to an
// empty result if the base has no views at all).
func Materialize(base *baseyaml.Base, viewName string, files []*vaultmodel.File) (*Result, error) {
	view, ok := resolveView(base, viewName)
	if !ok {
		return &Result{ViewName: viewName}, nil
	}

	columns := deriveColumns(base, view)
	if len(columns) == 0 {
		return &Result{ViewName: view.Name}, nil
	}

	header := make([]string, len(columns))
	for i, key := range columns {
		header[i] = displayName(base, key)
	}

	rows := [][]string{header}

	matched := make([]*vaultmodel.File, 0, len(files))
	for _, f := range files {
		sc := scope.Build(f, base.Formulas)

		ok, err := filter.Matches(base.Filters, sc, "base filter for file \""+f.RelativePath+"\"")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		ok, err = filter.Matches(view.Filters, sc, "view filter for file \""+f.RelativePath+"\"")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		matched = append(matched, f)
	}

	if view.Limit != nil {
		lim := *view.Limit
		if !math.IsInf(lim, 0) && lim > 0 {
			n := int(math.Floor(lim))
			if n < len(matched) {
				matched = matched[:n]
			}
		}
	}

	for _, f := range matched {
		sc := scope.Build(f, base.Formulas)
		row := make([]string, len(columns))
		for i, key := range columns {
			v, err := evalColumn(key, sc)
			if err != nil {
				return nil, errors.Wrapf(err, "property %q for file %q", key, f.RelativePath)
			}
			row[i] = mdformat.Format(v)
		}
		rows = append(rows, row)
	}

	return &Result{ViewName: view.Name, Rows: rows}, nil
}

func resolveView(base *baseyaml.Base, viewName string) (baseyaml.View, bool) {
	if len(base.Views) == 0 {
		return baseyaml.View{}, false
	}
	if viewName != "" {
		for _, v := range base.Views {
			if v.Name == viewName {
				return v, true
			}
		}
	}
	return base.Views[0], true
}

func deriveColumns(base *baseyaml.Base, view baseyaml.View) []string {
	if len(view.Order) > 0 {
		return view.Order
	}
	if len(base.Properties) > 0 {
		return base.Properties.Keys()
	}
	if len(base.Formulas) > 0 {
		keys := make([]string, len(base.Formulas))
		for i, f := range base.Formulas {
			keys[i] = "formula." + f.Name
		}
		return keys
	}
	return nil
}

func displayName(base *baseyaml.Base, key string) string {
	if meta, ok := base.Properties.Get(key); ok && meta.DisplayName != "" {
		return meta.DisplayName
	}
	return key
}

func evalColumn(key string, sc exprlang.Scope) (value.Value, error) {
	node, err := exprlang.Parse(key)
	if err != nil {
		return value.Value{}, err
	}
	return exprlang.Evaluate(node, sc)
}
