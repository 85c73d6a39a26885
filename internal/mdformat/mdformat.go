// Package mdformat implements the value formatter (spec.md §4.8) and
// the markdown table/document emission (spec.md §6.4).
package mdformat

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// Format renders a Value as a materialized table cell string per
// spec.md §4.8.
func Format(v value.Value) string {
	switch v.Kind {
	case value.KindNull, value.KindUndefined:
		return ""
	case value.KindString:
		return v.Str
	case value.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case value.KindFloat:
		return v.ToJSString()
	case value.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.KindDate:
		return time.UnixMilli(v.DateMs).UTC().Format("2006-01-02T15:04:05.000Z")
	case value.KindDuration:
		return v.ToJSString()
	case value.KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = Format(e)
		}
		return strings.Join(parts, ", ")
	case value.KindLink:
		if v.Link.HasDisp && v.Link.Display != "" {
			return v.Link.Display
		}
		return v.Link.Path
	case value.KindFile, value.KindObject:
		return formatObject(v)
	case value.KindFunction:
		return jsonOrFallback(v)
	default:
		return v.ToJSString()
	}
}

// formatObject applies the object-with-path special case (link-shaped
// values produced by file()/link()/asLink()), falling back to JSON.
func formatObject(v value.Value) string {
	if pathVal, ok := v.GetMember("path"); ok && pathVal.Kind == value.KindString {
		if disp, ok := v.GetMember("display"); ok && disp.Kind == value.KindString && disp.Str != "" {
			return disp.Str
		}
		return pathVal.Str
	}
	return jsonOrFallback(v)
}

func jsonOrFallback(v value.Value) string {
	goVal, ok := toJSONable(v)
	if !ok {
		return v.ToJSString()
	}
	b, err := json.Marshal(goVal)
	if err != nil {
		return v.ToJSString()
	}
	return string(b)
}

// toJSONable converts a Value into a plain Go value JSON can encode,
// returning ok=false for shapes that can't be represented (Dynamic
// objects, functions, regexes) so the caller falls back to generic
// string coercion.
func toJSONable(v value.Value) (interface{}, bool) {
	switch v.Kind {
	case value.KindNull, value.KindUndefined:
		return nil, true
	case value.KindBool:
		return v.Bool, true
	case value.KindInt:
		return v.Int, true
	case value.KindFloat:
		return v.Float, true
	case value.KindString:
		return v.Str, true
	case value.KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			gv, ok := toJSONable(e)
			if !ok {
				return nil, false
			}
			out[i] = gv
		}
		return out, true
	case value.KindObject:
		if v.Dyn != nil {
			return nil, false
		}
		out := make(map[string]interface{}, len(v.Object))
		for k, e := range v.Object {
			gv, ok := toJSONable(e)
			if !ok {
				return nil, false
			}
			out[k] = gv
		}
		return out, true
	default:
		return nil, false
	}
}

// Document renders a view's materialized matrix as spec.md §6.4's
// output: "# <viewName>\n\n<table>\n".
func Document(viewName string, rows [][]string) string {
	return "# " + viewName + "\n\n" + Table(rows)
}

// Table renders [header, ...body] rows as a markdown table. An empty
// column list emits the fixed placeholder table.
func Table(rows [][]string) string {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "|  |\n| --- |\n"
	}
	header := rows[0]
	var sb strings.Builder
	writeRow(&sb, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&sb, sep)
	for _, row := range rows[1:] {
		writeRow(&sb, row)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeCell(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return s
}
