package loader

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// splitFrontmatter returns the YAML block between a leading pair of `---`
// delimiter lines and the 0-based line index where the body starts.
// Adapted from extractFrontmatter's line-scanning approach, but decoding
// is handed to yaml.v3 rather than re-implemented by hand.
func splitFrontmatter(text string) (yamlSrc string, bodyStart int, found bool) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return "", 0, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), i + 1, true
		}
	}
	return "", 0, false
}

// parseFrontmatter decodes a note's frontmatter block into the Value
// domain, returning an empty map when there is none.
func parseFrontmatter(text string) (map[string]value.Value, int, error) {
	src, bodyStart, found := splitFrontmatter(text)
	if !found {
		return map[string]value.Value{}, 0, nil
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, 0, errors.Wrap(err, "invalid frontmatter")
	}
	out := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		out[k] = goToValue(v)
	}
	return out, bodyStart, nil
}

// frontmatterTags extracts the `tags` frontmatter field regardless of
// whether it was declared as a YAML list or a single scalar value.
func frontmatterTags(fm map[string]value.Value) []string {
	v, ok := fm["tags"]
	if !ok {
		return nil
	}
	switch v.Kind {
	case value.KindList:
		out := make([]string, 0, len(v.List))
		for _, e := range v.List {
			if e.Kind == value.KindString {
				out = append(out, e.Str)
			}
		}
		return out
	case value.KindString:
		if v.Str == "" {
			return nil
		}
		return []string{v.Str}
	}
	return nil
}

func goToValue(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
	case int:
		return value.Float(float64(x))
	case int64:
		return value.Float(float64(x))
	case float64:
		return value.Float(x)
	case string:
		return value.String(x)
	case []interface{}:
		out := make([]value.Value, len(x))
		for i, e := range x {
			out[i] = goToValue(e)
		}
		return value.List(out)
	case map[string]interface{}:
		out := make(map[string]value.Value, len(x))
		for k, e := range x {
			out[k] = goToValue(e)
		}
		return value.Object(out)
	default:
		return value.String(strings.TrimSpace(toStringFallback(v)))
	}
}

func toStringFallback(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
