package loader

import (
	"regexp"
	"strings"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// taskPattern matches markdown checkboxes: "- [ ] text" or "- [x] text",
// allowing leading indentation for nested tasks.
var taskPattern = regexp.MustCompile(`(?m)^[\t ]*- \[([ xX])\] (.+)$`)

// dataviewFieldPattern matches Dataview-style inline fields: [key:: value].
var dataviewFieldPattern = regexp.MustCompile(`\[(\w+)::\s*([^\]]*)\]`)

// parseTasks extracts checkbox task items from note body text, exposing
// them to expressions via the supplemented file.tasks() accessor.
// Dataview inline fields ([due:: 2024-01-01]) are captured into a
// metadata object; the remaining text (fields stripped) becomes
// cleanText.
func parseTasks(text string) []value.Value {
	masked := maskInertContent(text)
	lines := strings.Split(text, "\n")
	maskedLines := strings.Split(masked, "\n")

	var out []value.Value
	for i, line := range maskedLines {
		m := taskPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := lines[i]
		rawMatch := taskPattern.FindStringSubmatch(raw)
		taskText := rawMatch[2]

		meta := map[string]value.Value{}
		for _, fm := range dataviewFieldPattern.FindAllStringSubmatch(taskText, -1) {
			meta[fm[1]] = value.String(strings.TrimSpace(fm[2]))
		}
		clean := dataviewFieldPattern.ReplaceAllString(taskText, "")

		out = append(out, value.Object(map[string]value.Value{
			"text":      value.String(taskText),
			"cleanText": value.String(strings.TrimSpace(clean)),
			"done":      value.Bool(m[1] == "x" || m[1] == "X"),
			"line":      value.Float(float64(i + 1)),
			"meta":      value.Object(meta),
		}))
	}
	return out
}
