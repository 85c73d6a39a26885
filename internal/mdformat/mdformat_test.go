package mdformat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

func TestFormatPrimitives(t *testing.T) {
	assert.Equal(t, "", Format(value.Null()))
	assert.Equal(t, "", Format(value.Undefined()))
	assert.Equal(t, "hello", Format(value.String("hello")))
	assert.Equal(t, "true", Format(value.Bool(true)))
	assert.Equal(t, "false", Format(value.Bool(false)))
	assert.Equal(t, "3", Format(value.Int(3)))
}

func TestFormatDateIsISO8601UTC(t *testing.T) {
	ms := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2024-01-08T00:00:00.000Z", Format(value.Date(ms)))
}

func TestFormatDurationIsMilliseconds(t *testing.T) {
	assert.Equal(t, "86400000", Format(value.Duration(86400000)))
}

func TestFormatArrayJoinsWithCommaSpace(t *testing.T) {
	v := value.List([]value.Value{value.String("a"), value.String("b"), value.Int(3)})
	assert.Equal(t, "a, b, 3", Format(v))
}

func TestFormatObjectWithPathAndDisplay(t *testing.T) {
	withDisplay := value.LinkValue(&value.Link{Path: "notes/a.md", Display: "A", HasDisp: true})
	assert.Equal(t, "A", Format(withDisplay))

	noDisplay := value.LinkValue(&value.Link{Path: "notes/a.md"})
	assert.Equal(t, "notes/a.md", Format(noDisplay))
}

func TestFormatPlainObjectFallsBackToJSON(t *testing.T) {
	v := value.Object(map[string]value.Value{"x": value.Int(1)})
	assert.Equal(t, `{"x":1}`, Format(v))
}

func TestTableEmitsPlaceholderForEmptyColumns(t *testing.T) {
	assert.Equal(t, "|  |\n| --- |\n", Table(nil))
}

func TestTableEscapesPipesAndNewlines(t *testing.T) {
	rows := [][]string{{"Name"}, {"a|b\nc"}}
	out := Table(rows)
	assert.Contains(t, out, `a\|b<br>c`)
}

func TestDocumentFormat(t *testing.T) {
	rows := [][]string{{"Name"}, {"Alpha"}}
	doc := Document("Tagged", rows)
	assert.Equal(t, "# Tagged\n\n| Name |\n| --- |\n| Alpha |\n", doc)
}
