package exprlang

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/duration"
	"github.com/obsidian-tools/materialize-base/internal/value"
)

// leadingNumberPattern matches a JS parseFloat-style leading numeric
// prefix, so "12px" parses as 12 rather than failing outright.
var leadingNumberPattern = regexp.MustCompile(`^[+-]?(Infinity|\d+\.?\d*([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?)`)

// lookupGlobal resolves a bare (uncalled) reference to one of the fixed
// globals (spec.md §4.5) to its Function value, so that `typeof today`
// reports "function" and a global can be passed around before being
// invoked, same as any other identifier bound to a function.
func lookupGlobal(name string) (value.Value, bool) {
	fn, ok := lookupGlobalFunc(name)
	if !ok {
		return value.Value{}, false
	}
	return value.Function(fn), true
}

func lookupGlobalFunc(name string) (value.Func, bool) {
	switch name {
	case "today":
		return globalToday, true
	case "now":
		return globalNow, true
	case "date":
		return globalDate, true
	case "duration":
		return globalDuration, true
	case "_if":
		return globalIf, true
	case "link":
		return globalLink, true
	case "_fileFn":
		return globalFile, true
	case "list":
		return globalList, true
	case "max":
		return globalMax, true
	case "min":
		return globalMin, true
	case "number":
		return globalNumber, true
	case "image":
		return globalImage, true
	case "icon":
		return globalIcon, true
	}
	return nil, false
}

func globalToday(_ value.Value, _ []value.Value) (value.Value, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return value.Date(midnight.UnixMilli()), nil
}

func globalNow(_ value.Value, _ []value.Value) (value.Value, error) {
	return value.Date(time.Now().UnixMilli()), nil
}

// globalDate implements date(x) per spec.md §4.5: Date clones, a
// non-empty string parses through the host date parser, anything else
// (including an empty string) errors.
func globalDate(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Undefined(), errors.New("date(): missing argument")
	}
	arg := args[0]
	if arg.Kind == value.KindDate {
		return value.Date(arg.DateMs), nil
	}
	if arg.Kind == value.KindString && strings.TrimSpace(arg.Str) != "" {
		t, err := dateparse.ParseAny(arg.Str)
		if err != nil {
			return value.Undefined(), errors.Wrapf(err, "date(): cannot parse %q", arg.Str)
		}
		return value.Date(t.UnixMilli()), nil
	}
	return value.Undefined(), errors.New("date(): argument must be a Date or a non-empty string")
}

// globalDuration implements duration(s) — calls the strict §4.1 grammar
// and surfaces its error rather than swallowing it.
func globalDuration(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Undefined(), errors.New("duration(): missing argument")
	}
	s := args[0].ToJSString()
	ms, err := duration.Parse(s)
	if err != nil {
		return value.Undefined(), err
	}
	return value.Duration(ms), nil
}

// globalIf implements if(c, t, f?): arguments are already evaluated
// eagerly by evalCall, since this grammar has no deferred expressions to
// select between lazily. Returns f if given, else null, when c is falsy
// (spec.md §4.5 and §8's `if(false, t)` returns `null` law).
func globalIf(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Undefined(), errors.New("if(): requires at least 2 arguments")
	}
	if args[0].Truthy() {
		return args[1], nil
	}
	if len(args) >= 3 {
		return args[2], nil
	}
	return value.Null(), nil
}

// normalizePathArg implements the path-normalization rule shared by
// link() and file(): a string is used as-is (trimmed); an object is
// probed for path/target/url/href in that order.
func normalizePathArg(v value.Value) (string, error) {
	switch v.Kind {
	case value.KindString:
		return strings.TrimSpace(v.Str), nil
	case value.KindLink:
		return v.Link.Path, nil
	case value.KindObject, value.KindFile:
		for _, key := range []string{"path", "target", "url", "href"} {
			if m, ok := v.GetMember(key); ok && m.Kind == value.KindString && m.Str != "" {
				return m.Str, nil
			}
		}
	}
	return "", nil
}

func globalLink(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Undefined(), errors.New("link(): missing argument")
	}
	path, _ := normalizePathArg(args[0])
	if path == "" {
		return value.Undefined(), errors.New("link(): path normalizes to empty")
	}
	l := &value.Link{Path: path}
	if len(args) >= 2 && !args[1].IsNullish() {
		l.Display = args[1].ToJSString()
		l.HasDisp = true
	}
	return value.LinkValue(l), nil
}

// fileRef is the object returned by file()/_fileFn(): a bare path
// wrapper distinct from the vault-backed file object that internal/scope
// installs under the `file` key (spec.md §4.5 vs §4.4).
type fileRef struct {
	path string
}

func (f *fileRef) Get(name string) (value.Value, bool, error) {
	switch name {
	case "path":
		return value.String(f.path), true, nil
	case "isEmbed":
		return value.Bool(false), true, nil
	}
	return value.Undefined(), false, nil
}

func (f *fileRef) Call(name string, args []value.Value) (value.Value, bool, error) {
	if name != "asLink" {
		return value.Value{}, false, nil
	}
	l := &value.Link{Path: f.path}
	if len(args) >= 1 && !args[0].IsNullish() {
		l.Display = args[0].ToJSString()
		l.HasDisp = true
	}
	return value.LinkValue(l), true, nil
}

// globalFile implements file(x) — normalizes x to a path string and
// wraps it as {path, isEmbed:false, asLink(display?)}. Errors on
// empty/null (spec.md §4.5). Aliased to _fileFn by the preprocessor.
func globalFile(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].IsNullish() {
		return value.Undefined(), errors.New("file(): argument must not be null or undefined")
	}
	path, _ := normalizePathArg(args[0])
	if path == "" {
		return value.Undefined(), errors.New("file(): path normalizes to empty")
	}
	return value.FileValue(&fileRef{path: path}), nil
}

// globalList implements list(v): v itself when already an array,
// otherwise a single-element array wrapping it (spec.md §4.5).
func globalList(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.List(nil), nil
	}
	if args[0].Kind == value.KindList {
		return args[0], nil
	}
	return value.List([]value.Value{args[0]}), nil
}

func globalMax(_ value.Value, args []value.Value) (value.Value, error) {
	nums, err := requireNumbers("max", args)
	if err != nil {
		return value.Undefined(), err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n > best {
			best = n
		}
	}
	return value.Float(best), nil
}

func globalMin(_ value.Value, args []value.Value) (value.Value, error) {
	nums, err := requireNumbers("min", args)
	if err != nil {
		return value.Undefined(), err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if n < best {
			best = n
		}
	}
	return value.Float(best), nil
}

// requireNumbers implements the shared max()/min() argument contract:
// at least one argument, every argument numeric and non-NaN.
func requireNumbers(fname string, args []value.Value) ([]float64, error) {
	if len(args) == 0 {
		return nil, errors.Errorf("%s(): requires at least 1 argument", fname)
	}
	out := make([]float64, len(args))
	for i, a := range args {
		if !a.IsNumber() {
			return nil, errors.Errorf("%s(): argument %d is not a number", fname, i)
		}
		n := a.Num()
		if math.IsNaN(n) {
			return nil, errors.Errorf("%s(): argument %d is NaN", fname, i)
		}
		out[i] = n
	}
	return out, nil
}

// globalNumber implements number(x) per spec.md §4.5: passes finite
// numbers through, converts Date via its instant and bool via 0/1, and
// parses a string like JS parseFloat(trim(x)) — a leading numeric
// prefix is enough, e.g. "12px" yields 12 (error on empty or no leading
// numeric prefix at all). Errors on null/undefined.
func globalNumber(_ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Undefined(), errors.New("number(): missing argument")
	}
	v := args[0]
	switch v.Kind {
	case value.KindInt, value.KindFloat:
		return value.Float(v.Num()), nil
	case value.KindDate:
		return value.Float(float64(v.DateMs)), nil
	case value.KindBool:
		if v.Bool {
			return value.Float(1), nil
		}
		return value.Float(0), nil
	case value.KindString:
		trimmed := strings.TrimSpace(v.Str)
		if trimmed == "" {
			return value.Undefined(), errors.New("number(): empty string")
		}
		match := leadingNumberPattern.FindString(trimmed)
		if match == "" {
			return value.Undefined(), errors.Errorf("number(): cannot parse %q", v.Str)
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil || math.IsNaN(f) {
			return value.Undefined(), errors.Errorf("number(): cannot parse %q", v.Str)
		}
		return value.Float(f), nil
	}
	return value.Undefined(), errors.New("number(): argument must not be null or undefined")
}

// globalImage implements image(x): a literal Markdown image-embed string
// wrapping the normalized path, empty if normalization yields nothing
// (spec.md §4.5).
func globalImage(_ value.Value, args []value.Value) (value.Value, error) {
	path := ""
	if len(args) > 0 {
		path, _ = normalizePathArg(args[0])
	}
	return value.String("![](" + path + ")"), nil
}

// globalIcon implements icon(name): the string "icon(<name>)" built from
// the trimmed name, or "icon(unknown)" when that is empty (spec.md §4.5).
func globalIcon(_ value.Value, args []value.Value) (value.Value, error) {
	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0].ToJSString())
	}
	if name == "" {
		name = "unknown"
	}
	return value.String("icon(" + name + ")"), nil
}
