package exprlang

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// memberLookup implements property access auto-boxing (spec.md §4.4 step
// 4): String/List/Regex primitives expose a fixed set of computed
// properties (.length, .source) in addition to the methods
// builtinMethod resolves for a call. Object/File/Link go through
// value.Value.GetMemberErr first since those carry real stored or
// Dynamic members — a Dynamic getter (the formula proxy in particular)
// can itself fail, so that error is returned rather than swallowed.
func memberLookup(v value.Value, name string) (value.Value, bool, error) {
	if r, ok, err := v.GetMemberErr(name); ok || err != nil {
		return r, ok, err
	}

	switch v.Kind {
	case value.KindString:
		if name == "length" {
			return value.Float(float64(len([]rune(v.Str)))), true, nil
		}
	case value.KindList:
		if name == "length" {
			return value.Float(float64(len(v.List))), true, nil
		}
	case value.KindRegex:
		switch name {
		case "source":
			return value.String(v.Regex.String()), true, nil
		}
	}

	if fn, ok := builtinMethod(v, name); ok {
		return value.Function(fn), true, nil
	}
	return value.Value{}, false, nil
}

// builtinMethod resolves a method name against the receiver's Kind,
// covering the subset of JS's String/Array/Date/Number/RegExp prototype
// methods that make sense without function-literal arguments (the
// grammar has no arrow functions, so callback-taking methods like
// Array.prototype.map are intentionally absent — spec.md §4.2).
func builtinMethod(recv value.Value, name string) (value.Func, bool) {
	switch recv.Kind {
	case value.KindString:
		return stringMethod(name)
	case value.KindList:
		return listMethod(name)
	case value.KindDate:
		return dateMethod(name)
	case value.KindInt, value.KindFloat:
		return numberMethod(name)
	case value.KindRegex:
		return regexMethod(name)
	}
	return nil, false
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

func stringMethod(name string) (value.Func, bool) {
	switch name {
	case "toUpperCase":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(strings.ToUpper(r.Str)), nil
		}, true
	case "toLowerCase":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(strings.ToLower(r.Str)), nil
		}, true
	case "trim":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(strings.TrimSpace(r.Str)), nil
		}, true
	case "includes":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.Contains(r.Str, arg(args, 0).ToJSString())), nil
		}, true
	case "startsWith":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasPrefix(r.Str, arg(args, 0).ToJSString())), nil
		}, true
	case "endsWith":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasSuffix(r.Str, arg(args, 0).ToJSString())), nil
		}, true
	case "indexOf":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Float(float64(strings.Index(r.Str, arg(args, 0).ToJSString()))), nil
		}, true
	case "replace":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.Replace(r.Str, arg(args, 0).ToJSString(), arg(args, 1).ToJSString(), 1)), nil
		}, true
	case "replaceAll":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.ReplaceAll(r.Str, arg(args, 0).ToJSString(), arg(args, 1).ToJSString())), nil
		}, true
	case "split":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			sep := arg(args, 0)
			var parts []string
			if sep.IsNullish() {
				parts = []string{r.Str}
			} else {
				parts = strings.Split(r.Str, sep.ToJSString())
			}
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = value.String(p)
			}
			return value.List(out), nil
		}, true
	case "slice":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(r.Str)
			start, end := sliceBounds(len(runes), args)
			return value.String(string(runes[start:end])), nil
		}, true
	case "padStart":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.String(padString(r.Str, args, true)), nil
		}, true
	case "padEnd":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.String(padString(r.Str, args, false)), nil
		}, true
	case "contains":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.Contains(r.Str, arg(args, 0).ToJSString())), nil
		}, true
	case "toString":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return r, nil
		}, true
	}
	return nil, false
}

func padString(s string, args []value.Value, start bool) string {
	target := int(arg(args, 0).ToNumber())
	pad := " "
	if p := arg(args, 1); !p.IsNullish() {
		pad = p.ToJSString()
	}
	runes := []rune(s)
	if len(runes) >= target || pad == "" {
		return s
	}
	need := target - len(runes)
	var sb strings.Builder
	for sb.Len() < need {
		sb.WriteString(pad)
	}
	padStr := string([]rune(sb.String())[:need])
	if start {
		return padStr + s
	}
	return s + padStr
}

func sliceBounds(n int, args []value.Value) (int, int) {
	start := normalizeIndex(arg(args, 0), n, 0)
	end := n
	if len(args) > 1 && !args[1].IsNullish() {
		end = normalizeIndex(args[1], n, n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(v value.Value, n, def int) int {
	if v.IsNullish() {
		return def
	}
	i := int(v.ToNumber())
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func listMethod(name string) (value.Func, bool) {
	switch name {
	case "join":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			sep := ","
			if a := arg(args, 0); !a.IsNullish() {
				sep = a.ToJSString()
			}
			parts := make([]string, len(r.List))
			for i, e := range r.List {
				parts[i] = e.ToJSString()
			}
			return value.String(strings.Join(parts, sep)), nil
		}, true
	case "includes", "contains":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			target := arg(args, 0)
			for _, e := range r.List {
				if value.StrictEquals(e, target) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		}, true
	case "indexOf":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			target := arg(args, 0)
			for i, e := range r.List {
				if value.StrictEquals(e, target) {
					return value.Float(float64(i)), nil
				}
			}
			return value.Float(-1), nil
		}, true
	case "slice":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			start, end := sliceBounds(len(r.List), args)
			out := make([]value.Value, end-start)
			copy(out, r.List[start:end])
			return value.List(out), nil
		}, true
	case "concat":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			out := append([]value.Value{}, r.List...)
			for _, a := range args {
				if a.Kind == value.KindList {
					out = append(out, a.List...)
				} else {
					out = append(out, a)
				}
			}
			return value.List(out), nil
		}, true
	case "flat":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			var out []value.Value
			for _, e := range r.List {
				if e.Kind == value.KindList {
					out = append(out, e.List...)
				} else {
					out = append(out, e)
				}
			}
			return value.List(out), nil
		}, true
	case "reverse":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			out := make([]value.Value, len(r.List))
			for i, e := range r.List {
				out[len(out)-1-i] = e
			}
			return value.List(out), nil
		}, true
	case "sort":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			out := append([]value.Value{}, r.List...)
			sort.SliceStable(out, func(i, j int) bool {
				less, _, ok := value.Compare(out[i], out[j])
				return ok && less
			})
			return value.List(out), nil
		}, true
	case "toString":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(r.ToJSString()), nil
		}, true
	}
	return nil, false
}

func dateMethod(name string) (value.Func, bool) {
	get := func(r value.Value) time.Time { return time.UnixMilli(r.DateMs).UTC() }
	switch name {
	case "getFullYear":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Year())), nil
		}, true
	case "getMonth":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Month() - 1)), nil
		}, true
	case "getDate":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Day())), nil
		}, true
	case "getDay":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Weekday())), nil
		}, true
	case "getHours":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Hour())), nil
		}, true
	case "getMinutes":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Minute())), nil
		}, true
	case "getSeconds":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(get(r).Second())), nil
		}, true
	case "getTime":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(r.DateMs)), nil
		}, true
	case "toISOString":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(get(r).Format("2006-01-02T15:04:05.000Z")), nil
		}, true
	case "toString":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(r.ToJSString()), nil
		}, true
	}
	return nil, false
}

func numberMethod(name string) (value.Func, bool) {
	switch name {
	case "toFixed":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			digits := int(arg(args, 0).ToNumber())
			return value.String(strconvFormatFixed(r.ToNumber(), digits)), nil
		}, true
	case "toString":
		return func(r value.Value, _ []value.Value) (value.Value, error) {
			return value.String(r.ToJSString()), nil
		}, true
	}
	return nil, false
}

func strconvFormatFixed(f float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", digits, f)
}

func regexMethod(name string) (value.Func, bool) {
	switch name {
	case "test", "matches":
		return func(r value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(regexTest(r, arg(args, 0).ToJSString())), nil
		}, true
	}
	return nil, false
}
