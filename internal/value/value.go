// Package value implements the dynamic value domain that the expression
// evaluator manipulates (spec.md §3): a tagged union covering the JS-like
// primitives plus the domain-specific Date, Duration, Regex, Link, and
// File kinds.
package value

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind discriminates the tagged union.
type Kind int

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindDuration
	KindList
	KindObject
	KindRegex
	KindLink
	KindFile
	KindFunction
)

// Regexer is satisfied by the regex value's host matcher, kept as an
// interface here so that internal/value does not depend on the regex
// engine package (internal/exprlang owns that dependency).
type Regexer interface {
	MatchString(s string) bool
	String() string
}

// Func is the signature every Value of kind Function carries. receiver is
// the call's `this` (undefined Value if there was none); args have
// already been evaluated left-to-right by the caller.
type Func func(receiver Value, args []Value) (Value, error)

// Dynamic is implemented by objects whose members are computed rather
// than stored in a plain map: the per-file File object (spec.md §4.4),
// the lazy formula proxy (§4.4's memoizing state machine), and the path
// wrapper returned by the file() global. Get resolves a property; Call
// resolves and invokes a method in one step without allocating an
// intermediate Function Value. Both return an error so that a cycle or an inner evaluation
// failure (the formula proxy evaluates arbitrary expression source on
// first access) can bubble out of a plain member read, not just a call.
type Dynamic interface {
	Get(name string) (Value, bool, error)
	Call(name string, args []Value) (Value, bool, error)
}

// Value is an immutable dynamic value. Only the fields matching Kind are
// meaningful; callers must dispatch on Kind before reading one.
type Value struct {
	Kind Kind

	Bool     bool
	Int      int64
	Float    float64
	Str      string
	DateMs   int64 // instant, ms since Unix epoch UTC
	DurMs    int64
	List     []Value
	Object   map[string]Value
	Dyn      Dynamic // non-nil for computed Object/File values
	Regex    Regexer
	Link     *Link
	Function Func
}

// Link is the value shape returned by link()/file()/asLink().
type Link struct {
	Path    string
	Display string
	HasDisp bool
	IsEmbed bool
}

func Null() Value      { return Value{Kind: KindNull} }
func Undefined() Value { return Value{Kind: KindUndefined} }
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}
func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Date(ms int64) Value   { return Value{Kind: KindDate, DateMs: ms} }
func Duration(ms int64) Value {
	return Value{Kind: KindDuration, DurMs: ms}
}
func List(items []Value) Value {
	return Value{Kind: KindList, List: items}
}
func Object(m map[string]Value) Value {
	return Value{Kind: KindObject, Object: m}
}
func RegexValue(r Regexer) Value {
	return Value{Kind: KindRegex, Regex: r}
}
func LinkValue(l *Link) Value { return Value{Kind: KindLink, Link: l} }

// FileValue wraps a Dynamic as a Kind-File value (spec.md §3's File
// descriptor / §4.4's file object).
func FileValue(f Dynamic) Value {
	return Value{Kind: KindFile, Dyn: f}
}

// DynamicObject wraps a Dynamic as a Kind-Object value, used for the
// formula proxy (§4.4 step 6).
func DynamicObject(d Dynamic) Value {
	return Value{Kind: KindObject, Dyn: d}
}

func Function(f Func) Value {
	return Value{Kind: KindFunction, Function: f}
}

// GetMemberErr resolves a property access (spec.md §4.3 Member),
// surfacing any error a Dynamic's computed getter raises (the formula
// proxy's cycle detection and inner-expression evaluation failures in
// particular). It does not auto-box primitives or dispatch built-in
// methods on List/String — that is internal/exprlang's job, since it
// needs access to the regex engine and the builtin namespaces.
// GetMemberErr only covers the generic shapes: Dynamic objects/files,
// plain Object maps, and Link's synthetic path/display/isEmbed fields.
func (v Value) GetMemberErr(name string) (Value, bool, error) {
	switch v.Kind {
	case KindObject, KindFile:
		if v.Dyn != nil {
			return v.Dyn.Get(name)
		}
		val, ok := v.Object[name]
		return val, ok, nil
	case KindLink:
		switch name {
		case "path":
			return String(v.Link.Path), true, nil
		case "display":
			if v.Link.HasDisp {
				return String(v.Link.Display), true, nil
			}
			return Undefined(), true, nil
		case "isEmbed":
			return Bool(v.Link.IsEmbed), true, nil
		}
	}
	return Undefined(), false, nil
}

// GetMember is the error-swallowing convenience form of GetMemberErr,
// used by callers that only need an existence/value check (the formatter,
// the global-function path normalizer) and cannot usefully propagate a
// nested evaluation failure.
func (v Value) GetMember(name string) (Value, bool) {
	val, ok, _ := v.GetMemberErr(name)
	return val, ok
}

// Has implements the generic object-like membership test behind the
// `in` operator (spec.md §4.3): true if key names a property on an
// Object/File value, an index within a List, or a field of a Link.
func (v Value) Has(key string) bool {
	switch v.Kind {
	case KindObject, KindFile:
		if v.Dyn != nil {
			_, ok, _ := v.Dyn.Get(key)
			return ok
		}
		_, ok := v.Object[key]
		return ok
	case KindList:
		idx, ok := indexOf(key)
		return ok && idx >= 0 && idx < len(v.List)
	case KindLink:
		switch key {
		case "path", "display", "isEmbed":
			return true
		}
	}
	return false
}

func indexOf(key string) (int, bool) {
	n := 0
	if key == "" {
		return 0, false
	}
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (v Value) IsNullish() bool {
	return v.Kind == KindNull || v.Kind == KindUndefined
}

func (v Value) IsNumber() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// Num returns v's numeric value regardless of whether it's Int or Float.
func (v Value) Num() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	}
	return math.NaN()
}

// Truthy implements JS Boolean(v) coercion.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull, KindUndefined:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// ToNumber implements JS Number(v) coercion for the subset of kinds the
// evaluator needs it for (spec.md §4.3 unary +/- and binary arithmetic).
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case KindDate:
		return float64(v.DateMs)
	case KindDuration:
		return float64(v.DurMs)
	case KindNull:
		return 0
	case KindString:
		return parseNumericString(v.Str)
	default:
		return math.NaN()
	}
}

func parseNumericString(s string) float64 {
	trimmed := trimSpace(s)
	if trimmed == "" {
		return 0
	}
	var f float64
	n, err := fmt.Sscanf(trimmed, "%g", &f)
	if err != nil || n != 1 {
		return math.NaN()
	}
	return f
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ToJSString implements JS String(v) / template coercion used by binary
// `+` concatenation.
func (v Value) ToJSString() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return formatFloat(v.Float)
	case KindDate:
		return time.UnixMilli(v.DateMs).UTC().Format("2006-01-02T15:04:05.000Z")
	case KindDuration:
		return fmt.Sprintf("%d", v.DurMs)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.ToJSString()
		}
		return joinComma(parts)
	default:
		return fmt.Sprintf("%v", v.Kind)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

// TypeOf implements the `typeof` unary operator.
func (v Value) TypeOf() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindInt, KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindNull, KindDate, KindDuration, KindList, KindObject, KindRegex, KindLink, KindFile:
		return "object"
	default:
		return "undefined"
	}
}

// LooseEquals implements JS `==`.
func LooseEquals(a, b Value) bool {
	if a.Kind == b.Kind || (a.IsNumber() && b.IsNumber()) {
		return StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.IsNumber() && b.Kind == KindString {
		return a.Num() == b.ToNumber()
	}
	if a.Kind == KindString && b.IsNumber() {
		return a.ToNumber() == b.Num()
	}
	if a.Kind == KindBool {
		return LooseEquals(Float(a.ToNumber()), b)
	}
	if b.Kind == KindBool {
		return LooseEquals(a, Float(b.ToNumber()))
	}
	if a.IsNumber() && b.Kind == KindDate {
		return a.Num() == float64(b.DateMs)
	}
	if a.Kind == KindDate && b.IsNumber() {
		return float64(a.DateMs) == b.Num()
	}
	return false
}

// StrictEquals implements JS `===`.
func StrictEquals(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Num() == b.Num()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindDate:
		return a.DateMs == b.DateMs
	case KindDuration:
		return a.DurMs == b.DurMs
	case KindList:
		return sameSlice(a.List, b.List)
	case KindObject:
		if a.Dyn != nil || b.Dyn != nil {
			return a.Dyn == b.Dyn
		}
		return sameMap(a.Object, b.Object)
	case KindFile:
		return a.Dyn == b.Dyn
	default:
		return samePointerish(a, b)
	}
}

func sameSlice(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !StrictEquals(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameMap(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bv, ok := b[k]
		if !ok || !StrictEquals(a[k], bv) {
			return false
		}
	}
	return true
}

// samePointerish covers Regex/Link/File/Function identity: these are
// reference types in JS, so strict equality is identity, not structural.
func samePointerish(a, b Value) bool {
	switch a.Kind {
	case KindRegex:
		return a.Regex == b.Regex
	case KindLink:
		return a.Link == b.Link
	case KindFunction:
		return fmt.Sprintf("%p", a.Function) == fmt.Sprintf("%p", b.Function)
	}
	return false
}

// Compare implements host-style `<`/`>`/`<=`/`>=`: string lexical order
// if both operands are strings, numeric otherwise (Date operands convert
// via their ms instant).
func Compare(a, b Value) (less, equal bool, ok bool) {
	if a.Kind == KindString && b.Kind == KindString {
		if a.Str == b.Str {
			return false, true, true
		}
		return a.Str < b.Str, false, true
	}
	an, bn := coerceCompareNumber(a), coerceCompareNumber(b)
	if math.IsNaN(an) || math.IsNaN(bn) {
		return false, false, false
	}
	if an == bn {
		return false, true, true
	}
	return an < bn, false, true
}

func coerceCompareNumber(v Value) float64 {
	if v.Kind == KindDate {
		return float64(v.DateMs)
	}
	return v.ToNumber()
}
