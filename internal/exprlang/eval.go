package exprlang

import (
	"math"

	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/duration"
	"github.com/obsidian-tools/materialize-base/internal/value"
)

// Scope resolves bare identifiers against the per-file binding layers
// built by internal/scope (spec.md §4.4): file properties, note fields,
// formulas, globals. Evaluate falls back to the fixed global function
// table (globals.go) only after Lookup reports no binding.
type Scope interface {
	Lookup(name string) (value.Value, bool)
}

// ReferenceError and TypeError mirror the two host error classes that
// spec.md §4.3 calls out by name; callers that need to distinguish them
// from a generic evaluation failure can use errors.As.
type ReferenceError struct{ Name string }

func (e *ReferenceError) Error() string { return e.Name + " is not defined" }

type TypeError struct{ Msg string }

func (e *TypeError) Error() string { return e.Msg }

// Evaluate walks node against scope, implementing every semantic rule in
// spec.md §4.3.
func Evaluate(node Node, scope Scope) (value.Value, error) {
	switch n := node.(type) {
	case *NumberLit:
		return value.Float(n.Value), nil
	case *StringLit:
		return value.String(n.Value), nil
	case *BoolLit:
		return value.Bool(n.Value), nil
	case *NullLit:
		return value.Null(), nil
	case *UndefinedLit:
		return value.Undefined(), nil
	case *NaNLit:
		return value.Float(math.NaN()), nil
	case *InfinityLit:
		if n.Negative {
			return value.Float(math.Inf(-1)), nil
		}
		return value.Float(math.Inf(1)), nil
	case *RegexLit:
		return compileRegexLit(n.Pattern, n.Flags)
	case *Identifier:
		return evalIdentifier(n, scope)
	case *ArrayLit:
		return evalArrayLit(n, scope)
	case *MemberExpr:
		v, _, err := evalMember(n, scope)
		return v, err
	case *CallExpr:
		return evalCall(n, scope)
	case *UnaryExpr:
		return evalUnary(n, scope)
	case *BinaryExpr:
		return evalBinary(n, scope)
	case *LogicalExpr:
		return evalLogical(n, scope)
	case *ConditionalExpr:
		return evalConditional(n, scope)
	case *InExpr:
		return evalIn(n, scope)
	case *InstanceofExpr:
		return evalInstanceof(n, scope)
	}
	return value.Undefined(), errors.Errorf("unhandled node type %T", node)
}

func evalIdentifier(n *Identifier, scope Scope) (value.Value, error) {
	if v, ok := scope.Lookup(n.Name); ok {
		return v, nil
	}
	if v, ok := lookupGlobal(n.Name); ok {
		return v, nil
	}
	return value.Undefined(), &ReferenceError{Name: n.Name}
}

func evalArrayLit(n *ArrayLit, scope Scope) (value.Value, error) {
	elems := make([]value.Value, len(n.Elements))
	for i, el := range n.Elements {
		if el == nil {
			elems[i] = value.Undefined()
			continue
		}
		v, err := Evaluate(el, scope)
		if err != nil {
			return value.Undefined(), err
		}
		elems[i] = v
	}
	return value.List(elems), nil
}

// evalMember evaluates a MemberExpr and also returns the receiver, since
// evalCall needs the receiver to bind `this` for method calls without
// re-evaluating the object expression (which could have side effects via
// a formula proxy's memoization, though not observable ones here).
func evalMember(n *MemberExpr, scope Scope) (result value.Value, receiver value.Value, err error) {
	obj, err := Evaluate(n.Object, scope)
	if err != nil {
		return value.Undefined(), value.Undefined(), err
	}

	name := n.Property
	if n.Computed {
		idx, err := Evaluate(n.PropertyExpr, scope)
		if err != nil {
			return value.Undefined(), value.Undefined(), err
		}
		name = idx.ToJSString()
		if idx.IsNumber() {
			if v, ok := indexMember(obj, idx.Num()); ok {
				return v, obj, nil
			}
		}
	}

	if obj.IsNullish() {
		return value.Undefined(), obj, &TypeError{Msg: "cannot read property '" + name + "' of " + obj.ToJSString()}
	}

	v, ok, err := memberLookup(obj, name)
	if err != nil {
		return value.Undefined(), obj, err
	}
	if ok {
		return v, obj, nil
	}
	return value.Undefined(), obj, nil
}

// indexMember implements list[i] and string[i] bracket numeric indexing.
func indexMember(obj value.Value, idx float64) (value.Value, bool) {
	if idx != math.Trunc(idx) || idx < 0 {
		return value.Value{}, false
	}
	i := int(idx)
	switch obj.Kind {
	case value.KindList:
		if i < len(obj.List) {
			return obj.List[i], true
		}
		return value.Undefined(), true
	case value.KindString:
		r := []rune(obj.Str)
		if i < len(r) {
			return value.String(string(r[i])), true
		}
		return value.Undefined(), true
	}
	return value.Value{}, false
}

func evalCall(n *CallExpr, scope Scope) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Evaluate(a, scope)
		if err != nil {
			return value.Undefined(), err
		}
		args[i] = v
	}

	if member, ok := n.Callee.(*MemberExpr); ok {
		return evalMethodCall(member, args, scope)
	}

	if ident, ok := n.Callee.(*Identifier); ok {
		if v, found := scope.Lookup(ident.Name); found {
			if v.Kind != value.KindFunction {
				return value.Undefined(), &TypeError{Msg: ident.Name + " is not a function"}
			}
			return v.Function(value.Undefined(), args)
		}
		if fn, ok := lookupGlobalFunc(ident.Name); ok {
			return fn(value.Undefined(), args)
		}
		return value.Undefined(), &ReferenceError{Name: ident.Name}
	}

	calleeVal, err := Evaluate(n.Callee, scope)
	if err != nil {
		return value.Undefined(), err
	}
	if calleeVal.Kind != value.KindFunction {
		return value.Undefined(), &TypeError{Msg: "value is not a function"}
	}
	return calleeVal.Function(value.Undefined(), args)
}

func evalMethodCall(member *MemberExpr, args []value.Value, scope Scope) (value.Value, error) {
	recv, err := Evaluate(member.Object, scope)
	if err != nil {
		return value.Undefined(), err
	}

	name := member.Property
	if member.Computed {
		idx, err := Evaluate(member.PropertyExpr, scope)
		if err != nil {
			return value.Undefined(), err
		}
		name = idx.ToJSString()
	}

	if recv.IsNullish() {
		return value.Undefined(), &TypeError{Msg: "cannot read property '" + name + "' of " + recv.ToJSString()}
	}

	if recv.Kind == value.KindObject || recv.Kind == value.KindFile {
		if recv.Dyn != nil {
			if v, ok, err := recv.Dyn.Call(name, args); ok {
				return v, err
			}
		}
	}

	if fn, ok := builtinMethod(recv, name); ok {
		return fn(recv, args)
	}

	v, ok, err := memberLookup(recv, name)
	if err != nil {
		return value.Undefined(), err
	}
	if ok {
		if v.Kind == value.KindFunction {
			return v.Function(recv, args)
		}
		return value.Undefined(), &TypeError{Msg: name + " is not a function"}
	}

	return value.Undefined(), &TypeError{Msg: name + " is not a function"}
}

func evalUnary(n *UnaryExpr, scope Scope) (value.Value, error) {
	if n.Op == "typeof" {
		if ident, ok := n.Operand.(*Identifier); ok {
			if v, found := scope.Lookup(ident.Name); found {
				return value.String(v.TypeOf()), nil
			}
			if v, found := lookupGlobal(ident.Name); found {
				return value.String(v.TypeOf()), nil
			}
			return value.String("undefined"), nil
		}
	}

	operand, err := Evaluate(n.Operand, scope)
	if err != nil {
		return value.Undefined(), err
	}

	switch n.Op {
	case "!":
		return value.Bool(!operand.Truthy()), nil
	case "+":
		return value.Float(operand.ToNumber()), nil
	case "-":
		return value.Float(-operand.ToNumber()), nil
	case "~":
		return value.Float(float64(^toInt32(operand.ToNumber()))), nil
	case "typeof":
		return value.String(operand.TypeOf()), nil
	case "void":
		return value.Undefined(), nil
	}
	return value.Undefined(), errors.Errorf("unknown unary operator %q", n.Op)
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

func evalLogical(n *LogicalExpr, scope Scope) (value.Value, error) {
	left, err := Evaluate(n.Left, scope)
	if err != nil {
		return value.Undefined(), err
	}
	switch n.Op {
	case "&&":
		if !left.Truthy() {
			return left, nil
		}
		return Evaluate(n.Right, scope)
	case "||":
		if left.Truthy() {
			return left, nil
		}
		return Evaluate(n.Right, scope)
	case "??":
		if !left.IsNullish() {
			return left, nil
		}
		return Evaluate(n.Right, scope)
	}
	return value.Undefined(), errors.Errorf("unknown logical operator %q", n.Op)
}

func evalConditional(n *ConditionalExpr, scope Scope) (value.Value, error) {
	test, err := Evaluate(n.Test, scope)
	if err != nil {
		return value.Undefined(), err
	}
	if test.Truthy() {
		return Evaluate(n.Cons, scope)
	}
	return Evaluate(n.Alt, scope)
}

func evalIn(n *InExpr, scope Scope) (value.Value, error) {
	left, err := Evaluate(n.Left, scope)
	if err != nil {
		return value.Undefined(), err
	}
	right, err := Evaluate(n.Right, scope)
	if err != nil {
		return value.Undefined(), err
	}
	return value.Bool(right.Has(left.ToJSString())), nil
}

// evalInstanceof implements a host-relevant subset: Date/Array/RegExp
// constructor-name checks against the value's Kind, since the grammar has
// no class hierarchy to walk.
func evalInstanceof(n *InstanceofExpr, scope Scope) (value.Value, error) {
	left, err := Evaluate(n.Left, scope)
	if err != nil {
		return value.Undefined(), err
	}
	ctor, ok := n.Right.(*Identifier)
	if !ok {
		return value.Bool(false), nil
	}
	switch ctor.Name {
	case "Date":
		return value.Bool(left.Kind == value.KindDate), nil
	case "Array":
		return value.Bool(left.Kind == value.KindList), nil
	case "RegExp":
		return value.Bool(left.Kind == value.KindRegex), nil
	case "Object":
		return value.Bool(left.Kind == value.KindObject || left.Kind == value.KindFile), nil
	case "Function":
		return value.Bool(left.Kind == value.KindFunction), nil
	}
	return value.Bool(false), nil
}

func evalBinary(n *BinaryExpr, scope Scope) (value.Value, error) {
	left, err := Evaluate(n.Left, scope)
	if err != nil {
		return value.Undefined(), err
	}
	right, err := Evaluate(n.Right, scope)
	if err != nil {
		return value.Undefined(), err
	}

	switch n.Op {
	case "+":
		return evalAdd(left, right)
	case "-":
		return evalSub(left, right)
	case "*":
		return value.Float(left.ToNumber() * right.ToNumber()), nil
	case "/":
		return value.Float(left.ToNumber() / right.ToNumber()), nil
	case "%":
		return value.Float(math.Mod(left.ToNumber(), right.ToNumber())), nil
	case "**":
		return value.Float(math.Pow(left.ToNumber(), right.ToNumber())), nil
	case "==":
		return value.Bool(value.LooseEquals(left, right)), nil
	case "!=":
		return value.Bool(!value.LooseEquals(left, right)), nil
	case "===":
		return value.Bool(value.StrictEquals(left, right)), nil
	case "!==":
		return value.Bool(!value.StrictEquals(left, right)), nil
	case "<", ">", "<=", ">=":
		return evalCompare(n.Op, left, right), nil
	}
	return value.Undefined(), errors.Errorf("unknown binary operator %q", n.Op)
}

// evalAdd implements spec.md §4.3's Date+duration arithmetic alongside
// the ordinary string-concat-or-numeric-add rule: string if either side
// is a string, Date when the other side is a duration or a
// best-effort-parseable duration string, numeric otherwise.
func evalAdd(left, right value.Value) (value.Value, error) {
	if left.Kind == value.KindDate && right.Kind == value.KindDuration {
		return value.Date(left.DateMs + right.DurMs), nil
	}
	if left.Kind == value.KindDuration && right.Kind == value.KindDate {
		return value.Date(right.DateMs + left.DurMs), nil
	}
	if left.Kind == value.KindDate && right.Kind == value.KindString {
		if ms, ok := duration.ParseBestEffort(right.Str); ok {
			return value.Date(left.DateMs + ms), nil
		}
	}
	if left.Kind == value.KindString && right.Kind == value.KindDate {
		if ms, ok := duration.ParseBestEffort(left.Str); ok {
			return value.Date(right.DateMs + ms), nil
		}
	}
	if left.Kind == value.KindString || right.Kind == value.KindString {
		return value.String(left.ToJSString() + right.ToJSString()), nil
	}
	return value.Float(left.ToNumber() + right.ToNumber()), nil
}

// evalSub implements Date-Date -> duration(ms) and Date-duration -> Date
// alongside ordinary numeric subtraction.
func evalSub(left, right value.Value) (value.Value, error) {
	if left.Kind == value.KindDate && right.Kind == value.KindDate {
		return value.Duration(left.DateMs - right.DateMs), nil
	}
	if left.Kind == value.KindDate && right.Kind == value.KindDuration {
		return value.Date(left.DateMs - right.DurMs), nil
	}
	if left.Kind == value.KindDate && right.Kind == value.KindString {
		if ms, ok := duration.ParseBestEffort(right.Str); ok {
			return value.Date(left.DateMs - ms), nil
		}
	}
	return value.Float(left.ToNumber() - right.ToNumber()), nil
}

func evalCompare(op string, left, right value.Value) value.Value {
	less, equal, ok := value.Compare(left, right)
	if !ok {
		return value.Bool(false)
	}
	switch op {
	case "<":
		return value.Bool(less)
	case ">":
		return value.Bool(!less && !equal)
	case "<=":
		return value.Bool(less || equal)
	case ">=":
		return value.Bool(!less)
	}
	return value.Bool(false)
}
