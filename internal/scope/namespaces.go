package scope

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// namespace is a plain, non-Dynamic Object value holding a fixed set of
// functions and constants — the read-only built-in namespaces spec.md
// §4.4 step 4 requires in scope (Math, JSON, Object, ...). They need no
// laziness or state, so a plain map suffices; fn wraps a Go func as a
// Value of kind Function.
func namespace(members map[string]value.Value) value.Value {
	return value.Object(members)
}

func fn(f value.Func) value.Value { return value.Function(f) }

func builtinNamespaces() map[string]value.Value {
	return map[string]value.Value{
		"Math":     mathNamespace(),
		"JSON":     jsonNamespace(),
		"Object":   objectNamespace(),
		"Array":    arrayNamespace(),
		"Number":   numberNamespace(),
		"String":   stringNamespace(),
		"Boolean":  namespace(map[string]value.Value{}),
		"Date":     dateNamespace(),
		"RegExp":   namespace(map[string]value.Value{}),
		"Map":      namespace(map[string]value.Value{}),
		"Set":      namespace(map[string]value.Value{}),
		"WeakMap":  namespace(map[string]value.Value{}),
		"WeakSet":  namespace(map[string]value.Value{}),
		"Reflect":  reflectNamespace(),
		"Symbol":   namespace(map[string]value.Value{}),
		"BigInt":   namespace(map[string]value.Value{}),
	}
}

func mathNamespace() value.Value {
	unary := func(f func(float64) float64) value.Func {
		return func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.Float(f(arg0(args))), nil
		}
	}
	return namespace(map[string]value.Value{
		"PI": value.Float(math.Pi),
		"E":  value.Float(math.E),
		"max": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			ns, err := requireNumbers("Math.max", args)
			if err != nil {
				return value.Value{}, err
			}
			return value.Float(maxOf(ns)), nil
		}),
		"min": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			ns, err := requireNumbers("Math.min", args)
			if err != nil {
				return value.Value{}, err
			}
			return value.Float(minOf(ns)), nil
		}),
		"floor": fn(unary(math.Floor)),
		"ceil":  fn(unary(math.Ceil)),
		"round": fn(unary(math.Round)),
		"trunc": fn(unary(math.Trunc)),
		"abs":   fn(unary(math.Abs)),
		"sqrt":  fn(unary(math.Sqrt)),
		"cbrt":  fn(unary(math.Cbrt)),
		"sign":  fn(unary(func(f float64) float64 { return float64(sign(f)) })),
		"log":   fn(unary(math.Log)),
		"log2":  fn(unary(math.Log2)),
		"log10": fn(unary(math.Log10)),
		"exp":   fn(unary(math.Exp)),
		"pow": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.Float(math.Pow(argN(args, 0), argN(args, 1))), nil
		}),
		"hypot": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			var sum float64
			for _, a := range args {
				sum += a.ToNumber() * a.ToNumber()
			}
			return value.Float(math.Sqrt(sum)), nil
		}),
	})
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func arg0(args []value.Value) float64 { return argN(args, 0) }

func argN(args []value.Value, i int) float64 {
	if i < len(args) {
		return args[i].ToNumber()
	}
	return math.NaN()
}

func maxOf(ns []float64) float64 {
	m := ns[0]
	for _, n := range ns[1:] {
		if n > m {
			m = n
		}
	}
	return m
}

func minOf(ns []float64) float64 {
	m := ns[0]
	for _, n := range ns[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

// requireNumbers mirrors exprlang's global max()/min() argument contract
// (spec.md §4.5): at least one argument, every argument a number and not
// NaN.
func requireNumbers(fname string, args []value.Value) ([]float64, error) {
	if len(args) == 0 {
		return nil, errors.Errorf("%s(): requires at least one argument", fname)
	}
	out := make([]float64, len(args))
	for i, a := range args {
		if !a.IsNumber() {
			return nil, errors.Errorf("%s(): argument %d is not a number", fname, i)
		}
		n := a.ToNumber()
		if math.IsNaN(n) {
			return nil, errors.Errorf("%s(): argument %d is NaN", fname, i)
		}
		out[i] = n
	}
	return out, nil
}

func jsonNamespace() value.Value {
	return namespace(map[string]value.Value{
		"stringify": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.Undefined(), nil
			}
			b, err := json.Marshal(valueToGo(args[0]))
			if err != nil {
				return value.Value{}, errors.Wrap(err, "JSON.stringify")
			}
			return value.String(string(b)), nil
		}),
		"parse": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.Value{}, errors.New("JSON.parse(): requires an argument")
			}
			var out interface{}
			if err := json.Unmarshal([]byte(args[0].ToJSString()), &out); err != nil {
				return value.Value{}, errors.Wrap(err, "JSON.parse")
			}
			return goToValue(out), nil
		}),
	})
}

func valueToGo(v value.Value) interface{} {
	switch v.Kind {
	case value.KindNull, value.KindUndefined:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindFloat:
		return v.Float
	case value.KindString:
		return v.Str
	case value.KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = valueToGo(e)
		}
		return out
	case value.KindObject:
		if v.Dyn != nil {
			return map[string]interface{}{}
		}
		out := make(map[string]interface{}, len(v.Object))
		for k, e := range v.Object {
			out[k] = valueToGo(e)
		}
		return out
	default:
		return v.ToJSString()
	}
}

func goToValue(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
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
		return value.Undefined()
	}
}

func objectNamespace() value.Value {
	return namespace(map[string]value.Value{
		"keys": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.List(stringValues(objectKeys(arg(args, 0)))), nil
		}),
		"values": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			obj := arg(args, 0)
			keys := objectKeys(obj)
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i], _ = obj.GetMember(k)
			}
			return value.List(out), nil
		}),
		"entries": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			obj := arg(args, 0)
			keys := objectKeys(obj)
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				v, _ := obj.GetMember(k)
				out[i] = value.List([]value.Value{value.String(k), v})
			}
			return value.List(out), nil
		}),
	})
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

func objectKeys(v value.Value) []string {
	if v.Kind != value.KindObject || v.Dyn != nil {
		return nil
	}
	keys := make([]string, 0, len(v.Object))
	for k := range v.Object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringValues(ss []string) []value.Value {
	out := make([]value.Value, len(ss))
	for i, s := range ss {
		out[i] = value.String(s)
	}
	return out
}

func arrayNamespace() value.Value {
	return namespace(map[string]value.Value{
		"isArray": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(arg(args, 0).Kind == value.KindList), nil
		}),
		"from": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			v := arg(args, 0)
			if v.Kind == value.KindList {
				return v, nil
			}
			if v.Kind == value.KindString {
				runes := []rune(v.Str)
				out := make([]value.Value, len(runes))
				for i, r := range runes {
					out[i] = value.String(string(r))
				}
				return value.List(out), nil
			}
			return value.List(nil), nil
		}),
	})
}

func numberNamespace() value.Value {
	return namespace(map[string]value.Value{
		"MAX_SAFE_INTEGER": value.Float(9007199254740991),
		"MIN_SAFE_INTEGER": value.Float(-9007199254740991),
		"EPSILON":          value.Float(2.220446049250313e-16),
		"POSITIVE_INFINITY": value.Float(math.Inf(1)),
		"NEGATIVE_INFINITY": value.Float(math.Inf(-1)),
		"NaN":              value.Float(math.NaN()),
		"isInteger": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			v := arg(args, 0)
			if !v.IsNumber() {
				return value.Bool(false), nil
			}
			n := v.ToNumber()
			return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)), nil
		}),
		"isFinite": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			v := arg(args, 0)
			return value.Bool(v.IsNumber() && !math.IsNaN(v.ToNumber()) && !math.IsInf(v.ToNumber(), 0)), nil
		}),
		"isNaN": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			v := arg(args, 0)
			return value.Bool(v.IsNumber() && math.IsNaN(v.ToNumber())), nil
		}),
		"parseFloat": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(arg(args, 0).ToJSString()), 64)
			if err != nil {
				return value.Float(math.NaN()), nil
			}
			return value.Float(f), nil
		}),
		"parseInt": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			s := strings.TrimSpace(arg(args, 0).ToJSString())
			radix := 10
			if r := arg(args, 1); !r.IsNullish() {
				radix = int(r.ToNumber())
			}
			n, err := strconv.ParseInt(s, radix, 64)
			if err != nil {
				return value.Float(math.NaN()), nil
			}
			return value.Float(float64(n)), nil
		}),
	})
}

func stringNamespace() value.Value {
	return namespace(map[string]value.Value{
		"fromCharCode": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			var sb strings.Builder
			for _, a := range args {
				sb.WriteRune(rune(int(a.ToNumber())))
			}
			return value.String(sb.String()), nil
		}),
	})
}

func dateNamespace() value.Value {
	return namespace(map[string]value.Value{
		"now": fn(func(_ value.Value, _ []value.Value) (value.Value, error) {
			return value.Float(float64(time.Now().UnixMilli())), nil
		}),
	})
}

func reflectNamespace() value.Value {
	return namespace(map[string]value.Value{
		"has": fn(func(_ value.Value, args []value.Value) (value.Value, error) {
			obj, key := arg(args, 0), arg(args, 1)
			return value.Bool(obj.Has(key.ToJSString())), nil
		}),
	})
}
