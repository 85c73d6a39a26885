package exprlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

type mapScope map[string]value.Value

func (m mapScope) Lookup(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

func evalSrc(t *testing.T, src string, scope Scope) value.Value {
	t.Helper()
	node, err := Parse(src)
	require.NoError(t, err, "parse %q", src)
	v, err := Evaluate(node, scope)
	require.NoError(t, err, "evaluate %q", src)
	return v
}

func TestEvaluateArithmeticPrecedence(t *testing.T) {
	v := evalSrc(t, "1 + 2 * 3", mapScope{})
	assert.Equal(t, float64(7), v.Num())

	v = evalSrc(t, "(1 + 2) * 3", mapScope{})
	assert.Equal(t, float64(9), v.Num())

	v = evalSrc(t, "2 ** 3 ** 2", mapScope{})
	assert.Equal(t, float64(512), v.Num()) // right-associative: 2**(3**2)
}

func TestEvaluateStringConcatVsNumericAdd(t *testing.T) {
	v := evalSrc(t, `"a" + "b"`, mapScope{})
	assert.Equal(t, "ab", v.Str)

	v = evalSrc(t, `1 + "2"`, mapScope{})
	assert.Equal(t, "12", v.Str)
}

func TestEvaluateLogicalShortCircuit(t *testing.T) {
	v := evalSrc(t, "false && undefinedVar", mapScope{})
	assert.False(t, v.Truthy())

	v = evalSrc(t, "true || undefinedVar", mapScope{})
	assert.True(t, v.Truthy())
}

func TestEvaluateNullishCoalescing(t *testing.T) {
	v := evalSrc(t, "null ?? 5", mapScope{})
	assert.Equal(t, float64(5), v.Num())

	v = evalSrc(t, "0 ?? 5", mapScope{})
	assert.Equal(t, float64(0), v.Num())
}

func TestEvaluateConditional(t *testing.T) {
	v := evalSrc(t, `true ? "yes" : "no"`, mapScope{})
	assert.Equal(t, "yes", v.Str)
}

func TestEvaluateComparisons(t *testing.T) {
	assert.True(t, evalSrc(t, `"a" < "b"`, mapScope{}).Truthy())
	assert.True(t, evalSrc(t, "3 >= 3", mapScope{}).Truthy())
	assert.True(t, evalSrc(t, "1 == \"1\"", mapScope{}).Truthy())
	assert.False(t, evalSrc(t, "1 === \"1\"", mapScope{}).Truthy())
}

func TestEvaluateTypeofUndeclaredDoesNotThrow(t *testing.T) {
	v := evalSrc(t, "typeof neverBound", mapScope{})
	assert.Equal(t, "undefined", v.Str)
}

func TestEvaluateReferenceErrorOnUndeclared(t *testing.T) {
	node, err := Parse("neverBound")
	require.NoError(t, err)
	_, err = Evaluate(node, mapScope{})
	require.Error(t, err)
	var refErr *ReferenceError
	assert.ErrorAs(t, err, &refErr)
}

func TestEvaluateMemberAccessOnNullThrowsTypeError(t *testing.T) {
	node, err := Parse("x.y")
	require.NoError(t, err)
	_, err = Evaluate(node, mapScope{"x": value.Null()})
	require.Error(t, err)
	var typeErr *TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestEvaluateArrayLitWithHoles(t *testing.T) {
	v := evalSrc(t, "[1, , 3]", mapScope{})
	require.Equal(t, 3, len(v.List))
	assert.Equal(t, value.KindUndefined, v.List[1].Kind)
}

func TestEvaluateStringMethods(t *testing.T) {
	v := evalSrc(t, `"Hello".toUpperCase()`, mapScope{})
	assert.Equal(t, "HELLO", v.Str)

	v = evalSrc(t, `"hello world".includes("world")`, mapScope{})
	assert.True(t, v.Truthy())
}

func TestEvaluateListMethods(t *testing.T) {
	v := evalSrc(t, `[1,2,3].join("-")`, mapScope{})
	assert.Equal(t, "1-2-3", v.Str)

	v = evalSrc(t, `[1,2,3].length`, mapScope{})
	assert.Equal(t, float64(3), v.Num())
}

func TestEvaluateInOperator(t *testing.T) {
	scope := mapScope{"obj": value.Object(map[string]value.Value{"a": value.Int(1)})}
	v := evalSrc(t, `"a" in obj`, scope)
	assert.True(t, v.Truthy())
	v = evalSrc(t, `"b" in obj`, scope)
	assert.False(t, v.Truthy())
}

func TestEvaluateGlobalIfAndList(t *testing.T) {
	v := evalSrc(t, `if(true, "y", "n")`, mapScope{})
	assert.Equal(t, "y", v.Str)

	v = evalSrc(t, `if(false, "y")`, mapScope{})
	assert.Equal(t, value.KindNull, v.Kind)

	v = evalSrc(t, `list([1,2,3])`, mapScope{})
	assert.Equal(t, 3, len(v.List))

	v = evalSrc(t, `list(5)`, mapScope{})
	assert.Equal(t, 1, len(v.List))
}

func TestEvaluateDateArithmetic(t *testing.T) {
	scope := mapScope{
		"d": value.Date(1000),
		"e": value.Date(500),
	}
	v := evalSrc(t, "d - e", scope)
	assert.Equal(t, value.KindDuration, v.Kind)
	assert.Equal(t, int64(500), v.DurMs)
}

func TestEvaluateRegexLiteralAndTest(t *testing.T) {
	v := evalSrc(t, `/^foo/.test("foobar")`, mapScope{})
	assert.True(t, v.Truthy())
	v = evalSrc(t, `/^foo/.test("barfoo")`, mapScope{})
	assert.False(t, v.Truthy())
}

func TestEvaluateDurationPlusDateIsCommutative(t *testing.T) {
	scope := mapScope{
		"d": value.Date(1000),
		"dur": value.Duration(500),
	}
	forward := evalSrc(t, "d + dur", scope)
	backward := evalSrc(t, "dur + d", scope)
	assert.Equal(t, value.KindDate, forward.Kind)
	assert.Equal(t, forward.DateMs, backward.DateMs)
	assert.Equal(t, int64(1500), backward.DateMs)
}

func TestEvaluateNumberParsesLeadingNumericPrefix(t *testing.T) {
	v := evalSrc(t, `number("12px")`, mapScope{})
	assert.Equal(t, float64(12), v.Num())

	node, err := Parse(`number("abc")`)
	require.NoError(t, err)
	_, err = Evaluate(node, mapScope{})
	assert.Error(t, err)
}

func TestEvaluateRegexMatches(t *testing.T) {
	v := evalSrc(t, `/alpha/i.matches("Alpha Release")`, mapScope{})
	assert.True(t, v.Truthy())
	v = evalSrc(t, `/alpha/i.matches("beta release")`, mapScope{})
	assert.False(t, v.Truthy())
}

func TestEvaluateDivisionVsRegexDisambiguation(t *testing.T) {
	v := evalSrc(t, "10 / 2 / 5", mapScope{})
	assert.Equal(t, float64(1), v.Num())
}
