package value

import "testing"

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null(), false},
		{Undefined(), false},
		{Bool(false), false},
		{Int(0), false},
		{Int(1), true},
		{String(""), false},
		{String("x"), true},
		{List(nil), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestLooseEquals(t *testing.T) {
	if !LooseEquals(Null(), Undefined()) {
		t.Error("null == undefined should be true")
	}
	if !LooseEquals(Int(1), String("1")) {
		t.Error(`1 == "1" should be true`)
	}
	if LooseEquals(Int(0), Null()) {
		t.Error("0 == null should be false")
	}
	if !LooseEquals(Bool(true), Int(1)) {
		t.Error("true == 1 should be true")
	}
}

func TestStrictEquals(t *testing.T) {
	if StrictEquals(Int(1), String("1")) {
		t.Error(`1 === "1" should be false`)
	}
	if !StrictEquals(Int(1), Int(1)) {
		t.Error("1 === 1 should be true")
	}
}

func TestCompareStrings(t *testing.T) {
	less, equal, ok := Compare(String("a"), String("b"))
	if !ok || !less || equal {
		t.Errorf("Compare(a,b) = %v %v %v", less, equal, ok)
	}
}

func TestToJSStringDuration(t *testing.T) {
	if got := Duration(1500).ToJSString(); got != "1500" {
		t.Fatalf("ToJSString(Duration(1500)) = %q, want %q", got, "1500")
	}
}

func TestTypeOf(t *testing.T) {
	if Undefined().TypeOf() != "undefined" {
		t.Error("typeof undefined")
	}
	if Null().TypeOf() != "object" {
		t.Error("typeof null should be object")
	}
	if Int(1).TypeOf() != "number" {
		t.Error("typeof number")
	}
}
