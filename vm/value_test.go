package vm

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Tagged value basics
// ---------------------------------------------------------------------------

func TestValueIntegerRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64}
	for _, n := range cases {
		v := FromInteger(n)
		if !v.IsInteger() {
			t.Errorf("FromInteger(%d): IsInteger is false", n)
		}
		if v.Integer() != n {
			t.Errorf("Integer: got %d, want %d", v.Integer(), n)
		}
	}
}

func TestValueFloatRoundTrip(t *testing.T) {
	cases := []float64{0, 1.5, -2.25, math.Inf(1), math.Inf(-1)}
	for _, f := range cases {
		v := FromFloat(f)
		if !v.IsFloat() {
			t.Errorf("FromFloat(%v): IsFloat is false", f)
		}
		if v.Float64() != f {
			t.Errorf("Float64: got %v, want %v", v.Float64(), f)
		}
	}
}

func TestValueNaNIsAFloatValue(t *testing.T) {
	// NaN is a perfectly valid value; it is only rejected as a key.
	v := FromFloat(math.NaN())
	if !v.IsFloat() {
		t.Fatal("NaN should be a float value")
	}
	if !math.IsNaN(v.Float64()) {
		t.Error("Float64 should preserve NaN")
	}
}

func TestValueBooleans(t *testing.T) {
	if !True.IsBoolean() || !False.IsBoolean() {
		t.Fatal("True/False should be booleans")
	}
	if !True.Bool() {
		t.Error("True.Bool: got false")
	}
	if False.Bool() {
		t.Error("False.Bool: got true")
	}
	if FromBool(true) != True || FromBool(false) != False {
		t.Error("FromBool should return the predefined values")
	}
}

func TestValueNil(t *testing.T) {
	if !Nil.IsNil() {
		t.Fatal("Nil.IsNil: got false")
	}
	var zero Value
	if zero != Nil {
		t.Error("zero Value should equal Nil")
	}
}

func TestValueReferences(t *testing.T) {
	rt := NewRuntime(Options{})
	tbl := rt.NewTable()
	fn := NewFunction("f", nil)
	ud := NewUserData("payload")
	th := NewThread()

	if FromTable(tbl).Table() != tbl {
		t.Error("Table: wrong object")
	}
	if FromFunction(fn).Function() != fn {
		t.Error("Function: wrong object")
	}
	if FromUserData(ud).UserData() != ud {
		t.Error("UserData: wrong object")
	}
	if FromThread(th).Thread() != th {
		t.Error("Thread: wrong object")
	}
	if !FromTable(tbl).isReference() || FromInteger(1).isReference() {
		t.Error("isReference misclassifies")
	}
}

func TestValueAccessorPanicsOnWrongType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Integer on a float should panic")
		}
	}()
	FromFloat(1.5).Integer()
}

func TestValueTruthiness(t *testing.T) {
	// Only nil and false are falsy.
	falsy := []Value{Nil, False}
	for _, v := range falsy {
		if v.IsTruthy() || !v.IsFalsy() {
			t.Errorf("%v should be falsy", v)
		}
	}
	truthy := []Value{True, FromInteger(0), FromFloat(0), FromLightUserData("x")}
	for _, v := range truthy {
		if !v.IsTruthy() || v.IsFalsy() {
			t.Errorf("%v should be truthy", v)
		}
	}
}

func TestValueDeadKeyMarking(t *testing.T) {
	v := FromTable(NewRuntime(Options{}).NewTable())
	v.markDead()
	if !v.isDead() {
		t.Fatal("markDead should tombstone the value")
	}
	if v.ref != nil {
		t.Error("markDead should drop the reference payload")
	}
	if v.IsTable() || v.IsNil() {
		t.Error("a dead key is neither a table nor nil")
	}
}
