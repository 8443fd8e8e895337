package vm

import (
	"math"
)

// Value represents a Fengari runtime value as a tagged union.
//
// Every value the language can touch — including table keys — is one of:
//   - Nil: the absent value
//   - Boolean: true / false
//   - Integer: 64-bit signed integer
//   - Float: IEEE 754 double
//   - String: a handle (interned id) into the runtime's string table
//   - LightUserData: an opaque host payload, compared by host identity
//   - Table / Function / UserData / Thread: heap objects compared by
//     object identity
//
// The numeric payload lives in n (integer bits, float bits, boolean,
// string id); reference payloads live in ref so Go's garbage collector
// can see them.
type Value struct {
	tag Type
	n   uint64
	ref any
}

// Type identifies the runtime type of a Value.
type Type uint8

const (
	TypeNil Type = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeString
	TypeLightUserData
	TypeTable
	TypeFunction
	TypeUserData
	TypeThread

	// typeDeadKey marks a tombstoned table key in place. Dead keys are
	// inert: they never escape through the public API and only exist so
	// ledger-held entries still observe a valid key.
	typeDeadKey
)

// Pre-defined values.
var (
	Nil   = Value{}
	True  = Value{tag: TypeBoolean, n: 1}
	False = Value{tag: TypeBoolean, n: 0}
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Type returns the runtime type tag of v.
func (v Value) Type() Type { return v.tag }

// IsNil returns true if v is the nil value. Nil doubles as the "absent"
// sentinel for table lookups.
func (v Value) IsNil() bool { return v.tag == TypeNil }

// IsBoolean returns true if v is true or false.
func (v Value) IsBoolean() bool { return v.tag == TypeBoolean }

// IsInteger returns true if v is an integer.
func (v Value) IsInteger() bool { return v.tag == TypeInteger }

// IsFloat returns true if v is a float.
func (v Value) IsFloat() bool { return v.tag == TypeFloat }

// IsNumber returns true if v is an integer or a float.
func (v Value) IsNumber() bool { return v.tag == TypeInteger || v.tag == TypeFloat }

// IsString returns true if v is a string handle.
func (v Value) IsString() bool { return v.tag == TypeString }

// IsLightUserData returns true if v is an opaque host payload.
func (v Value) IsLightUserData() bool { return v.tag == TypeLightUserData }

// IsTable returns true if v is a table reference.
func (v Value) IsTable() bool { return v.tag == TypeTable }

// IsFunction returns true if v is a function reference.
func (v Value) IsFunction() bool { return v.tag == TypeFunction }

// IsUserData returns true if v is a full userdata reference.
func (v Value) IsUserData() bool { return v.tag == TypeUserData }

// IsThread returns true if v is a coroutine reference.
func (v Value) IsThread() bool { return v.tag == TypeThread }

// isReference reports whether v is a heap object compared by identity.
func (v Value) isReference() bool {
	switch v.tag {
	case TypeTable, TypeFunction, TypeUserData, TypeThread:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromInteger creates an integer Value.
func FromInteger(i int64) Value {
	return Value{tag: TypeInteger, n: uint64(i)}
}

// FromFloat creates a float Value. NaN is a legal value (just not a legal
// table key).
func FromFloat(f float64) Value {
	return Value{tag: TypeFloat, n: math.Float64bits(f)}
}

// FromBool creates a boolean Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromStringID creates a string Value from an interned string id.
// Most callers go through Runtime.StringValue instead.
func FromStringID(id StringID) Value {
	return Value{tag: TypeString, n: uint64(id)}
}

// FromTable creates a Value referencing t.
func FromTable(t *Table) Value {
	return Value{tag: TypeTable, ref: t}
}

// FromFunction creates a Value referencing f.
func FromFunction(f *Function) Value {
	return Value{tag: TypeFunction, ref: f}
}

// FromUserData creates a Value referencing u.
func FromUserData(u *UserData) Value {
	return Value{tag: TypeUserData, ref: u}
}

// FromThread creates a Value referencing th.
func FromThread(th *Thread) Value {
	return Value{tag: TypeThread, ref: th}
}

// FromLightUserData creates a light userdata Value wrapping an arbitrary
// host payload. The payload is never inspected by the runtime except to
// establish key identity (see hash.go).
func FromLightUserData(payload any) Value {
	return Value{tag: TypeLightUserData, ref: payload}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Integer returns v as an int64.
// Panics if v is not an integer.
func (v Value) Integer() int64 {
	if v.tag != TypeInteger {
		panic("Value.Integer: not an integer")
	}
	return int64(v.n)
}

// Float64 returns v as a float64.
// Panics if v is not a float.
func (v Value) Float64() float64 {
	if v.tag != TypeFloat {
		panic("Value.Float64: not a float")
	}
	return math.Float64frombits(v.n)
}

// Bool returns v as a bool.
// Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.tag != TypeBoolean {
		panic("Value.Bool: not a boolean")
	}
	return v.n != 0
}

// StringID returns the interned string id encoded in v.
// Panics if v is not a string.
func (v Value) StringID() StringID {
	if v.tag != TypeString {
		panic("Value.StringID: not a string")
	}
	return StringID(v.n)
}

// Table returns the *Table referenced by v.
// Panics if v is not a table.
func (v Value) Table() *Table {
	if v.tag != TypeTable {
		panic("Value.Table: not a table")
	}
	return v.ref.(*Table)
}

// Function returns the *Function referenced by v.
// Panics if v is not a function.
func (v Value) Function() *Function {
	if v.tag != TypeFunction {
		panic("Value.Function: not a function")
	}
	return v.ref.(*Function)
}

// UserData returns the *UserData referenced by v.
// Panics if v is not a userdata.
func (v Value) UserData() *UserData {
	if v.tag != TypeUserData {
		panic("Value.UserData: not a userdata")
	}
	return v.ref.(*UserData)
}

// Thread returns the *Thread referenced by v.
// Panics if v is not a thread.
func (v Value) Thread() *Thread {
	if v.tag != TypeThread {
		panic("Value.Thread: not a thread")
	}
	return v.ref.(*Thread)
}

// LightPayload returns the host payload wrapped by a light userdata.
// Panics if v is not a light userdata.
func (v Value) LightPayload() any {
	if v.tag != TypeLightUserData {
		panic("Value.LightPayload: not a light userdata")
	}
	return v.ref
}

// ---------------------------------------------------------------------------
// Truthiness
// ---------------------------------------------------------------------------

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only nil and false are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v != Nil && v != False
}

// IsFalsy returns true if v is considered "falsy" in conditionals.
func (v Value) IsFalsy() bool {
	return v == Nil || v == False
}

// ---------------------------------------------------------------------------
// Dead keys
// ---------------------------------------------------------------------------

// markDead tombstones a key in place. The reference payload is dropped so
// the ledger does not keep the original key object reachable; the key
// remains a valid, inert Value for entries held by the dead-key ledgers.
func (v *Value) markDead() {
	v.tag = typeDeadKey
	v.ref = nil
}

// isDead reports whether v is a tombstoned key.
func (v Value) isDead() bool { return v.tag == typeDeadKey }
