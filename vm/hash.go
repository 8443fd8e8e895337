package vm

import (
	"math"
	"reflect"
)

// ---------------------------------------------------------------------------
// Key normalization and canonical hashing
// ---------------------------------------------------------------------------
//
// Every table operation funnels its key through normalizeKey, which
// rejects nil and NaN, folds float keys onto integer keys where the value
// is exactly representable, and produces a hashKey: a comparable identity
// suitable as a Go map key. The kind byte keeps the identity spaces of
// ordinary keys and light-userdata payloads disjoint, so a light handle
// wrapping the number 5 never aliases the integer key 5.

type keyKind uint8

const (
	keyInteger keyKind = iota
	keyFloat
	keyBoolean
	keyString
	keyReference // heap object, identity in ref

	// Light userdata payloads, prefix-tagged by payload shape.
	keyLightInt
	keyLightUint
	keyLightFloat
	keyLightBool
	keyLightString
	keyLightRef // reference payload, identity token in n
)

// hashKey is the canonical identity of a table key.
type hashKey struct {
	kind keyKind
	n    uint64
	s    string
	ref  any
}

// isRef reports whether the key's identity is eligible for weak tracking
// in the dead-ref ledger.
func (hk hashKey) isRef() bool {
	return hk.kind == keyReference || hk.kind == keyLightRef
}

// identity returns the value the collector uses to track weak interest:
// the object pointer for reference keys, the identity token for light
// reference payloads.
func (hk hashKey) identity() any {
	if hk.kind == keyLightRef {
		return identToken(hk.n)
	}
	return hk.ref
}

// canonicalKey returns the key value in the form it is stored and later
// yielded by iteration. A float key folded onto an integer identity is
// permanently replaced by its integer form; no operation may
// re-introduce the float form for the same key identity.
func canonicalKey(hk hashKey, key Value) Value {
	if hk.kind == keyInteger && key.tag == TypeFloat {
		return FromInteger(int64(hk.n))
	}
	return key
}

// intKey builds the canonical identity of an integer key directly,
// bypassing normalization. Callers guarantee the key is pre-validated.
func intKey(i int64) hashKey {
	return hashKey{kind: keyInteger, n: uint64(i)}
}

// strKey builds the canonical identity of an interned string key.
func strKey(id StringID) hashKey {
	return hashKey{kind: keyString, n: uint64(id)}
}

// normalizeKey converts a runtime value into its canonical hashable
// identity. Fails fast, before any table mutation:
//   - nil key: InvalidKey "table index is nil"
//   - NaN key: InvalidKey "table index is NaN"
//
// A float numerically equal to an integer representable without precision
// loss is permanently canonicalized to that integer, so t[1] and t[1.0]
// address the same entry.
func (rt *Runtime) normalizeKey(key Value) hashKey {
	switch key.tag {
	case TypeNil:
		raise(ErrInvalidKey, "table index is nil")
	case TypeFloat:
		f := key.Float64()
		if math.IsNaN(f) {
			raise(ErrInvalidKey, "table index is NaN")
		}
		// Conversion is only defined for floats inside the int64 range.
		if f >= math.MinInt64 && f < math.MaxInt64 {
			if i := int64(f); float64(i) == f {
				return intKey(i)
			}
		}
		return hashKey{kind: keyFloat, n: key.n}
	case TypeInteger:
		return hashKey{kind: keyInteger, n: key.n}
	case TypeBoolean:
		return hashKey{kind: keyBoolean, n: key.n}
	case TypeString:
		return strKey(StringID(key.n))
	case TypeTable, TypeFunction, TypeUserData, TypeThread:
		return hashKey{kind: keyReference, ref: key.ref}
	case TypeLightUserData:
		return rt.lightKey(key.ref)
	}
	raise(ErrUnhashableInternal, "unhashable key tag")
	return hashKey{} // unreachable
}

// lightKey derives the canonical identity of a light-userdata payload.
// Primitive payloads get a distinguishing kind prefix and hash by value;
// reference payloads are mapped through the runtime's identity-token
// registry, which assigns one token per distinct payload for the
// payload's lifetime without keeping the payload alive.
func (rt *Runtime) lightKey(payload any) hashKey {
	switch p := payload.(type) {
	case bool:
		if p {
			return hashKey{kind: keyLightBool, n: 1}
		}
		return hashKey{kind: keyLightBool, n: 0}
	case string:
		return hashKey{kind: keyLightString, s: p}
	case int:
		return hashKey{kind: keyLightInt, n: uint64(int64(p))}
	case int8:
		return hashKey{kind: keyLightInt, n: uint64(int64(p))}
	case int16:
		return hashKey{kind: keyLightInt, n: uint64(int64(p))}
	case int32:
		return hashKey{kind: keyLightInt, n: uint64(int64(p))}
	case int64:
		return hashKey{kind: keyLightInt, n: uint64(p)}
	case uint:
		return lightUintKey(uint64(p))
	case uint8:
		return lightUintKey(uint64(p))
	case uint16:
		return lightUintKey(uint64(p))
	case uint32:
		return lightUintKey(uint64(p))
	case uint64:
		return lightUintKey(p)
	case uintptr:
		return lightUintKey(uint64(p))
	case float32:
		return hashKey{kind: keyLightFloat, n: math.Float64bits(float64(p))}
	case float64:
		return hashKey{kind: keyLightFloat, n: math.Float64bits(p)}
	case nil:
		raise(ErrInvalidKey, "table index is nil")
	}
	return hashKey{kind: keyLightRef, n: uint64(rt.idents.tokenFor(payload))}
}

// lightUintKey folds unsigned payloads that fit in int64 onto the signed
// kind, so uint64(5) and int64(5) are the same handle identity.
func lightUintKey(u uint64) hashKey {
	if u <= math.MaxInt64 {
		return hashKey{kind: keyLightInt, n: u}
	}
	return hashKey{kind: keyLightUint, n: u}
}

// funcIdentity wraps a code pointer so host-function identities can never
// collide with integer payload identities in the token registry.
type funcIdentity uintptr

// registryIdentity reduces a reference payload to a comparable identity
// for the token registry. Funcs, maps, and slices are not comparable in
// Go; their data pointer stands in for them.
func registryIdentity(payload any) any {
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return funcIdentity(v.Pointer())
	}
	if !v.Comparable() {
		raise(ErrUnhashableInternal, "light userdata payload is not hashable")
	}
	return payload
}
