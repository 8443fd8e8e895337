package vm

// ---------------------------------------------------------------------------
// Reference object types
// ---------------------------------------------------------------------------
//
// The table engine only needs reference objects for one thing: identity.
// Two reference values are the same key exactly when they point at the
// same object. The interpreter layers richer behavior on top of these
// types; here they are deliberately thin.

// Function is a callable runtime object. GoFunc is set for host-provided
// functions; bytecode closures leave it nil and are driven by the
// interpreter.
type Function struct {
	Name   string
	GoFunc func(rt *Runtime, args []Value) []Value
}

// NewFunction creates a host function object.
func NewFunction(name string, fn func(rt *Runtime, args []Value) []Value) *Function {
	return &Function{Name: name, GoFunc: fn}
}

// UserData is a full userdata: a host value boxed as a first-class
// runtime object, with an optional metatable of its own.
type UserData struct {
	Data      any
	metatable *Table
}

// NewUserData boxes a host value as a userdata object.
func NewUserData(data any) *UserData {
	return &UserData{Data: data}
}

// Metatable returns the userdata's metatable, or nil.
func (u *UserData) Metatable() *Table { return u.metatable }

// SetMetatable replaces the userdata's metatable.
func (u *UserData) SetMetatable(mt *Table) { u.metatable = mt }

// ThreadStatus describes a coroutine's lifecycle state.
type ThreadStatus uint8

const (
	ThreadSuspended ThreadStatus = iota
	ThreadRunning
	ThreadNormal
	ThreadDead
)

// Thread is a coroutine shell. The interpreter owns the execution state;
// the table engine sees threads purely as identity-compared keys.
type Thread struct {
	Status ThreadStatus
}

// NewThread creates a suspended coroutine object.
func NewThread() *Thread {
	return &Thread{Status: ThreadSuspended}
}
