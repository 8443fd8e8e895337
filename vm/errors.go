package vm

import "fmt"

// ---------------------------------------------------------------------------
// Error signaling (uses Go panic/recover; raise never returns)
// ---------------------------------------------------------------------------

// ErrorKind classifies a table-engine error.
type ErrorKind uint8

const (
	// ErrInvalidKey: nil or NaN used as a table key. Raised before any
	// mutation; the table is left unchanged.
	ErrInvalidKey ErrorKind = iota

	// ErrInvalidIterationKey: Next called with a key not recognized as
	// ever having belonged to the table. A caller-contract violation.
	ErrInvalidIterationKey

	// ErrUnhashableInternal: a key tag the normalizer does not recognize.
	// Indicates a bug in a caller or collaborator, not a user condition.
	ErrUnhashableInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidKey:
		return "InvalidKey"
	case ErrInvalidIterationKey:
		return "InvalidIterationKey"
	case ErrUnhashableInternal:
		return "UnhashableInternal"
	}
	return "Unknown"
}

// RuntimeError is the value panicked by raise. The surrounding
// interpreter decides whether to surface it as a language-level error.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// raise signals a table-engine error. It never returns normally.
func raise(kind ErrorKind, message string) {
	panic(&RuntimeError{Kind: kind, Message: message})
}

// Protect runs fn and converts a raised *RuntimeError into an error
// return. Panics that are not runtime errors propagate unchanged.
func Protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
