// Package animerr defines the error taxonomy shared by the animation packages.
package animerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an animation error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindInvalidAction indicates malformed action parameters at compile time.
	KindInvalidAction
	// KindInvalidTick indicates a negative or otherwise out-of-domain tick.
	KindInvalidTick
	// KindUnreachableOrigin indicates a return-to-start with no finite path.
	KindUnreachableOrigin
	// KindCoordination indicates a coordination plan the engine cannot honor.
	KindCoordination
	// KindDisposed indicates use of a timeline after Dispose.
	KindDisposed
)

// Sentinels matched with errors.Is against any *Error of the same kind.
var (
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidTick       = errors.New("invalid tick")
	ErrUnreachableOrigin = errors.New("unreachable origin")
	ErrCoordination      = errors.New("coordination configuration error")
	ErrDisposed          = errors.New("timeline disposed")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAction:
		return "invalid_action"
	case KindInvalidTick:
		return "invalid_tick"
	case KindUnreachableOrigin:
		return "unreachable_origin"
	case KindCoordination:
		return "coordination"
	case KindDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidAction:
		return ErrInvalidAction
	case KindInvalidTick:
		return ErrInvalidTick
	case KindUnreachableOrigin:
		return ErrUnreachableOrigin
	case KindCoordination:
		return ErrCoordination
	case KindDisposed:
		return ErrDisposed
	default:
		return nil
	}
}

// Error is a structured animation error.
type Error struct {
	// Op is the operation that failed (e.g., "timeline.Compile").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Index is the offending action index, or -1 when not applicable.
	Index int
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s [%s] action=%d: %v", e.Op, e.Kind, e.Index, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// New builds an *Error with a formatted message and no action index.
func New(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Index: -1, Err: fmt.Errorf(format, args...)}
}

// Action builds an invalid-action *Error pointing at the action at index.
func Action(op string, index int, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindInvalidAction, Index: index, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
