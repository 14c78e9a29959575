package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindSchemaUnavailable Kind = iota + 1
	KindStatusesUnavailable
	KindTransportFailure
	KindMalformedTree
	KindSubrecordDecodeFailure
)

func (k Kind) String() string {
	switch k {
	case KindSchemaUnavailable:
		return "schema unavailable"
	case KindStatusesUnavailable:
		return "statuses unavailable"
	case KindTransportFailure:
		return "transport failure"
	case KindMalformedTree:
		return "malformed tree"
	case KindSubrecordDecodeFailure:
		return "subrecord decode failure"
	default:
		return fmt.Sprintf("unknown error kind(%d)", int(k))
	}
}

// Error is the single error type of the catalog packages. Kind tells callers
// whether the failure aborts a session or only degrades a result.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func SchemaUnavailable(op string, err error) *Error {
	return newError(KindSchemaUnavailable, op, err)
}

func StatusesUnavailable(op string, err error) *Error {
	return newError(KindStatusesUnavailable, op, err)
}

func TransportFailure(op string, err error) *Error {
	return newError(KindTransportFailure, op, err)
}

func MalformedTree(op string, err error) *Error {
	return newError(KindMalformedTree, op, err)
}

func SubrecordDecodeFailure(op string, err error) *Error {
	return newError(KindSubrecordDecodeFailure, op, err)
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
