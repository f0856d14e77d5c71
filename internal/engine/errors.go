package engine

import (
	"strconv"

	"github.com/kailas-cloud/crindex/internal/domain"
)

// Op constants map to engine endpoints for error context.
const (
	OpBulk   = "_bulk"
	OpSearch = "_search"
	OpCount  = "_count"
	OpPing   = "ping"
)

// Error wraps an engine failure with the endpoint and HTTP status.
// Kind is one of the domain sentinels (ErrTransport, ErrConflict, ErrNotFound).
type Error struct {
	Op     string
	Status int
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg += " (" + strconv.Itoa(e.Status) + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

// Transport wraps err as a transport failure.
func Transport(op string, status int, err error) error {
	return &Error{Op: op, Status: status, Kind: domain.ErrTransport, Err: err}
}

// Conflict wraps err as a version conflict.
func Conflict(op string, err error) error {
	return &Error{Op: op, Status: 409, Kind: domain.ErrConflict, Err: err}
}
