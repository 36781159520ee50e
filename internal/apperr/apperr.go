// Package apperr defines the closed set of failure kinds shared by every
// component of the sales core, and the structured error that carries them.
package apperr

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Kind classifies a failure. The set is closed: callers switch on it to pick
// a transport status, and anything unclassified is treated as Database.
type Kind uint8

const (
	// Database is a query or transaction failure.
	Database Kind = iota
	// Connection means the pool could not be established or revalidated.
	Connection
	// Validation is a caller mistake (bad input, empty cart).
	Validation
	// NotFound is an absent or foreign-owned entity.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	default:
		return "database"
	}
}

// Error is a classified failure with enough context to log it usefully.
type Error struct {
	Kind   Kind
	Op     string // operation, e.g. "create order"
	Entity string // e.g. "cart line"
	ID     int64
	Field  string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case NotFound:
		fmt.Fprintf(&b, "%s %d not found", e.Entity, e.ID)
	default:
		if e.Field != "" {
			b.WriteString(e.Field)
			b.WriteString(": ")
		}
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		if e.Msg != "" || e.Kind == NotFound {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind only, so errors.Is(err, apperr.ErrNotFound)
// works regardless of entity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Entity == "" && t.Msg == "" && t.Err == nil
}

// Kind sentinels for errors.Is.
var (
	ErrDatabase   = &Error{Kind: Database}
	ErrConnection = &Error{Kind: Connection}
	ErrValidation = &Error{Kind: Validation}
	ErrNotFound   = &Error{Kind: NotFound}
)

// Validationf reports invalid caller input on field.
func Validationf(field, format string, args ...any) error {
	return &Error{Kind: Validation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundErr reports that entity id does not exist for the caller.
func NotFoundErr(entity string, id int64) error {
	return &Error{Kind: NotFound, Entity: entity, ID: id}
}

// DB wraps a driver failure. A nil err yields nil, and errors that are
// already classified keep their kind.
func DB(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Database, Op: op, Err: err}
}

// Conn wraps a failure to obtain a database connection.
func Conn(op string, err error) error {
	return &Error{Kind: Connection, Op: op, Msg: "database unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Database.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Database
}
