package contracts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned by stores when an explicit id is already taken.
var ErrDuplicateID = errors.New("duplicate id")

// Kind classifies service failures. The HTTP layer maps kinds to status codes.
type Kind string

const (
	KindNotFound      Kind = "NotFound"
	KindEmptyTemplate Kind = "EmptyTemplate"
	KindPersistence   Kind = "PersistenceFailure"
	KindInvalidInput  Kind = "InvalidInput"
)

// Resource names the entity an error is about.
type Resource string

const (
	ResourceContract Resource = "contract"
	ResourceElement  Resource = "element"
	ResourceTemplate Resource = "template"
	ResourceClause   Resource = "clause"
)

// Error is the error type returned by Service.
type Error struct {
	Kind     Kind
	Resource Resource
	ID       int64
	// Op is the persistence operation that failed, for KindPersistence.
	Op string
	// Condition is the SQLSTATE condition name when the driver reported one.
	Condition string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Resource != "" {
		fmt.Fprintf(&b, " %s", e.Resource)
		if e.ID != 0 {
			fmt.Fprintf(&b, " %d", e.ID)
		}
	}
	if e.Op != "" {
		fmt.Fprintf(&b, " during %s", e.Op)
	}
	if e.Condition != "" {
		fmt.Fprintf(&b, " (%s)", e.Condition)
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ResourceOf returns the resource of err, or "" if err is not a *Error.
func ResourceOf(err error) Resource {
	var e *Error
	if errors.As(err, &e) {
		return e.Resource
	}
	return ""
}

func notFound(res Resource, id int64) error {
	return &Error{Kind: KindNotFound, Resource: res, ID: id, Msg: fmt.Sprintf("%s %d does not exist", res, id)}
}

func invalidInput(res Resource, msg string) error {
	return &Error{Kind: KindInvalidInput, Resource: res, Msg: msg}
}

// persistence wraps a store failure. Errors that are already *Error pass
// through unchanged so the first classification wins.
func persistence(res Resource, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindPersistence, Resource: res, Op: op, Condition: driverCondition(err), Err: err}
}

// lookup classifies a read failure: ErrNotFound becomes KindNotFound.
func lookup(res Resource, id int64, op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(res, id)
	}
	return persistence(res, op, err)
}

func driverCondition(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name()
	}
	return ""
}
