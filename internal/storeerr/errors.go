// Package storeerr defines the error taxonomy shared by the merge engine,
// the store facade and the sweeper. Every caller-facing failure carries a
// kind plus the identity of the object it concerns.
package storeerr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindIdentityMissing        Kind = "identity_missing"
	KindMissingElementUid      Kind = "missing_element_uid"
	KindChildUidNotUnique      Kind = "child_uid_not_unique"
	KindMaxDataExceeded        Kind = "max_data_exceeded"
	KindInvalidStructuralRange Kind = "invalid_structural_range"
	KindNotFound               Kind = "not_found"
	KindPersistenceFailure     Kind = "persistence_failure"
)

type Error struct {
	Kind     Kind
	ObjectID string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.ObjectID != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.ObjectID, e.Msg)
	case e.ObjectID != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.ObjectID)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func E(kind Kind, objectID, format string, args ...any) *Error {
	return &Error{Kind: kind, ObjectID: objectID, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and object identity to an underlying failure,
// typically a persistence error.
func Wrap(kind Kind, objectID string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, ObjectID: objectID, Msg: err.Error(), Err: err}
}

// KindOf extracts the error kind, or empty string for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
