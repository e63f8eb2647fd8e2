package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// DuplicateError reports a UNIQUE constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// asDuplicate maps a sqlite UNIQUE violation to a DuplicateError. Other errors
// are returned unchanged.
func asDuplicate(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return &DuplicateError{Field: "username"}
	case strings.Contains(msg, "users.email"):
		return &DuplicateError{Field: "email"}
	default:
		return &DuplicateError{Field: "unknown"}
	}
}
