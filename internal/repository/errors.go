// Package repository implements the persistence layer over MySQL. This file
// defines sentinel errors shared across stores. Handlers use these values to
// pick the HTTP status for a failure without inspecting driver error strings
// themselves.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a lookup by id (or reset token) matches no
// row. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned on signup when the normalized email already
// belongs to an account. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a uniqueness constraint other than the ones
// with dedicated sentinels rejects a write (duplicate tour name). HTTP 409.
var ErrConflict = errors.New("duplicate field value already exists")

// ErrDuplicateReview is returned when the (tour, user) uniqueness constraint
// rejects a second review by the same user on the same tour. HTTP 409.
var ErrDuplicateReview = errors.New("you already posted your review for this tour")

// ErrPageOutOfRange is returned when the caller explicitly requested a page
// whose window starts at or beyond the total row count. Handlers translate
// it into HTTP 404 rather than serving an empty page.
var ErrPageOutOfRange = errors.New("this page does not exist")

// ErrUnknownField is returned when a filter, sort or projection names a
// field the entity does not expose. The query parser accepts anything; the
// store is where field names meet the schema. HTTP 400.
var ErrUnknownField = errors.New("unknown field")

// ErrValidation wraps entity constraint violations so handlers can map them
// to HTTP 400 with the aggregated message intact.
var ErrValidation = errors.New("invalid input data")

func unknownField(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, name)
}

func validationFailed(err error) error {
	return fmt.Errorf("%w. %s", ErrValidation, err.Error())
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error number 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isForeignKey reports whether err is a MySQL foreign-key violation on
// insert or update (error number 1452): the referenced parent row does not
// exist.
func isForeignKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}
