// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// to distinguish between different failure scenarios without looking at
// driver specific errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
// Callers that race on the same natural key retry their lookup when they
// see it.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrGoogleIDExists identify which unique key was hit.
var (
	ErrEmailExists    = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrGoogleIDExists = fmt.Errorf("%w: google id already linked", ErrConflict)
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// translateDuplicate maps a MySQL duplicate-entry error onto the matching
// sentinel. Other errors are returned unchanged.
func translateDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	if strings.Contains(me.Message, "google_id") {
		return ErrGoogleIDExists
	}
	if strings.Contains(me.Message, "email") {
		return ErrEmailExists
	}
	return ErrConflict
}
