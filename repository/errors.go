package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/camden-git/moviesbackend/database"
	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyTracked is returned when Add is given an instance the
	// context already tracks.
	ErrAlreadyTracked = errors.New("entity is already tracked")
	// ErrEntityDeleted is returned for any operation on an instance whose
	// deletion has been committed.
	ErrEntityDeleted = errors.New("entity has been deleted")
	// ErrNotTracked is returned when Remove is given an instance without a
	// key that the context does not track.
	ErrNotTracked = errors.New("entity is not tracked")
	// ErrStaleEntity is returned by Commit when an update or delete matched
	// no row, meaning someone else removed it first.
	ErrStaleEntity = errors.New("entity no longer exists in the store")
)

// ConstraintError is a commit rejected by the mapping constraints or by the
// store: required column missing, value too long, duplicate or dangling key.
type ConstraintError struct {
	Op  string
	Err error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: constraint violation: %v", e.Op, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// ConnectivityError means the store could not be reached.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// sqlStater is implemented by server drivers such as pgx.
type sqlStater interface {
	SQLState() string
}

// classify sorts a store error into the taxonomy, wrapping it with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	var ne *ConnectivityError
	if errors.As(err, &ce) || errors.As(err, &ne) {
		return err
	}

	var verrs validator.ValidationErrors
	var fe *database.FormatError
	if errors.As(err, &verrs) ||
		(errors.As(err, &fe) && fe.Encoding) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &ConstraintError{Op: op, Err: err}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return &ConstraintError{Op: op, Err: err}
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return &ConnectivityError{Op: op, Err: err}
		}
	}

	var stater sqlStater
	if errors.As(err, &stater) {
		switch {
		case strings.HasPrefix(stater.SQLState(), "23"):
			return &ConstraintError{Op: op, Err: err}
		case strings.HasPrefix(stater.SQLState(), "08"):
			return &ConnectivityError{Op: op, Err: err}
		}
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return &ConnectivityError{Op: op, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
