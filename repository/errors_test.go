package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/camden-git/moviesbackend/database"
	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type pgError struct{ code string }

func (e pgError) Error() string    { return "pg error " + e.code }
func (e pgError) SQLState() string { return e.code }

func TestClassify(t *testing.T) {
	type titled struct {
		Title string `validate:"required"`
	}
	validationErr := validator.New().Struct(titled{})

	constraint := []error{
		validationErr,
		gorm.ErrDuplicatedKey,
		fmt.Errorf("insert: %w", gorm.ErrForeignKeyViolated),
		sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull},
		pgError{code: "23503"},
		&database.FormatError{Value: "10000-01-01", Reason: "year does not fit in four digits", Encoding: true},
	}
	for _, err := range constraint {
		var ce *ConstraintError
		got := classify("op", err)
		assert.ErrorAs(t, got, &ce, "%v", err)
		assert.Equal(t, err, errors.Unwrap(got))
	}

	connectivity := []error{
		driver.ErrBadConn,
		sqlite3.Error{Code: sqlite3.ErrCantOpen},
		pgError{code: "08006"},
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
	}
	for _, err := range connectivity {
		var ne *ConnectivityError
		assert.ErrorAs(t, classify("op", err), &ne, "%v", err)
	}

	other := errors.New("boom")
	got := classify("list movies", other)
	assert.ErrorIs(t, got, other)
	assert.Equal(t, "list movies: boom", got.Error())
	var ce *ConstraintError
	assert.False(t, errors.As(got, &ce))

	assert.NoError(t, classify("op", nil))

	already := &ConstraintError{Op: "inner", Err: other}
	assert.Same(t, already, classify("outer", already))
}

func TestReadError(t *testing.T) {
	stored := &database.FormatError{Value: "2009xx15", Reason: "expected only digits"}
	var re *ReadError
	assert.ErrorAs(t, readError("list movies", fmt.Errorf("scan: %w", stored)), &re)

	argument := &database.FormatError{Value: "10000-01-01", Reason: "year does not fit in four digits", Encoding: true}
	got := readError("list movies", fmt.Errorf("converting argument: %w", argument))
	assert.False(t, errors.As(got, &re), "an argument that cannot be written is not a corrupt row")
	var ce *ConstraintError
	assert.ErrorAs(t, got, &ce)
}

func TestEntityState_String(t *testing.T) {
	assert.Equal(t, "Detached", Detached.String())
	assert.Equal(t, "Added", Added.String())
	assert.Equal(t, "Unchanged", Unchanged.String())
	assert.Equal(t, "Modified", Modified.String())
	assert.Equal(t, "Deleted", Deleted.String())
	assert.Equal(t, "EntityState(9)", EntityState(9).String())
}
