package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const char8Layout = "20060102"

// FormatError reports a stored date that cannot be decoded, or a date that
// cannot be written in the fixed-width form. On read it means the row is corrupt.
type FormatError struct {
	Value  string
	Reason string
	// Encoding is set when the failure happened on the way into the store.
	Encoding bool
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid char(8) date %q: %s", e.Value, e.Reason)
}

// EncodeDate formats the calendar date of t as YYYYMMDD. The time of day and
// the zone offset are dropped.
func EncodeDate(t time.Time) (string, error) {
	if !Representable(t.Year()) {
		return "", &FormatError{Value: t.String(), Reason: "year does not fit in four digits", Encoding: true}
	}
	return t.Format(char8Layout), nil
}

// DecodeDate parses exactly eight digits as YYYYMMDD and returns that date at
// midnight UTC.
func DecodeDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, &FormatError{Value: s, Reason: "expected exactly 8 characters"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, &FormatError{Value: s, Reason: "expected only digits"}
		}
	}
	t, err := time.ParseInLocation(char8Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, &FormatError{Value: s, Reason: err.Error()}
	}
	if t.Year() < 1 {
		return time.Time{}, &FormatError{Value: s, Reason: "year 0000 does not exist"}
	}
	return t, nil
}

// Representable reports whether every date of year can be written as char(8).
func Representable(year int) bool {
	return year >= 1 && year <= 9999
}

// Char8Date carries a date through the store as char(8). It is the converter
// GORM runs on every read and write of Pictures.ReleaseDate.
type Char8Date time.Time

func (d Char8Date) Time() time.Time {
	return time.Time(d)
}

// Value implements driver.Valuer.
func (d Char8Date) Value() (driver.Value, error) {
	return EncodeDate(time.Time(d))
}

// Scan implements sql.Scanner.
func (d *Char8Date) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return &FormatError{Value: "", Reason: "NULL is not a date"}
	default:
		return &FormatError{Value: fmt.Sprint(v), Reason: fmt.Sprintf("unsupported source type %T", v)}
	}
	t, err := DecodeDate(s)
	if err != nil {
		return err
	}
	*d = Char8Date(t)
	return nil
}
