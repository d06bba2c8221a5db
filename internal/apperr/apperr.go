package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a failure for HTTP translation. Resolution and validation
// errors are raised before any mutation; Conflict is only detectable at
// commit time and is translated from the database error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindConflict
)

type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Status maps an error to the HTTP status code of the response that
// surfaces it. Uniqueness conflicts are client errors, not server faults.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalid, KindConflict:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// uniqueColumns maps unique-index constraint names to the field reported
// to the client.
var uniqueColumns = map[string]string{
	"trails_trail_name_key":            "trail_name",
	"user_lists_name_key":              "name",
	"users_username_key":               "username",
	"users_email_key":                  "email",
	"route_types_route_type_name_key":  "route_type_name",
	"difficulties_difficulty_name_key": "difficulty_name",
}

// FromDB translates raw engine errors into typed ones: a unique violation
// becomes a Conflict naming the duplicated field, pgx.ErrNoRows becomes
// the supplied not-found error. Anything else passes through untouched.
func FromDB(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if notFound != nil {
			return notFound
		}
		return New(KindNotFound, "record not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field, ok := uniqueColumns[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return Newf(KindConflict, "duplicate value for %s", field)
	}
	return err
}
