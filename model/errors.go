package model

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TextCodeEntityNotFound   = "model_entity_not_found"
	TextCodeListLimitOverMax = "model_list_limit_over_max"
	TextCodeUnknownColumn    = "model_unknown_column"
	TextCodeNoSetFields      = "model_no_set_fields"
	TextCodeUsernameTaken    = "model_username_taken"
	TextCodeUserHasNoPwd     = "model_user_has_no_pwd"
	TextCodePwdNotMatching   = "model_pwd_not_matching"
)

var errEntityNotFound = errors.New("entity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeEntityNotFound).
	WithCode(errors.CodeNotFound)

// NewEntityNotFound reports a zero-row result for an id-addressed
// operation. The entity name and id travel as metadata.
func NewEntityNotFound(entity string, id int64) *errors.Error {
	return errEntityNotFound.Clone().WithMetadata(map[string]any{
		"entity": entity,
		"id":     id,
	})
}

// IsEntityNotFound will check for zero-row failures.
func IsEntityNotFound(err error) bool {
	return hasTextCode(err, TextCodeEntityNotFound)
}

var errListLimitOverMax = errors.New("list limit over max", errors.CategoryBadInput).
	WithTextCode(TextCodeListLimitOverMax).
	WithCode(errors.CodeBadRequest)

// NewListLimitOverMax rejects a page size above policy.
func NewListLimitOverMax(max, actual int) *errors.Error {
	return errListLimitOverMax.Clone().WithMetadata(map[string]any{
		"max":    max,
		"actual": actual,
	})
}

// IsListLimitOverMax will check for rejected page sizes.
func IsListLimitOverMax(err error) bool {
	return hasTextCode(err, TextCodeListLimitOverMax)
}

var errUnknownColumn = errors.New("unknown column in expression", errors.CategoryBadInput).
	WithTextCode(TextCodeUnknownColumn).
	WithCode(errors.CodeBadRequest)

// NewUnknownColumn rejects a filter or ordering reference to a column the
// record does not declare. Failing here keeps bad references from
// silently matching nothing.
func NewUnknownColumn(entity, column string) *errors.Error {
	return errUnknownColumn.Clone().WithMetadata(map[string]any{
		"entity": entity,
		"column": column,
	})
}

// IsUnknownColumn will check for bad column references.
func IsUnknownColumn(err error) bool {
	return hasTextCode(err, TextCodeUnknownColumn)
}

var errNoSetFields = errors.New("record has no set fields", errors.CategoryBadInput).
	WithTextCode(TextCodeNoSetFields).
	WithCode(errors.CodeBadRequest)

// ErrUsernameTaken is the classified form of a username uniqueness
// violation, the one store fault this layer interprets.
var ErrUsernameTaken = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// IsUsernameTaken will check for username uniqueness violations.
func IsUsernameTaken(err error) bool {
	return hasTextCode(err, TextCodeUsernameTaken)
}

// ErrUserHasNoPwd is returned when validating a password for a user that
// never had one set.
var ErrUserHasNoPwd = errors.New("user has no password set", errors.CategoryAuth).
	WithTextCode(TextCodeUserHasNoPwd).
	WithCode(errors.CodeUnauthorized)

// ErrPwdNotMatching is returned when the recomputed hash differs from
// the stored one.
var ErrPwdNotMatching = errors.New("password not matching", errors.CategoryAuth).
	WithTextCode(TextCodePwdNotMatching).
	WithCode(errors.CodeUnauthorized)

// IsUserHasNoPwd will check for password validation against a pwd-less user.
func IsUserHasNoPwd(err error) bool {
	return hasTextCode(err, TextCodeUserHasNoPwd)
}

// IsPwdNotMatching will check for hash mismatches.
func IsPwdNotMatching(err error) bool {
	return hasTextCode(err, TextCodePwdNotMatching)
}

// wrapStoreErr surfaces a store fault opaquely. Nothing at this layer
// retries or reinterprets it.
func wrapStoreErr(err error) error {
	return errors.Wrap(err, errors.CategoryInternal, "store operation failed")
}

// isUniqueViolation inspects the driver fault code for a uniqueness
// constraint violation. Postgres reports SQLSTATE 23505; the sqlite
// driver used in tests reports a message-level UNIQUE failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
