package principal

import (
	"context"

	"github.com/goliatone/go-errors"
)

// TextCodeCannotNewRoot is the stable code for rejected root construction.
const TextCodeCannotNewRoot = "principal_cannot_new_root"

// ErrCannotNewRootContext is returned when an externally derived identity
// claims the reserved root user id.
var ErrCannotNewRootContext = errors.New("cannot create root context from external identity", errors.CategoryBadInput).
	WithTextCode(TextCodeCannotNewRoot).
	WithCode(errors.CodeBadRequest)

// RootID is the user id reserved for the internal root principal.
const RootID int64 = 0

// Context identifies the acting user for a data-access call. It is an
// immutable value, created per request and never persisted.
type Context struct {
	userID int64
}

// Root returns the privileged root principal. Only trusted internal call
// sites (first-time setup, maintenance tasks) should use it.
func Root() Context {
	return Context{userID: RootID}
}

// New builds a principal for the given user id. The root id is rejected:
// a root principal must never be derived from an external token claim.
func New(userID int64) (Context, error) {
	if userID == RootID {
		return Context{}, ErrCannotNewRootContext
	}
	return Context{userID: userID}, nil
}

// UserID returns the id of the acting user, 0 for root.
func (c Context) UserID() int64 {
	return c.userID
}

// IsRoot reports whether this is the privileged root principal.
func (c Context) IsRoot() bool {
	return c.userID == RootID
}

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithContext sets the principal in the given context.
func WithContext(ctx context.Context, pr Context) context.Context {
	return context.WithValue(ctx, principalCtxKey, pr)
}

// FromContext finds the principal in the context.
func FromContext(ctx context.Context) (Context, bool) {
	pr, ok := ctx.Value(principalCtxKey).(Context)
	return pr, ok
}
