package model

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/auth"
	"github.com/taskhive/taskhive/principal"
	"github.com/uptrace/bun"
)

// User is the public projection of a user row.
type User struct {
	ID       int64  `bun:"id" json:"id"`
	Username string `bun:"username" json:"username"`
}

func (User) Columns() []string {
	return []string{"id", "username"}
}

// UserForLogin adds the password hash and both salts. Only the login
// flow reads it; it never leaves the service.
type UserForLogin struct {
	ID       int64   `bun:"id"`
	Username string  `bun:"username"`
	Pwd      *string `bun:"pwd"`

	// PwdSalt binds password hashes, TokenSalt binds token signatures.
	// Both are fixed at row creation; keeping them distinct lets one be
	// rotated without invalidating the other.
	PwdSalt   uuid.UUID `bun:"pwd_salt"`
	TokenSalt uuid.UUID `bun:"token_salt"`
}

func (UserForLogin) Columns() []string {
	return []string{"id", "username", "pwd", "pwd_salt", "token_salt"}
}

// UserForAuth is the projection the request middleware loads to
// validate a bearer token.
type UserForAuth struct {
	ID        int64     `bun:"id"`
	Username  string    `bun:"username"`
	TokenSalt uuid.UUID `bun:"token_salt"`
}

func (UserForAuth) Columns() []string {
	return []string{"id", "username", "token_salt"}
}

// UserForCreate is the registration payload.
type UserForCreate struct {
	Username string `json:"username"`
	PwdClear string `json:"pwd_clear"`
}

// userForInsert is the changeset for the initial row: username plus the
// two generated salts. The password is hashed in a second step, once
// the row's own salt exists.
type userForInsert struct {
	username  string
	pwdSalt   uuid.UUID
	tokenSalt uuid.UUID
}

func (u userForInsert) Fields() []Field {
	return []Field{
		{Column: "username", Value: u.username},
		{Column: "pwd_salt", Value: u.pwdSalt},
		{Column: "token_salt", Value: u.tokenSalt},
	}
}

type pwdUpdate struct {
	hash string
}

func (p pwdUpdate) Fields() []Field {
	return []Field{{Column: "pwd", Value: p.hash}}
}

type usersTable struct{}

func (usersTable) Table() string { return "users" }

// UserStore specializes the generic access layer for users, adding
// username lookup and password management.
type UserStore struct {
	mm     *Manager
	pwdKey []byte
}

// NewUserStore creates a UserStore bound to the manager and the
// password signing key.
func NewUserStore(mm *Manager, pwdKey []byte) *UserStore {
	return &UserStore{mm: mm, pwdKey: pwdKey}
}

// Create inserts the user with freshly generated salts, then sets the
// password hash in a second statement. The order is load-bearing: the
// hash is bound to the row's own pwd_salt, which must exist first.
func (s *UserStore) Create(ctx context.Context, pr principal.Context, data UserForCreate) (int64, error) {
	insert := userForInsert{
		username:  data.Username,
		pwdSalt:   uuid.New(),
		tokenSalt: uuid.New(),
	}

	id, err := Create(ctx, pr, s.mm, usersTable{}, insert)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken.Clone().WithMetadata(map[string]any{
				"username": data.Username,
			})
		}
		return 0, err
	}

	if err := s.UpdatePassword(ctx, pr, id, data.PwdClear); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *UserStore) Get(ctx context.Context, pr principal.Context, id int64) (User, error) {
	return Get[User](ctx, pr, s.mm, usersTable{}, id)
}

func (s *UserStore) GetForLogin(ctx context.Context, pr principal.Context, id int64) (UserForLogin, error) {
	return Get[UserForLogin](ctx, pr, s.mm, usersTable{}, id)
}

func (s *UserStore) GetForAuth(ctx context.Context, pr principal.Context, id int64) (UserForAuth, error) {
	return Get[UserForAuth](ctx, pr, s.mm, usersTable{}, id)
}

// FirstByUsername returns (nil, nil) when no row matches: absence is a
// valid answer here, and the caller decides whether it is an error.
func (s *UserStore) FirstByUsername(ctx context.Context, pr principal.Context, username string) (*User, error) {
	return firstByUsername[User](ctx, s.mm, username)
}

func (s *UserStore) FirstForLoginByUsername(ctx context.Context, pr principal.Context, username string) (*UserForLogin, error) {
	return firstByUsername[UserForLogin](ctx, s.mm, username)
}

func (s *UserStore) FirstForAuthByUsername(ctx context.Context, pr principal.Context, username string) (*UserForAuth, error) {
	return firstByUsername[UserForAuth](ctx, s.mm, username)
}

// UpdatePassword loads the row's password salt, hashes the clear
// password against it, and writes the hash back.
func (s *UserStore) UpdatePassword(ctx context.Context, pr principal.Context, id int64, pwdClear string) error {
	user, err := s.GetForLogin(ctx, pr, id)
	if err != nil {
		return err
	}

	hash, err := auth.Hash(s.pwdKey, pwdClear, user.PwdSalt.String())
	if err != nil {
		return err
	}

	return Update(ctx, pr, s.mm, usersTable{}, id, pwdUpdate{hash: hash})
}

// ValidatePassword recomputes the hash from the supplied clear password
// and the stored salt and compares it to the stored hash. A user
// without a password is a distinct failure from a mismatch.
func (s *UserStore) ValidatePassword(user UserForLogin, pwdClear string) error {
	if user.Pwd == nil {
		return ErrUserHasNoPwd.Clone().WithMetadata(map[string]any{
			"user_id": user.ID,
		})
	}

	hash, err := auth.Hash(s.pwdKey, pwdClear, user.PwdSalt.String())
	if err != nil {
		return err
	}

	if hash != *user.Pwd {
		return ErrPwdNotMatching.Clone().WithMetadata(map[string]any{
			"user_id": user.ID,
		})
	}

	return nil
}

func firstByUsername[R Record](ctx context.Context, mm *Manager, username string) (*R, error) {
	var rec R

	err := mm.db.NewSelect().
		TableExpr("?", bun.Ident(usersTable{}.Table())).
		Column(rec.Columns()...).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx, &rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStoreErr(err)
	}

	return &rec, nil
}
