package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskhive/taskhive/auth"
	"github.com/taskhive/taskhive/principal"
)

// RequireAuth resolves the auth-token cookie into a principal context
// and stores it on the request. Any failure clears the cookie so a
// broken token does not follow the client around.
func (s *Server) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pr, err := s.resolvePrincipal(c)
		if err != nil {
			s.clearTokenCookie(c)
			return err
		}

		c.SetUserContext(principal.WithContext(c.UserContext(), pr))

		return c.Next()
	}
}

func (s *Server) resolvePrincipal(c *fiber.Ctx) (principal.Context, error) {
	raw := c.Cookies(AuthTokenCookie)
	if raw == "" {
		return principal.Context{}, ErrNoAuth
	}

	token, err := auth.ParseToken(raw)
	if err != nil {
		return principal.Context{}, err
	}

	user, err := s.users.FirstForAuthByUsername(c.UserContext(), principal.Root(), token.Ident)
	if err != nil {
		return principal.Context{}, err
	}
	if user == nil {
		return principal.Context{}, ErrNoAuth.Clone().WithMetadata(map[string]any{
			"ident": token.Ident,
		})
	}

	if err := auth.ValidateToken(token, user.TokenSalt.String(), s.cfg.TokenKey); err != nil {
		return principal.Context{}, err
	}

	// Sliding expiry: every authenticated request reissues the token.
	fresh, err := auth.GenerateToken(user.Username, s.cfg.TokenDuration, user.TokenSalt.String(), s.cfg.TokenKey)
	if err != nil {
		return principal.Context{}, err
	}
	s.setTokenCookie(c, fresh)

	return principal.New(user.ID)
}
