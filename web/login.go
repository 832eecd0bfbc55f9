package web

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/taskhive/taskhive/auth"
	"github.com/taskhive/taskhive/principal"
)

// LoginPayload is the login form payload.
type LoginPayload struct {
	Username string `json:"username"`
	Pwd      string `json:"pwd"`
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Pwd, validation.Required, validation.Length(1, 256)),
	)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse login payload").
			WithTextCode(TextCodeInvalidParams).
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithTextCode(TextCodeInvalidParams).
			WithCode(errors.CodeBadRequest)
	}

	// Login runs before any user identity exists, so the lookup is done
	// as the root principal.
	ctx := c.UserContext()
	root := principal.Root()

	user, err := s.users.FirstForLoginByUsername(ctx, root, payload.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrLoginFailUsernameNotFound.Clone().WithMetadata(map[string]any{
			"username": payload.Username,
		})
	}

	if err := s.users.ValidatePassword(*user, payload.Pwd); err != nil {
		return err
	}

	token, err := auth.GenerateToken(user.Username, s.cfg.TokenDuration, user.TokenSalt.String(), s.cfg.TokenKey)
	if err != nil {
		return err
	}

	s.setTokenCookie(c, token)

	s.logger.Debug("login ok user_id=%d", user.ID)

	return c.JSON(fiber.Map{
		"result": fiber.Map{"success": true},
	})
}

func (s *Server) handleLogoff(c *fiber.Ctx) error {
	payload := struct {
		Logoff bool `json:"logoff"`
	}{}

	if err := c.BodyParser(&payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse logoff payload").
			WithTextCode(TextCodeInvalidParams).
			WithCode(errors.CodeBadRequest)
	}

	if payload.Logoff {
		s.clearTokenCookie(c)
	}

	return c.JSON(fiber.Map{
		"result": fiber.Map{"logged_off": payload.Logoff},
	})
}

func (s *Server) setTokenCookie(c *fiber.Ctx, token auth.Token) {
	c.Cookie(&fiber.Cookie{
		Name:     AuthTokenCookie,
		Value:    token.String(),
		Path:     "/",
		HTTPOnly: true,
	})
}

func (s *Server) clearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     AuthTokenCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   -1,
	})
}
