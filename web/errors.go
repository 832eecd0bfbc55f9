package web

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/model"
)

const (
	TextCodeLoginFail     = "web_login_fail"
	TextCodeNoAuth        = "web_no_auth"
	TextCodeRpcMethod     = "web_rpc_method_unknown"
	TextCodeRpcParams     = "web_rpc_invalid_params"
	TextCodeRpcRequest    = "web_rpc_invalid_request"
	TextCodeServiceError  = "web_service_error"
	TextCodeInvalidParams = "web_invalid_params"
)

var (
	// ErrLoginFailUsernameNotFound is deliberately indistinguishable from a
	// password mismatch once it reaches the client.
	ErrLoginFailUsernameNotFound = errors.New("login failed: username not found", errors.CategoryAuth).
		WithTextCode(TextCodeLoginFail).
		WithCode(errors.CodeUnauthorized)

	ErrNoAuth = errors.New("no auth context", errors.CategoryAuth).
		WithTextCode(TextCodeNoAuth).
		WithCode(errors.CodeUnauthorized)

	ErrRpcMethodUnknown = errors.New("unknown rpc method", errors.CategoryBadInput).
		WithTextCode(TextCodeRpcMethod).
		WithCode(errors.CodeBadRequest)

	ErrRpcMissingParams = errors.New("rpc params required", errors.CategoryBadInput).
		WithTextCode(TextCodeRpcParams).
		WithCode(errors.CodeBadRequest)

	ErrRpcFailJSONParams = errors.New("rpc params failed json parsing", errors.CategoryBadInput).
		WithTextCode(TextCodeRpcParams).
		WithCode(errors.CodeBadRequest)

	ErrRpcInvalidRequest = errors.New("rpc request failed json parsing", errors.CategoryBadInput).
		WithTextCode(TextCodeRpcRequest).
		WithCode(errors.CodeBadRequest)
)

// clientError is what the client learns about a failure. Server-side
// detail stays in the logs, tied back by the request uuid.
type clientError struct {
	Message string `json:"message"`
	Data    struct {
		ReqUUID string `json:"req_uuid"`
		Detail  string `json:"detail,omitempty"`
	} `json:"data"`
}

// ErrorHandler maps errors to client responses. Auth and login failures
// collapse to generic messages so the response never reveals whether a
// username exists or which check failed.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	reqUUID := uuid.NewString()

	status, message, detail := classify(err)

	s.logger.Error("request error: %s uuid=%s status=%d", err, reqUUID, status)

	body := clientError{Message: message}
	body.Data.ReqUUID = reqUUID
	body.Data.Detail = detail

	return c.Status(status).JSON(fiber.Map{"error": body})
}

func classify(err error) (status int, message, detail string) {
	if isLoginFail(err) {
		return fiber.StatusForbidden, "LOGIN_FAIL", ""
	}

	if hasTextCode(err, TextCodeRpcMethod) {
		return fiber.StatusBadRequest, "METHOD_UNKNOWN", TextCodeRpcMethod
	}

	var richErr *errors.Error
	if !stderrors.As(err, &richErr) {
		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return fiberErr.Code, fiberErr.Message, ""
		}
		return fiber.StatusInternalServerError, "SERVICE_ERROR", ""
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return fiber.StatusForbidden, "NO_AUTH", ""
	case errors.CategoryNotFound:
		return fiber.StatusBadRequest, "ENTITY_NOT_FOUND", richErr.TextCode
	case errors.CategoryBadInput, errors.CategoryValidation:
		return fiber.StatusBadRequest, "INVALID_PARAMS", richErr.TextCode
	case errors.CategoryConflict:
		return fiber.StatusConflict, "CONFLICT", richErr.TextCode
	default:
		return fiber.StatusInternalServerError, "SERVICE_ERROR", ""
	}
}

// isLoginFail groups every way a login can fail. They all produce the
// same client response. Matching is by text code: the sentinels travel
// as clones carrying instance metadata, so pointer identity never holds.
func isLoginFail(err error) bool {
	return hasTextCode(err, TextCodeLoginFail) ||
		model.IsUserHasNoPwd(err) ||
		model.IsPwdNotMatching(err)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !stderrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
