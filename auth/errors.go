package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeKeyFail             = "auth_key_fail"
	TextCodeTokenInvalidFormat  = "auth_token_invalid_format"
	TextCodeTokenDecodeIdent    = "auth_token_cannot_decode_ident"
	TextCodeTokenDecodeExp      = "auth_token_cannot_decode_exp"
	TextCodeTokenSignature      = "auth_token_signature_not_matching"
	TextCodeTokenExpNotParsable = "auth_token_exp_not_parsable"
	TextCodeTokenExpired        = "auth_token_expired"
)

// ErrKeyFail is returned when the signing key material cannot be used.
var ErrKeyFail = errors.New("key failed hmac", errors.CategoryInternal).
	WithTextCode(TextCodeKeyFail).
	WithCode(errors.CodeInternal)

// ErrTokenInvalidFormat is returned when a token string does not split
// into exactly three segments.
var ErrTokenInvalidFormat = errors.New("token has invalid format", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalidFormat).
	WithCode(errors.CodeUnauthorized)

// ErrTokenCannotDecodeIdent is returned when the identity segment is not
// valid base64url.
var ErrTokenCannotDecodeIdent = errors.New("token cannot decode ident", errors.CategoryAuth).
	WithTextCode(TextCodeTokenDecodeIdent).
	WithCode(errors.CodeUnauthorized)

// ErrTokenCannotDecodeExp is returned when the expiry segment is not
// valid base64url.
var ErrTokenCannotDecodeExp = errors.New("token cannot decode exp", errors.CategoryAuth).
	WithTextCode(TextCodeTokenDecodeExp).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureNotMatching is returned when the recomputed signature
// differs from the one the token carries (tamper, or wrong salt/key).
var ErrTokenSignatureNotMatching = errors.New("token signature not matching", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpNotParseable is returned when the expiry is not RFC3339.
var ErrTokenExpNotParseable = errors.New("token expiration not parsable", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpNotParsable).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when the signature checks out but the
// expiry lies in the past.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpired will check for expired tokens.
func IsTokenExpired(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsSignatureMismatch will check for tampered or wrongly salted tokens.
func IsSignatureMismatch(err error) bool {
	return hasTextCode(err, TextCodeTokenSignature)
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
