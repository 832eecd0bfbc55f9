package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Token is a self-contained bearer token: who, until when, and a
// signature binding both to a per-user salt. Identity and expiry travel
// in the token itself so no server-side session lookup is needed;
// rotating the user's token salt invalidates every token issued with it,
// which is the sole revocation mechanism of this scheme.
type Token struct {
	Ident string
	Exp   string
	Sign  string
}

// String serializes the token to its wire format:
// b64u(ident).b64u(exp).signature. The signature segment is already
// encoded text and is emitted verbatim.
func (t Token) String() string {
	return fmt.Sprintf("%s.%s.%s", encodeSegment(t.Ident), encodeSegment(t.Exp), t.Sign)
}

// ParseToken splits a wire-format token back into its parts.
func ParseToken(raw string) (Token, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return Token{}, ErrTokenInvalidFormat
	}

	ident, err := decodeSegment(segments[0])
	if err != nil {
		return Token{}, ErrTokenCannotDecodeIdent
	}

	exp, err := decodeSegment(segments[1])
	if err != nil {
		return Token{}, ErrTokenCannotDecodeExp
	}

	return Token{
		Ident: ident,
		Exp:   exp,
		Sign:  segments[2],
	}, nil
}

// GenerateToken creates a signed token for ident, expiring duration from
// now. The signature is bound to the caller-supplied salt so tokens from
// different users never verify against each other.
func GenerateToken(ident string, duration time.Duration, salt string, key []byte) (Token, error) {
	// RFC3339Nano keeps sub-second expiries meaningful; plain RFC3339
	// formatting would truncate them to the previous whole second.
	exp := time.Now().UTC().Add(duration).Format(time.RFC3339Nano)

	sign, err := signToken(ident, exp, salt, key)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Ident: ident,
		Exp:   exp,
		Sign:  sign,
	}, nil
}

// ValidateToken recomputes the signature for the token's ident/exp with
// the given salt and key, then checks the expiry. Order matters: a
// tampered token is rejected before its expiry is even parsed.
func ValidateToken(tok Token, salt string, key []byte) error {
	sign, err := signToken(tok.Ident, tok.Exp, salt, key)
	if err != nil {
		return err
	}

	if sign != tok.Sign {
		return ErrTokenSignatureNotMatching
	}

	exp, err := time.Parse(time.RFC3339, tok.Exp)
	if err != nil {
		return ErrTokenExpNotParseable
	}

	if exp.Before(time.Now().UTC()) {
		return ErrTokenExpired
	}

	return nil
}

func signToken(ident, exp, salt string, key []byte) (string, error) {
	content := fmt.Sprintf("%s.%s", encodeSegment(ident), encodeSegment(exp))
	return Hash(key, content, salt)
}

func encodeSegment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decodeSegment(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
