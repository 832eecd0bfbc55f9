package auth

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
)

// Hash computes the keyed hash used for both password storage and token
// signing: HMAC-SHA512 over content followed by salt, encoded with
// padding-free url-safe base64. It is deterministic for identical
// (key, content, salt) inputs and has no side effects.
func Hash(key []byte, content, salt string) (string, error) {
	if len(key) == 0 {
		return "", ErrKeyFail
	}

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(content))
	mac.Write([]byte(salt))

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}
