package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// Config is the process configuration, loaded once at startup and
// passed explicitly to the components that need it. Nothing reads the
// environment after FromEnv returns.
type Config struct {
	// PwdKey signs password hashes, TokenKey signs bearer tokens.
	// Distinct keys so either can be rotated alone.
	PwdKey   []byte
	TokenKey []byte

	// TokenDuration is how long issued tokens stay valid.
	TokenDuration time.Duration

	DBURL          string
	DBMaxOpenConns int

	WebAddr string
}

// FromEnv reads the configuration from the environment. Key material
// arrives base64url encoded; the token duration is fractional seconds.
func FromEnv() (*Config, error) {
	pwdKey, err := envB64u("SERVICE_PWD_KEY")
	if err != nil {
		return nil, err
	}

	tokenKey, err := envB64u("SERVICE_TOKEN_KEY")
	if err != nil {
		return nil, err
	}

	durationSec, err := envFloat("SERVICE_TOKEN_DURATION_SEC")
	if err != nil {
		return nil, err
	}

	dbURL, err := env("SERVICE_DB_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PwdKey:         pwdKey,
		TokenKey:       tokenKey,
		TokenDuration:  time.Duration(durationSec * float64(time.Second)),
		DBURL:          dbURL,
		DBMaxOpenConns: 10,
		WebAddr:        ":8080",
	}

	if addr := os.Getenv("SERVICE_WEB_ADDR"); addr != "" {
		cfg.WebAddr = addr
	}

	if conns := os.Getenv("SERVICE_DB_MAX_OPEN_CONNS"); conns != "" {
		n, err := strconv.Atoi(conns)
		if err != nil {
			return nil, wrongFormat("SERVICE_DB_MAX_OPEN_CONNS")
		}
		cfg.DBMaxOpenConns = n
	}

	return cfg, nil
}

func env(name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", errors.New(fmt.Sprintf("missing required env %s", name), errors.CategoryInternal).
			WithTextCode("config_missing_env")
	}
	return val, nil
}

func envB64u(name string) ([]byte, error) {
	val, err := env(name)
	if err != nil {
		return nil, err
	}

	decoded, err := base64.RawURLEncoding.DecodeString(val)
	if err != nil {
		return nil, wrongFormat(name)
	}
	return decoded, nil
}

func envFloat(name string) (float64, error) {
	val, err := env(name)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, wrongFormat(name)
	}
	return f, nil
}

func wrongFormat(name string) *errors.Error {
	return errors.New(fmt.Sprintf("env %s has wrong format", name), errors.CategoryInternal).
		WithTextCode("config_wrong_format")
}
