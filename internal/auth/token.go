package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by Valid for a token past its expiry.
var ErrTokenExpired = errors.New("access token expired, run `alter login`")

// The signature is AniList's to check; only the payload is read here.
func claims(token string) (*jwt.RegisteredClaims, error) {
	c := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}
	return c, nil
}

// Expiry returns the token expiry. ok is false when the token has none.
func Expiry(token string) (exp time.Time, ok bool, err error) {
	c, err := claims(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if c.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return c.ExpiresAt.Time, true, nil
}

// UserID returns the AniList user id carried in the subject claim.
func UserID(token string) (int, error) {
	c, err := claims(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, fmt.Errorf("access token subject %q is not a user id", c.Subject)
	}
	return id, nil
}

// Valid reports an error when token is malformed or expired at now.
func Valid(token string, now time.Time) error {
	exp, ok, err := Expiry(token)
	if err != nil {
		return err
	}
	if ok && !now.Before(exp) {
		return fmt.Errorf("%w on %s", ErrTokenExpired, exp.Format(time.DateOnly))
	}
	return nil
}
