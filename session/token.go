package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotSignedIn signals that no token is stored.
var ErrNotSignedIn = errors.New("session: not signed in")

// TokenInfo is what the client can read from its own bearer token.
type TokenInfo struct {
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// TokenInfo decodes the claims of the stored token without verifying its
// signature; only the backend can do that. Opaque tokens yield an error.
func (c *Controller) TokenInfo(ctx context.Context) (TokenInfo, error) {
	token, err := c.store.Token(ctx)
	if err != nil {
		return TokenInfo{}, err
	}
	if token == "" {
		return TokenInfo{}, ErrNotSignedIn
	}
	return ParseTokenInfo(token)
}

// ParseTokenInfo decodes the claims of a JWT without verifying it.
func ParseTokenInfo(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("session: decode token: %w", err)
	}

	var info TokenInfo
	info.UserID = claimString(claims, "user_id")
	if info.UserID == "" {
		info.UserID, _ = claims.GetSubject()
	}
	info.Role = claimString(claims, "user_type")
	if info.Role == "" {
		info.Role = claimString(claims, "role")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
