package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinelog/cinelog-be/internal/models"
)

// Token verification failures, mapped from the jwt library's cases so callers
// can distinguish expiry from a bad signature or garbage input.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenMalformed = errors.New("malformed token")
)

// AccessClaims are embedded in short-lived access tokens.
type AccessClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in refresh tokens. TokenVersion is reserved for
// bulk invalidation.
type RefreshClaims struct {
	UserID       string `json:"userId"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies the two token kinds. Access and refresh
// tokens are signed with separate secrets, so a refresh token can never pass
// access-token verification or vice versa.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with explicit secrets and lifetimes.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (ti *TokenIssuer) AccessTTL() time.Duration { return ti.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

// IssueAccess creates a signed access token for the given user.
func (ti *TokenIssuer) IssueAccess(user models.User) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.accessSecret)
}

// IssueRefresh creates a signed refresh token for the given user.
func (ti *TokenIssuer) IssueRefresh(user models.User) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.refreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.refreshSecret)
}

// VerifyAccess parses and validates an access token string.
func (ti *TokenIssuer) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ti.verify(tokenStr, claims, ti.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token string.
func (ti *TokenIssuer) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ti.verify(tokenStr, claims, ti.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ti *TokenIssuer) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrTokenMalformed
		default:
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
