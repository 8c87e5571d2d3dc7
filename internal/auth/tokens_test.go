package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog-be/internal/models"
)

func testUser() models.User {
	return models.User{ID: "user-123", Username: "alice", Email: "a@x.com"}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	tok, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "a@x.com", claims.Email)
	require.NotNil(t, claims.IssuedAt)
}

func TestIssueAndVerifyRefresh(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	tok, err := issuer.IssueRefresh(testUser())
	require.NoError(t, err)

	claims, err := issuer.VerifyRefresh(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", -time.Second, -time.Second)

	tok, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	other := NewTokenIssuer("other-secret", "another-secret", time.Hour, 24*time.Hour)

	tok, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = other.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongKind(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	refresh, err := issuer.IssueRefresh(testUser())
	require.NoError(t, err)
	access, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	// The two kinds are signed with different secrets, so each fails the
	// other's verification.
	_, err = issuer.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrTokenInvalid)
	_, err = issuer.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	_, err := issuer.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, err = issuer.VerifyRefresh("")
	require.ErrorIs(t, err, ErrTokenMalformed)
}
