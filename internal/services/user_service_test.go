package services

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/auth"
)

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())

	user, err := svc.Register("Alice ", " A@X.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "a@x.com", user.Email)
	require.Empty(t, user.PasswordHash)
	require.Nil(t, user.RefreshToken)

	// The stored password is hashed, never the plaintext.
	var stored string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&stored))
	require.NotEmpty(t, stored)
	require.NotEqual(t, "secret1", stored)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())

	cases := []struct {
		name                      string
		username, email, password string
	}{
		{"empty username", "", "a@x.com", "secret1"},
		{"blank username", "   ", "a@x.com", "secret1"},
		{"empty email", "alice", "", "secret1"},
		{"empty password", "alice", "a@x.com", ""},
		{"invalid email", "alice", "not-an-email", "secret1"},
		{"email with spaces", "alice", "a b@x.com", "secret1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.username, tc.email, tc.password)
			require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, err := svc.Register("alice", "other@x.com", "secret1")
	require.True(t, apperr.IsStatus(err, http.StatusConflict), "got %v", err)

	_, err = svc.Register("bob", "a@x.com", "secret1")
	require.True(t, apperr.IsStatus(err, http.StatusConflict), "got %v", err)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	issuer := testIssuer()
	svc := newUserService(t, db, issuer)
	registered := seedUser(t, svc, "alice", "a@x.com", "secret1")

	user, pair, err := svc.Login("alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	// Access token is real and carries the account identity.
	claims, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.ID, claims.UserID)

	// Refresh token is persisted byte-for-byte on the account.
	var stored sql.NullString
	require.NoError(t, db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", registered.ID).Scan(&stored))
	require.True(t, stored.Valid)
	require.Equal(t, pair.RefreshToken, stored.String)

	// Email works as identifier too.
	_, _, err = svc.Login("a@x.com", "secret1")
	require.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, _, err := svc.Login("nobody", "secret1")
	require.True(t, apperr.IsStatus(err, http.StatusNotFound), "got %v", err)

	_, _, err = svc.Login("alice", "wrong")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)

	_, _, err = svc.Login("", "")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)
}

func TestLoginOverwritesPreviousRefreshToken(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, first, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	// Tokens embed issued-at seconds; make sure the second login differs.
	time.Sleep(1100 * time.Millisecond)

	_, second, err := svc.Login("alice", "secret1")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first session's refresh token was revoked by the second login.
	_, err = svc.Refresh(first.RefreshToken)
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestRefreshRotation(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, pair, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	rotated, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The rotated token is what is stored now.
	var stored sql.NullString
	require.NoError(t, db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", user.ID).Scan(&stored))
	require.Equal(t, rotated.RefreshToken, stored.String)

	// Replaying the pre-rotation token fails.
	_, err = svc.Refresh(pair.RefreshToken)
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
	require.EqualError(t, err, "refresh token is expired or used")

	// The rotated token still works.
	time.Sleep(1100 * time.Millisecond)
	_, err = svc.Refresh(rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, err := svc.Refresh("")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)

	_, err = svc.Refresh("not.a.jwt")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)

	// A token signed with an unknown secret is rejected.
	forged := auth.NewTokenIssuer("access-secret", "forged-secret", 15*time.Minute, time.Hour)
	svc2 := newUserService(t, db, forged)
	_, forgedPair, err := svc2.Login("alice", "secret1")
	require.NoError(t, err)
	_, err = svc.Refresh(forgedPair.RefreshToken)
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestRefreshExpired(t *testing.T) {
	db := newTestDB(t)
	// Refresh tokens are already expired the moment they are issued.
	expired := auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, -time.Second)
	svc := newUserService(t, db, expired)
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, pair, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Refresh(pair.RefreshToken)
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
	require.EqualError(t, err, "refresh token expired")
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, pair, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(user.ID))

	// The stored slot is unset, not empty.
	var stored sql.NullString
	require.NoError(t, db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", user.ID).Scan(&stored))
	require.False(t, stored.Valid)

	_, err = svc.Refresh(pair.RefreshToken)
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)

	// Logout of an already logged-out account still succeeds.
	require.NoError(t, svc.Logout(user.ID))
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")

	var before string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&before))

	// Wrong old password fails and leaves the hash unchanged.
	err := svc.ChangePassword(user.ID, "wrong", "secret2")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)

	var after string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&after))
	require.Equal(t, before, after)

	// Correct old password swaps the credential.
	require.NoError(t, svc.ChangePassword(user.ID, "secret1", "secret2"))

	_, _, err = svc.Login("alice", "secret1")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
	_, _, err = svc.Login("alice", "secret2")
	require.NoError(t, err)
}

func TestChangePasswordKeepsRefreshToken(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, pair, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(user.ID, "secret1", "secret2"))

	var stored sql.NullString
	require.NoError(t, db.QueryRow("SELECT refresh_token FROM users WHERE id = ?", user.ID).Scan(&stored))
	require.True(t, stored.Valid)
	require.Equal(t, pair.RefreshToken, stored.String)
}

func TestUpdateAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")
	seedUser(t, svc, "bob", "b@x.com", "secret1")

	updated, err := svc.UpdateAccount(user.ID, "Alice2", "a2@x.com")
	require.NoError(t, err)
	require.Equal(t, "alice2", updated.Username)
	require.Equal(t, "a2@x.com", updated.Email)

	_, err = svc.UpdateAccount(user.ID, "bob", "a2@x.com")
	require.True(t, apperr.IsStatus(err, http.StatusConflict), "got %v", err)

	_, err = svc.UpdateAccount(user.ID, "", "a2@x.com")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)
}

func TestLoginRateLimited(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db,
		auth.NewHasher(4),
		testIssuer(),
		auth.NewLoginLimiter(1, 2),
		NewEventService(db),
	)
	seedUser(t, svc, "alice", "a@x.com", "secret1")

	_, _, err := svc.Login("alice", "wrong")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
	_, _, err = svc.Login("alice", "wrong")
	require.True(t, apperr.IsStatus(err, http.StatusUnauthorized), "got %v", err)
	_, _, err = svc.Login("alice", "secret1")
	require.True(t, apperr.IsStatus(err, http.StatusTooManyRequests), "got %v", err)
}

func TestWatchHistory(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(t, db, testIssuer())
	user := seedUser(t, svc, "alice", "a@x.com", "secret1")
	movie := seedMovie(t, db, "Arrival")

	require.NoError(t, svc.AddWatchHistory(user.ID, movie.ID))

	err := svc.AddWatchHistory(user.ID, "no-such-movie")
	require.True(t, apperr.IsStatus(err, http.StatusNotFound), "got %v", err)

	entries, err := svc.GetWatchHistory(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, movie.ID, entries[0].MovieID)
	require.Equal(t, "Arrival", entries[0].Title)
}
