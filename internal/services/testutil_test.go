package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinelog/cinelog-be/internal/auth"
	"github.com/cinelog/cinelog-be/internal/database"
	"github.com/cinelog/cinelog-be/internal/models"
)

// newTestDB opens a fresh shared in-memory database with the full schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

// newUserService builds a UserService wired to the given DB, with a cheap
// hash cost and a limiter generous enough not to interfere.
func newUserService(t *testing.T, db *sql.DB, issuer *auth.TokenIssuer) *UserService {
	t.Helper()
	return NewUserService(db,
		auth.NewHasher(bcrypt.MinCost),
		issuer,
		auth.NewLoginLimiter(600, 100),
		NewEventService(db),
	)
}

// seedMovie inserts a movie and returns it.
func seedMovie(t *testing.T, db *sql.DB, title string) models.Movie {
	t.Helper()

	svc := NewMovieService(db, NewEventService(db))
	movie, err := svc.CreateMovie(title, "A film about "+title, "Drama", 120, "/uploads/"+title+".jpg", "English", "streaming")
	require.NoError(t, err)
	return movie
}

// seedUser registers an account and returns it.
func seedUser(t *testing.T, svc *UserService, username, email, password string) models.User {
	t.Helper()

	user, err := svc.Register(username, email, password)
	require.NoError(t, err)
	return user
}
