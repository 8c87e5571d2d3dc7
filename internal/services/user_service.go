package services

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/auth"
	"github.com/cinelog/cinelog-be/internal/database"
	"github.com/cinelog/cinelog-be/internal/models"
)

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserServiceProvider defines the interface for user/session services.
type UserServiceProvider interface {
	Register(username, email, password string) (models.User, error)
	Login(identifier, password string) (models.User, TokenPair, error)
	Refresh(refreshToken string) (TokenPair, error)
	Logout(userID string) error
	ChangePassword(userID, oldPassword, newPassword string) error
	GetUserByID(id string) (models.User, error)
	UpdateAccount(id, username, email string) (models.User, error)
	AddWatchHistory(userID, movieID string) error
	GetWatchHistory(userID string) ([]models.WatchHistoryEntry, error)
}

// UserService orchestrates the account and session lifecycle: registration,
// login, refresh-token rotation, logout and password changes. The users table
// is the single source of truth; the refresh_token column holds at most one
// live token per account.
type UserService struct {
	db      *sql.DB
	hasher  *auth.Hasher
	tokens  *auth.TokenIssuer
	limiter *auth.LoginLimiter
	events  EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, hasher *auth.Hasher, tokens *auth.TokenIssuer, limiter *auth.LoginLimiter, events EventServiceProvider) *UserService {
	return &UserService{db: db, hasher: hasher, tokens: tokens, limiter: limiter, events: events}
}

// Register creates a new account. Username and email are trimmed and
// lowercased; both must be unused.
func (s *UserService) Register(username, email, password string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if username == "" || email == "" || password == "" {
		return models.User{}, apperr.BadRequest("all fields are required")
	}
	if !models.ValidEmail(email) {
		return models.User{}, apperr.BadRequest("please provide a valid email address")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE username = ? OR email = ?", username, email).Scan(&exists)
	if err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, apperr.Conflict("user with this username or email already exists")
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return models.User{}, apperr.Internal("failed to hash password")
	}

	id := uuid.New().String()
	_, err = s.db.Exec("INSERT INTO users(id, username, email, password_hash) VALUES(?, ?, ?, ?)",
		id, username, email, hashed)
	if err != nil {
		// The unique indexes are the real backstop for concurrent registrations.
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("user with this username or email already exists")
		}
		return models.User{}, err
	}

	s.events.CreateEvent("user.register", "info", "User registered: "+username, &id)

	return s.GetUserByID(id)
}

// Login authenticates by username or email and mints a fresh token pair. The
// new refresh token overwrites any stored one, revoking the previous session.
func (s *UserService) Login(identifier, password string) (models.User, TokenPair, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return models.User{}, TokenPair{}, apperr.BadRequest("username or email and password are required")
	}

	if !s.limiter.Allow(identifier) {
		return models.User{}, TokenPair{}, apperr.TooManyRequests("too many login attempts, try again later")
	}

	user, err := s.getUserByIdentifier(identifier)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	pair, err := s.issueAndStoreTokens(user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	s.events.CreateEvent("user.login", "info", "User logged in: "+user.Username, &user.ID)

	return user.Public(), pair, nil
}

// Refresh rotates the refresh token: the presented token must match the
// stored one byte for byte, and the rotation is a compare-and-swap so a
// concurrently used or already rotated token loses.
func (s *UserService) Refresh(refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, apperr.Unauthorized("no refresh token provided")
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if err == auth.ErrTokenExpired {
			return TokenPair{}, apperr.Unauthorized("refresh token expired")
		}
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	user, stored, err := s.getUserWithRefreshToken(claims.UserID)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token: user not found")
	}

	if stored == nil || *stored != refreshToken {
		return TokenPair{}, apperr.Unauthorized("refresh token is expired or used")
	}

	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate tokens")
	}
	newRefreshToken, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate tokens")
	}

	res, err := s.db.Exec(
		"UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND refresh_token = ?",
		newRefreshToken, user.ID, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return TokenPair{}, err
	}
	if rows == 0 {
		// Lost the race against another refresh or a logout.
		return TokenPair{}, apperr.Unauthorized("refresh token is expired or used")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout clears the stored refresh token so a later refresh attempt finds no
// match. It succeeds regardless of prior session state.
func (s *UserService) Logout(userID string) error {
	_, err := s.db.Exec("UPDATE users SET refresh_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?", userID)
	return err
}

// ChangePassword verifies the old password, then re-hashes and stores the new
// one. The refresh token is left untouched.
func (s *UserService) ChangePassword(userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.BadRequest("new password is required")
	}

	var storedHash string
	err := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", userID).Scan(&storedHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperr.NotFound("user not found")
		}
		return err
	}

	if !s.hasher.Verify(oldPassword, storedHash) {
		return apperr.BadRequest("invalid old password")
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash new password")
		return apperr.Internal("failed to hash password")
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", hashed, userID)
	return err
}

// GetUserByID retrieves the public projection of a user.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateAccount updates the username and email of an account.
func (s *UserService) UpdateAccount(id, username, email string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return models.User{}, apperr.BadRequest("all fields are required")
	}
	if !models.ValidEmail(email) {
		return models.User{}, apperr.BadRequest("please provide a valid email address")
	}

	_, err := s.db.Exec("UPDATE users SET username = ?, email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		username, email, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("username or email already in use")
		}
		return models.User{}, err
	}
	return s.GetUserByID(id)
}

// AddWatchHistory appends a movie to the user's watch history.
func (s *UserService) AddWatchHistory(userID, movieID string) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM movies WHERE id = ?", movieID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return apperr.NotFound("movie not found")
	}
	_, err := s.db.Exec("INSERT INTO watch_history(user_id, movie_id) VALUES(?, ?)", userID, movieID)
	return err
}

// GetWatchHistory lists the user's watch history, most recent first.
func (s *UserService) GetWatchHistory(userID string) ([]models.WatchHistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT w.movie_id, m.title, w.watched_at
		FROM watch_history w JOIN movies m ON w.movie_id = m.id
		WHERE w.user_id = ? ORDER BY w.watched_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(&e.MovieID, &e.Title, &e.WatchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// getUserByIdentifier loads a user by username or email, including the
// password hash.
func (s *UserService) getUserByIdentifier(identifier string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(`
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE username = ? OR email = ?`, identifier, identifier)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserWithRefreshToken loads a user plus the stored refresh token.
func (s *UserService) getUserWithRefreshToken(id string) (models.User, *string, error) {
	var user models.User
	var stored sql.NullString
	row := s.db.QueryRow(`
		SELECT id, username, email, refresh_token, created_at, updated_at
		FROM users WHERE id = ?`, id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &stored, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, nil, err
	}
	if stored.Valid {
		return user, &stored.String, nil
	}
	return user, nil, nil
}

// issueAndStoreTokens mints both tokens and persists the refresh token on the
// account, overwriting any previous value.
func (s *UserService) issueAndStoreTokens(user models.User) (TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate access token")
		return TokenPair{}, apperr.Internal("failed to generate tokens")
	}
	refreshToken, err := s.tokens.IssueRefresh(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate refresh token")
		return TokenPair{}, apperr.Internal("failed to generate tokens")
	}

	_, err = s.db.Exec("UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		refreshToken, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
