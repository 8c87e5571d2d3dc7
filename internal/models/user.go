package models

import "time"

// User represents a user account in the system.
//
// RefreshToken holds the single live refresh token for the account, or nil
// when no session is active. Overwriting it revokes the previous session;
// clearing it (logout) makes any outstanding refresh token useless.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	RefreshToken *string   `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns the projection of the user that is safe to send to clients.
func (u User) Public() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

// WatchHistoryEntry is one watched movie in a user's ordered history.
type WatchHistoryEntry struct {
	MovieID   string    `json:"movieId"`
	Title     string    `json:"title"`
	WatchedAt time.Time `json:"watchedAt"`
}
