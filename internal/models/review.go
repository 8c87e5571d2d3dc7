package models

import (
	"regexp"
	"time"
)

// Review is a rating plus comment against a movie. Exactly one of UserID and
// Email is set: a review belongs either to a registered account or to a bare
// guest email, never both.
type Review struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	Email     *string   `json:"email,omitempty"`
	MovieID   string    `json:"movieId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`

	// Denormalized display fields, populated on reads.
	Username   string `json:"username,omitempty"`
	MovieTitle string `json:"movieTitle,omitempty"`
}

// MaxCommentLength bounds review comments.
const MaxCommentLength = 1000

// IdentityKind discriminates the two review identity channels.
type IdentityKind int

const (
	IdentityAccount IdentityKind = iota
	IdentityGuest
)

// Identity is the tagged union of the two ways a review can be attributed:
// a registered account ID or a bare email address. It is resolved once at
// the HTTP edge and passed as a single typed value.
type Identity struct {
	Kind   IdentityKind
	UserID string // set when Kind == IdentityAccount
	Email  string // set when Kind == IdentityGuest
}

// AccountIdentity builds an identity for a registered account.
func AccountIdentity(userID string) Identity {
	return Identity{Kind: IdentityAccount, UserID: userID}
}

// GuestIdentity builds an identity for a bare email address.
func GuestIdentity(email string) Identity {
	return Identity{Kind: IdentityGuest, Email: email}
}

// emailPattern is intentionally loose: local@domain with no embedded
// whitespace. Stricter validation belongs to an email round trip, not here.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
