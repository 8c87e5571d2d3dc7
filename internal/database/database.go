package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", "file:"+dataSourceName+sep+"_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		refresh_token TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS movies (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		genre TEXT NOT NULL,
		duration INTEGER NOT NULL,
		poster TEXT NOT NULL,
		language TEXT NOT NULL,
		availability TEXT,
		rating_avg REAL NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT REFERENCES users(id),
		email TEXT,
		movie_id TEXT NOT NULL REFERENCES movies(id),
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Sparse uniqueness: one review per account per movie, one per guest
	-- email per movie. Partial indexes only constrain rows where the
	-- identity column is present.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_movie
		ON reviews(user_id, movie_id) WHERE user_id IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_email_movie
		ON reviews(email, movie_id) WHERE email IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_reviews_movie_created
		ON reviews(movie_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS watch_history (
		user_id TEXT NOT NULL REFERENCES users(id),
		movie_id TEXT NOT NULL REFERENCES movies(id),
		watched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		subject_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The store's constraints, not the application pre-checks, are the
// real backstop for uniqueness under concurrent inserts.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
