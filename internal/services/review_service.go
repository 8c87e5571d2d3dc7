package services

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/database"
	"github.com/cinelog/cinelog-be/internal/models"
)

// ReviewFilter narrows the by-rating listing.
type ReviewFilter struct {
	MovieID string
	UserID  string
	Email   string
}

// ReviewServiceProvider defines the interface for review services.
type ReviewServiceProvider interface {
	CreateReview(identity models.Identity, movieID string, rating int, comment string) (models.Review, error)
	GetReviewsByMovie(movieID string) ([]models.Review, error)
	GetReviewsByUser(userID string) ([]models.Review, error)
	GetReviewsByEmail(email string) ([]models.Review, error)
	GetAllReviews() ([]models.Review, error)
	GetReviewsByRating(rating int, filter ReviewFilter) ([]models.Review, error)
	DeleteReview(id string) error
}

// ReviewService resolves review identity and enforces the one-review-per-
// identity-per-movie rule. A review binds to exactly one identity channel:
// a registered account or a bare guest email.
type ReviewService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewReviewService creates a new ReviewService.
func NewReviewService(db *sql.DB, events EventServiceProvider) *ReviewService {
	return &ReviewService{db: db, events: events}
}

// CreateReview validates the submission and persists it under the supplied
// identity channel. The sparse unique indexes back up the duplicate
// pre-check under concurrent submissions.
func (s *ReviewService) CreateReview(identity models.Identity, movieID string, rating int, comment string) (models.Review, error) {
	comment = strings.TrimSpace(comment)

	if movieID == "" || comment == "" {
		return models.Review{}, apperr.BadRequest("movieId, rating, and comment are required")
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, apperr.BadRequest("rating must be an integer between 1 and 5")
	}
	if len(comment) > models.MaxCommentLength {
		return models.Review{}, apperr.BadRequest("comment must be at most 1000 characters")
	}

	review := models.Review{
		ID:      uuid.New().String(),
		MovieID: movieID,
		Rating:  rating,
		Comment: comment,
	}

	switch identity.Kind {
	case models.IdentityAccount:
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE id = ?", identity.UserID).Scan(&exists); err != nil {
			return models.Review{}, err
		}
		if exists == 0 {
			return models.Review{}, apperr.NotFound("user not found")
		}
		review.UserID = &identity.UserID
	case models.IdentityGuest:
		email := strings.ToLower(strings.TrimSpace(identity.Email))
		if !models.ValidEmail(email) {
			return models.Review{}, apperr.BadRequest("please provide a valid email address")
		}
		review.Email = &email
	}

	var movieExists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM movies WHERE id = ?", movieID).Scan(&movieExists); err != nil {
		return models.Review{}, err
	}
	if movieExists == 0 {
		return models.Review{}, apperr.NotFound("movie not found")
	}

	if err := s.checkDuplicate(review); err != nil {
		return models.Review{}, err
	}

	_, err := s.db.Exec(
		"INSERT INTO reviews(id, user_id, email, movie_id, rating, comment) VALUES(?, ?, ?, ?, ?, ?)",
		review.ID, review.UserID, review.Email, review.MovieID, review.Rating, review.Comment)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Review{}, apperr.Conflict("you have already reviewed this movie")
		}
		return models.Review{}, err
	}

	s.events.CreateEvent("review.create", "info", "Review created for movie "+movieID, &review.ID)

	return s.getReviewByID(review.ID)
}

func (s *ReviewService) checkDuplicate(review models.Review) error {
	var query string
	var arg interface{}
	if review.UserID != nil {
		query = "SELECT COUNT(1) FROM reviews WHERE user_id = ? AND movie_id = ?"
		arg = *review.UserID
	} else {
		query = "SELECT COUNT(1) FROM reviews WHERE email = ? AND movie_id = ?"
		arg = *review.Email
	}

	var count int
	if err := s.db.QueryRow(query, arg, review.MovieID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("you have already reviewed this movie")
	}
	return nil
}

const reviewSelect = `
	SELECT r.id, r.user_id, r.email, r.movie_id, r.rating, r.comment, r.created_at,
	       COALESCE(u.username, ''), COALESCE(m.title, '')
	FROM reviews r
	LEFT JOIN users u ON r.user_id = u.id
	LEFT JOIN movies m ON r.movie_id = m.id`

// GetReviewsByMovie lists reviews for a movie, most recent first.
func (s *ReviewService) GetReviewsByMovie(movieID string) ([]models.Review, error) {
	return s.queryReviews(reviewSelect+" WHERE r.movie_id = ? ORDER BY r.created_at DESC", movieID)
}

// GetReviewsByUser lists all reviews written by a registered user.
func (s *ReviewService) GetReviewsByUser(userID string) ([]models.Review, error) {
	return s.queryReviews(reviewSelect+" WHERE r.user_id = ? ORDER BY r.created_at DESC", userID)
}

// GetReviewsByEmail lists all reviews written under a guest email.
func (s *ReviewService) GetReviewsByEmail(email string) ([]models.Review, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !models.ValidEmail(email) {
		return nil, apperr.BadRequest("please provide a valid email address")
	}
	return s.queryReviews(reviewSelect+" WHERE r.email = ? ORDER BY r.created_at DESC", email)
}

// GetAllReviews lists every review, most recent first.
func (s *ReviewService) GetAllReviews() ([]models.Review, error) {
	return s.queryReviews(reviewSelect + " ORDER BY r.created_at DESC")
}

// GetReviewsByRating lists reviews with the given rating, optionally narrowed
// by movie, user or guest email.
func (s *ReviewService) GetReviewsByRating(rating int, filter ReviewFilter) ([]models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.BadRequest("rating must be a number between 1 and 5")
	}
	if filter.Email != "" && !models.ValidEmail(filter.Email) {
		return nil, apperr.BadRequest("please provide a valid email address")
	}

	query := reviewSelect + " WHERE r.rating = ?"
	args := []interface{}{rating}
	if filter.MovieID != "" {
		query += " AND r.movie_id = ?"
		args = append(args, filter.MovieID)
	}
	if filter.UserID != "" {
		query += " AND r.user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Email != "" {
		query += " AND r.email = ?"
		args = append(args, strings.ToLower(filter.Email))
	}
	query += " ORDER BY r.created_at DESC"

	return s.queryReviews(query, args...)
}

// DeleteReview removes a review by ID.
func (s *ReviewService) DeleteReview(id string) error {
	res, err := s.db.Exec("DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("review not found")
	}
	return nil
}

func (s *ReviewService) getReviewByID(id string) (models.Review, error) {
	reviews, err := s.queryReviews(reviewSelect+" WHERE r.id = ?", id)
	if err != nil {
		return models.Review{}, err
	}
	if len(reviews) == 0 {
		return models.Review{}, apperr.NotFound("review not found")
	}
	return reviews[0], nil
}

func (s *ReviewService) queryReviews(query string, args ...interface{}) ([]models.Review, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		var userID, email sql.NullString
		if err := rows.Scan(&r.ID, &userID, &email, &r.MovieID, &r.Rating, &r.Comment, &r.CreatedAt, &r.Username, &r.MovieTitle); err != nil {
			return nil, err
		}
		if userID.Valid {
			r.UserID = &userID.String
		}
		if email.Valid {
			r.Email = &email.String
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
