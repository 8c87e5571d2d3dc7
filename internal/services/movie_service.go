package services

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/database"
	"github.com/cinelog/cinelog-be/internal/models"
)

// MovieUpdate carries the optional fields of a movie update; nil means leave
// unchanged.
type MovieUpdate struct {
	Title        *string
	Description  *string
	Genre        *string
	Duration     *int
	Language     *string
	Availability *string
	Poster       *string
}

// MovieServiceProvider defines the interface for movie catalogue services.
type MovieServiceProvider interface {
	CreateMovie(title, description, genre string, duration int, poster, language, availability string) (models.Movie, error)
	GetMovieByID(id string) (models.Movie, error)
	GetMovieByTitle(title string) (models.Movie, error)
	GetAllMovies() ([]models.Movie, error)
	GetMoviesByGenre(genre string) ([]models.Movie, error)
	GetMoviesByLanguage(language string) ([]models.Movie, error)
	UpdateMovie(id string, upd MovieUpdate) (models.Movie, error)
	DeleteMovie(id string) error
	RefreshRatingAggregates() error
}

// MovieService provides business logic for the movie catalogue.
type MovieService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewMovieService creates a new MovieService.
func NewMovieService(db *sql.DB, events EventServiceProvider) *MovieService {
	return &MovieService{db: db, events: events}
}

// CreateMovie adds a new catalogue entry. Titles are unique.
func (s *MovieService) CreateMovie(title, description, genre string, duration int, poster, language, availability string) (models.Movie, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	genre = strings.TrimSpace(genre)
	language = strings.TrimSpace(language)
	availability = strings.TrimSpace(availability)

	if title == "" || description == "" || genre == "" || language == "" {
		return models.Movie{}, apperr.BadRequest("all fields are required")
	}
	if !models.ValidGenre(genre) {
		return models.Movie{}, apperr.BadRequest("unknown genre: " + genre)
	}
	if duration < 1 {
		return models.Movie{}, apperr.BadRequest("duration must be a positive number of minutes")
	}
	if poster == "" {
		return models.Movie{}, apperr.BadRequest("poster is required")
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM movies WHERE title = ?", title).Scan(&exists); err != nil {
		return models.Movie{}, err
	}
	if exists > 0 {
		return models.Movie{}, apperr.Conflict("movie already exists")
	}

	id := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO movies(id, title, description, genre, duration, poster, language, availability) VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		id, title, description, genre, duration, poster, language, availability)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Movie{}, apperr.Conflict("movie already exists")
		}
		return models.Movie{}, err
	}

	s.events.CreateEvent("movie.create", "info", "Movie added: "+title, &id)

	return s.GetMovieByID(id)
}

// GetMovieByID retrieves a single movie.
func (s *MovieService) GetMovieByID(id string) (models.Movie, error) {
	return s.queryMovie("SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
}

// GetMovieByTitle retrieves a movie by exact title, case-insensitively.
func (s *MovieService) GetMovieByTitle(title string) (models.Movie, error) {
	return s.queryMovie("SELECT "+movieColumns+" FROM movies WHERE title = ? COLLATE NOCASE", strings.TrimSpace(title))
}

// GetAllMovies lists the catalogue, most recent first.
func (s *MovieService) GetAllMovies() ([]models.Movie, error) {
	return s.queryMovies("SELECT " + movieColumns + " FROM movies ORDER BY created_at DESC")
}

// GetMoviesByGenre lists movies in a genre.
func (s *MovieService) GetMoviesByGenre(genre string) ([]models.Movie, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, apperr.BadRequest("genre is required")
	}
	return s.queryMovies("SELECT "+movieColumns+" FROM movies WHERE genre = ? ORDER BY created_at DESC", genre)
}

// GetMoviesByLanguage lists movies in a language.
func (s *MovieService) GetMoviesByLanguage(language string) ([]models.Movie, error) {
	if strings.TrimSpace(language) == "" {
		return nil, apperr.BadRequest("language is required")
	}
	return s.queryMovies("SELECT "+movieColumns+" FROM movies WHERE language = ? ORDER BY created_at DESC", language)
}

// UpdateMovie applies a partial update. A changed title must stay unique.
func (s *MovieService) UpdateMovie(id string, upd MovieUpdate) (models.Movie, error) {
	movie, err := s.GetMovieByID(id)
	if err != nil {
		return models.Movie{}, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return models.Movie{}, apperr.BadRequest("title cannot be empty")
		}
		if title != movie.Title {
			var exists int
			if err := s.db.QueryRow("SELECT COUNT(1) FROM movies WHERE title = ? AND id != ?", title, id).Scan(&exists); err != nil {
				return models.Movie{}, err
			}
			if exists > 0 {
				return models.Movie{}, apperr.Conflict("movie with this title already exists")
			}
		}
		movie.Title = title
	}
	if upd.Description != nil {
		if strings.TrimSpace(*upd.Description) == "" {
			return models.Movie{}, apperr.BadRequest("description cannot be empty")
		}
		movie.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Genre != nil {
		if !models.ValidGenre(*upd.Genre) {
			return models.Movie{}, apperr.BadRequest("unknown genre: " + *upd.Genre)
		}
		movie.Genre = *upd.Genre
	}
	if upd.Duration != nil {
		if *upd.Duration < 1 {
			return models.Movie{}, apperr.BadRequest("duration must be a positive number of minutes")
		}
		movie.Duration = *upd.Duration
	}
	if upd.Language != nil {
		if strings.TrimSpace(*upd.Language) == "" {
			return models.Movie{}, apperr.BadRequest("language cannot be empty")
		}
		movie.Language = strings.TrimSpace(*upd.Language)
	}
	if upd.Availability != nil {
		movie.Availability = strings.TrimSpace(*upd.Availability)
	}
	if upd.Poster != nil {
		movie.Poster = *upd.Poster
	}

	_, err = s.db.Exec(
		"UPDATE movies SET title = ?, description = ?, genre = ?, duration = ?, poster = ?, language = ?, availability = ? WHERE id = ?",
		movie.Title, movie.Description, movie.Genre, movie.Duration, movie.Poster, movie.Language, movie.Availability, id)
	if err != nil {
		return models.Movie{}, err
	}
	return s.GetMovieByID(id)
}

// DeleteMovie removes a movie from the catalogue.
func (s *MovieService) DeleteMovie(id string) error {
	res, err := s.db.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("movie not found")
	}
	return nil
}

// RefreshRatingAggregates recomputes the denormalized rating average and
// count for every movie from the reviews table.
func (s *MovieService) RefreshRatingAggregates() error {
	_, err := s.db.Exec(`
		UPDATE movies SET
			rating_avg = COALESCE((SELECT AVG(rating) FROM reviews WHERE movie_id = movies.id), 0),
			rating_count = (SELECT COUNT(1) FROM reviews WHERE movie_id = movies.id)`)
	return err
}

const movieColumns = "id, title, description, genre, duration, poster, language, availability, rating_avg, rating_count, created_at"

func (s *MovieService) queryMovie(query string, args ...interface{}) (models.Movie, error) {
	var m models.Movie
	var availability sql.NullString
	row := s.db.QueryRow(query, args...)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.Duration, &m.Poster, &m.Language, &availability, &m.RatingAvg, &m.RatingCount, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Movie{}, apperr.NotFound("movie not found")
		}
		return models.Movie{}, err
	}
	m.Availability = availability.String
	return m, nil
}

func (s *MovieService) queryMovies(query string, args ...interface{}) ([]models.Movie, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		var availability sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.Duration, &m.Poster, &m.Language, &availability, &m.RatingAvg, &m.RatingCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Availability = availability.String
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
