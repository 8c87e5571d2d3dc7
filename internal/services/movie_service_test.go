package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/models"
)

func TestCreateMovie(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))

	movie, err := svc.CreateMovie("Arrival", "Aliens arrive", "Sci-Fi", 116, "/uploads/arrival.jpg", "English", "streaming")
	require.NoError(t, err)
	require.NotEmpty(t, movie.ID)
	require.Equal(t, "Arrival", movie.Title)
	require.Zero(t, movie.RatingCount)

	// Titles are unique.
	_, err = svc.CreateMovie("Arrival", "Duplicate", "Sci-Fi", 116, "/uploads/other.jpg", "English", "")
	require.True(t, apperr.IsStatus(err, http.StatusConflict), "got %v", err)
}

func TestCreateMovieValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))

	_, err := svc.CreateMovie("", "desc", "Drama", 100, "/uploads/p.jpg", "English", "")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)

	_, err = svc.CreateMovie("Title", "desc", "Documentary", 100, "/uploads/p.jpg", "English", "")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)

	_, err = svc.CreateMovie("Title", "desc", "Drama", 0, "/uploads/p.jpg", "English", "")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)

	_, err = svc.CreateMovie("Title", "desc", "Drama", 100, "", "English", "")
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)
}

func TestGetMovieByTitleIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))
	seedMovie(t, db, "Arrival")

	movie, err := svc.GetMovieByTitle("arrival")
	require.NoError(t, err)
	require.Equal(t, "Arrival", movie.Title)

	_, err = svc.GetMovieByTitle("Nonexistent")
	require.True(t, apperr.IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestMovieListings(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))
	seedMovie(t, db, "Arrival")
	seedMovie(t, db, "Dune")

	all, err := svc.GetAllMovies()
	require.NoError(t, err)
	require.Len(t, all, 2)

	byGenre, err := svc.GetMoviesByGenre("Drama")
	require.NoError(t, err)
	require.Len(t, byGenre, 2)

	byLanguage, err := svc.GetMoviesByLanguage("French")
	require.NoError(t, err)
	require.Empty(t, byLanguage)
}

func TestUpdateMovie(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))
	movie := seedMovie(t, db, "Arrival")
	seedMovie(t, db, "Dune")

	title := "Arrival (Director's Cut)"
	duration := 130
	updated, err := svc.UpdateMovie(movie.ID, MovieUpdate{Title: &title, Duration: &duration})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, 130, updated.Duration)
	// Untouched fields survive.
	require.Equal(t, movie.Language, updated.Language)
	require.Equal(t, movie.Poster, updated.Poster)

	// Renaming onto an existing title is a conflict.
	clash := "Dune"
	_, err = svc.UpdateMovie(movie.ID, MovieUpdate{Title: &clash})
	require.True(t, apperr.IsStatus(err, http.StatusConflict), "got %v", err)

	badGenre := "Documentary"
	_, err = svc.UpdateMovie(movie.ID, MovieUpdate{Genre: &badGenre})
	require.True(t, apperr.IsStatus(err, http.StatusBadRequest), "got %v", err)

	_, err = svc.UpdateMovie("no-such-movie", MovieUpdate{})
	require.True(t, apperr.IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestDeleteMovie(t *testing.T) {
	db := newTestDB(t)
	svc := NewMovieService(db, NewEventService(db))
	movie := seedMovie(t, db, "Arrival")

	require.NoError(t, svc.DeleteMovie(movie.ID))

	err := svc.DeleteMovie(movie.ID)
	require.True(t, apperr.IsStatus(err, http.StatusNotFound), "got %v", err)
}

func TestRefreshRatingAggregates(t *testing.T) {
	db := newTestDB(t)
	movies := NewMovieService(db, NewEventService(db))
	reviews := NewReviewService(db, NewEventService(db))
	movie := seedMovie(t, db, "Arrival")

	_, err := reviews.CreateReview(models.GuestIdentity("a@x.com"), movie.ID, 5, "great")
	require.NoError(t, err)
	_, err = reviews.CreateReview(models.GuestIdentity("b@x.com"), movie.ID, 2, "meh")
	require.NoError(t, err)

	require.NoError(t, movies.RefreshRatingAggregates())

	got, err := movies.GetMovieByID(movie.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.RatingCount)
	require.InDelta(t, 3.5, got.RatingAvg, 0.001)
}
