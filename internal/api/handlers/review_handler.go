package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/models"
	"github.com/cinelog/cinelog-be/internal/services"
	ws "github.com/cinelog/cinelog-be/internal/websocket"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service services.ReviewServiceProvider
	hub     *ws.Hub
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service services.ReviewServiceProvider, hub *ws.Hub) *ReviewHandler {
	return &ReviewHandler{service: service, hub: hub}
}

// CreateReviewPayload defines the structure for review submissions. Exactly
// one of userId and email attributes the review. Rating is decoded as a
// json.Number so non-integer values can be rejected.
type CreateReviewPayload struct {
	UserID  string      `json:"userId"`
	Email   string      `json:"email"`
	MovieID string      `json:"movieId"`
	Rating  json.Number `json:"rating"`
	Comment string      `json:"comment"`
}

// Create handles review submission. The identity channel is resolved here,
// once, into a typed value.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateReviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	var identity models.Identity
	switch {
	case payload.UserID != "" && payload.Email != "":
		writeError(w, r, apperr.BadRequest("provide either userId or email, not both"))
		return
	case payload.UserID != "":
		identity = models.AccountIdentity(payload.UserID)
	case payload.Email != "":
		identity = models.GuestIdentity(payload.Email)
	default:
		writeError(w, r, apperr.BadRequest("either userId or email is required"))
		return
	}

	rating, err := payload.Rating.Int64()
	if err != nil {
		writeError(w, r, apperr.BadRequest("rating must be an integer between 1 and 5"))
		return
	}

	review, err := h.service.CreateReview(identity, payload.MovieID, int(rating), payload.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.hub.BroadcastMovie(review.MovieID, ws.NewMessage("review.created", review))

	writeJSON(w, http.StatusCreated, review)
}

// GetByMovie lists reviews for a movie.
func (h *ReviewHandler) GetByMovie(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetReviewsByMovie(chi.URLParam(r, "movieId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetByUser lists reviews written by a registered user.
func (h *ReviewHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetReviewsByUser(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetByEmail lists reviews written under a guest email.
func (h *ReviewHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetReviewsByEmail(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetAll lists every review.
func (h *ReviewHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetAllReviews()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetByRating lists reviews with a given rating, optionally filtered by
// movieId, userId or email query parameters.
func (h *ReviewHandler) GetByRating(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rating, err := strconv.Atoi(q.Get("rating"))
	if err != nil {
		writeError(w, r, apperr.BadRequest("rating must be a number between 1 and 5"))
		return
	}

	reviews, err := h.service.GetReviewsByRating(rating, services.ReviewFilter{
		MovieID: q.Get("movieId"),
		UserID:  q.Get("userId"),
		Email:   q.Get("email"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Delete removes a review by ID.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReview(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
