package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/services"
	ws "github.com/cinelog/cinelog-be/internal/websocket"
)

// maxPosterBytes bounds poster uploads.
const maxPosterBytes = 10 << 20 // 10 MB

// MovieHandler handles HTTP requests for the movie catalogue.
type MovieHandler struct {
	service    services.MovieServiceProvider
	hub        *ws.Hub
	uploadPath string
}

// NewMovieHandler creates a new MovieHandler. Poster images are written
// under uploadPath and served from /uploads/.
func NewMovieHandler(service services.MovieServiceProvider, hub *ws.Hub, uploadPath string) *MovieHandler {
	return &MovieHandler{service: service, hub: hub, uploadPath: uploadPath}
}

// Create handles multipart movie creation with a required poster image.
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPosterBytes); err != nil {
		writeError(w, r, apperr.BadRequest("invalid multipart form"))
		return
	}

	duration, err := strconv.Atoi(r.FormValue("duration"))
	if err != nil {
		writeError(w, r, apperr.BadRequest("duration must be a number of minutes"))
		return
	}

	posterURL, err := h.savePoster(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	movie, err := h.service.CreateMovie(
		r.FormValue("title"),
		r.FormValue("description"),
		r.FormValue("genre"),
		duration,
		posterURL,
		r.FormValue("language"),
		r.FormValue("availability"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.hub.BroadcastAll(ws.NewMessage("movie.created", movie))

	writeJSON(w, http.StatusCreated, movie)
}

// Get retrieves a movie by ID.
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movie, err := h.service.GetMovieByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// GetByTitle retrieves a movie by exact title, case-insensitively.
func (h *MovieHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	if strings.TrimSpace(title) == "" {
		writeError(w, r, apperr.BadRequest("movie title is required"))
		return
	}
	movie, err := h.service.GetMovieByTitle(title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// GetAll lists the whole catalogue.
func (h *MovieHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.GetAllMovies()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GetByGenre lists movies in a genre.
func (h *MovieHandler) GetByGenre(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.GetMoviesByGenre(chi.URLParam(r, "genre"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// GetByLanguage lists movies in a language.
func (h *MovieHandler) GetByLanguage(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.GetMoviesByLanguage(chi.URLParam(r, "language"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// Update applies a partial multipart update; absent fields stay unchanged
// and a new poster is optional.
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPosterBytes); err != nil {
		writeError(w, r, apperr.BadRequest("invalid multipart form"))
		return
	}

	var upd services.MovieUpdate
	upd.Title = formValue(r, "title")
	upd.Description = formValue(r, "description")
	upd.Genre = formValue(r, "genre")
	upd.Language = formValue(r, "language")
	upd.Availability = formValue(r, "availability")

	if v := formValue(r, "duration"); v != nil {
		duration, err := strconv.Atoi(*v)
		if err != nil {
			writeError(w, r, apperr.BadRequest("duration must be a number of minutes"))
			return
		}
		upd.Duration = &duration
	}

	if _, _, err := r.FormFile("poster"); err == nil {
		posterURL, err := h.savePoster(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.Poster = &posterURL
	}

	movie, err := h.service.UpdateMovie(chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// Delete removes a movie from the catalogue.
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMovie(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "movie deleted"})
}

// savePoster stores the uploaded poster under the uploads directory and
// returns its public URL path.
func (h *MovieHandler) savePoster(r *http.Request) (string, error) {
	file, header, err := r.FormFile("poster")
	if err != nil {
		return "", apperr.BadRequest("poster is required")
	}
	defer file.Close()

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(h.uploadPath, name))
	if err != nil {
		log.Error().Err(err).Str("upload_path", h.uploadPath).Msg("Failed to create poster file")
		return "", apperr.Internal("failed to store poster")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxPosterBytes)); err != nil {
		log.Error().Err(err).Msg("Failed to write poster file")
		return "", apperr.Internal("failed to store poster")
	}

	return "/uploads/" + name, nil
}

// formValue returns a pointer to the form value when the field was present
// in the request, nil otherwise. Present-but-empty is distinguishable from
// absent, which partial updates need.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
		return &vs[0]
	}
	return nil
}
