package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/apperr"
	"github.com/cinelog/cinelog-be/internal/auth"
	"github.com/cinelog/cinelog-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service    services.UserServiceProvider
	isProd     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewUserHandler creates a new UserHandler. isProd selects the production
// cookie attributes (Secure, SameSite=None).
func NewUserHandler(service services.UserServiceProvider, isProd bool, accessTTL, refreshTTL time.Duration) *UserHandler {
	return &UserHandler{service: service, isProd: isProd, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests. Either username or
// email identifies the account.
type LoginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	user, err := h.service.Register(payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	identifier := payload.Username
	if identifier == "" {
		identifier = payload.Email
	}

	user, pair, err := h.service.Login(identifier, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("identifier", identifier).Msg("Failed authentication attempt")
		writeError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// RefreshToken exchanges a valid refresh token for a rotated token pair. The
// token is read from the refreshToken cookie or the request body.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var tokenStr string
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		tokenStr = cookie.Value
	}
	if tokenStr == "" {
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		// Body is optional; a decode failure just means no token was sent.
		json.NewDecoder(r.Body).Decode(&payload)
		tokenStr = payload.RefreshToken
	}

	pair, err := h.service.Refresh(tokenStr)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

// Logout clears the stored refresh token and both cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	if err := h.service.Logout(claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles changing the caller's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	var payload struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	if err := h.service.ChangePassword(claims.UserID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}

// GetCurrent returns the authenticated user's account projection.
func (h *UserHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateAccount updates the caller's username and email.
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.BadRequest("invalid request body"))
		return
	}

	user, err := h.service.UpdateAccount(claims.UserID, payload.Username, payload.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AddWatchHistory appends a movie to the caller's watch history.
func (h *UserHandler) AddWatchHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	movieID := chi.URLParam(r, "movieId")
	if err := h.service.AddWatchHistory(claims.UserID, movieID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "added to watch history"})
}

// GetWatchHistory lists the caller's watch history.
func (h *UserHandler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("unauthorized request"))
		return
	}

	entries, err := h.service.GetWatchHistory(claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// setAuthCookies sets the accessToken and refreshToken cookies. In
// production the cookies are Secure with SameSite=None so a separately
// hosted frontend can send them; elsewhere Lax keeps local development easy.
func (h *UserHandler) setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	sameSite := http.SameSiteLaxMode
	if h.isProd {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.isProd,
		SameSite: sameSite,
		Path:     "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.isProd,
		SameSite: sameSite,
		Path:     "/",
	})
}

func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.isProd,
			Path:     "/",
		})
	}
}
