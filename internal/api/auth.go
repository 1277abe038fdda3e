package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danicaoo/musicShop/internal/auth"
	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/metrics"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB     *sql.DB
	Tokens *auth.Tokens
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	log := logging.Ctx(r.Context())
	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		writeError(w, r, err, "internal error")
		return
	}
	if user == nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		log.Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("login failed")
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		log.Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("login failed")
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, r, err, "failed to generate token")
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info().Str("user", user.Username).Str("role", user.Role).Msg("user logged in")
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.Tokens.TTL()).UTC(),
		Role:      user.Role,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expires := time.Now().Add(h.Tokens.TTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires); err != nil {
		writeError(w, r, err, "failed to log out")
		return
	}

	logging.Ctx(r.Context()).Info().Msg("user logged out")
	message(w, http.StatusOK, "logged out")
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		writeError(w, r, err, "internal error")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		writeError(w, r, err, "failed to update password")
		return
	}

	logging.Ctx(r.Context()).Info().Msg("user changed own password")
	message(w, http.StatusOK, "password updated")
}
