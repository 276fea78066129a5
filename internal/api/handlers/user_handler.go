package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/services"
)

const maxAvatarUpload = 10 << 20 // 10MB

// UserHandler handles HTTP requests for identity and session management.
type UserHandler struct {
	service   services.UserServiceProvider
	avatars   services.AvatarServiceProvider
	uploadDir string
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, avatars services.AvatarServiceProvider, uploadDir string) *UserHandler {
	return &UserHandler{service: service, avatars: avatars, uploadDir: uploadDir}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"user": user})
}

// Verify consumes a verification token from the URL.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "verificationToken")

	if err := h.service.Verify(r.Context(), token); err != nil {
		log.Warn().Err(err).Msg("Failed email verification attempt")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification is successful"})
}

// ResendVerification re-sends the verification email.
func (h *UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}
	if payload.Email == "" {
		apperr.Write(w, apperr.BadRequest("missing required field email"))
		return
	}

	if err := h.service.ResendVerification(r.Context(), payload.Email); err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to resend verification email")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Verification email has been sent successfully"})
}

// Login handles user authentication and session-token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	token, profile, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  profile,
	})
}

// GetCurrent returns the authenticated user's profile.
func (h *UserHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Not authorized"))
		return
	}

	profile, err := h.service.GetCurrent(r.Context(), user.ID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// Logout clears the authenticated user's session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Not authorized"))
		return
	}

	if err := h.service.Logout(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to log out user")
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSubscription changes the authenticated user's subscription tier.
func (h *UserHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Not authorized"))
		return
	}

	var payload struct {
		Subscription string `json:"subscription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	profile, err := h.service.UpdateSubscription(r.Context(), user.ID, payload.Subscription)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update subscription")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// UpdateAvatar receives a multipart image, spools it to the upload dir and
// runs the avatar pipeline.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Not authorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		apperr.Write(w, apperr.BadRequest("missing required file avatar"))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp(h.uploadDir, "avatar-*")
	if err != nil {
		log.Error().Err(err).Msg("Failed to create temp upload file")
		apperr.Write(w, err)
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		log.Error().Err(err).Msg("Failed to spool avatar upload")
		apperr.Write(w, err)
		return
	}
	tmp.Close()

	avatarURL, err := h.avatars.UpdateAvatar(r.Context(), user.ID, tmp.Name())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Avatar pipeline failed")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"avatarURL": avatarURL})
}
