package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/models"
	"github.com/mkravets/phonebook-be/internal/services"
)

// ContactHandler handles HTTP requests for phonebook entries.
type ContactHandler struct {
	service services.ContactServiceProvider
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service services.ContactServiceProvider) *ContactHandler {
	return &ContactHandler{service: service}
}

// ContactPayload defines the structure for create and update requests.
type ContactPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
}

// GetAll handles the request to list the user's contacts.
func (h *ContactHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	contacts, err := h.service.GetAllContacts(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to retrieve contacts")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contacts)
}

// Get handles the request to get a single contact by its ID.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "contactId")

	contact, err := h.service.GetContactByID(r.Context(), user.ID, id)
	if err != nil {
		log.Warn().Err(err).Str("contact_id", id).Msg("Failed to get contact by ID")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contact)
}

// Create handles the request to add a new contact.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload ContactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}
	if payload.Name == "" {
		apperr.Write(w, apperr.BadRequest("missing required field name"))
		return
	}

	contact, err := h.service.CreateContact(r.Context(), models.Contact{
		Owner:    user.ID,
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Favorite: payload.Favorite,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create contact")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(contact)
}

// Update handles the request to replace a contact's fields.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "contactId")

	var payload ContactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	contact, err := h.service.UpdateContact(r.Context(), models.Contact{
		ID:       id,
		Owner:    user.ID,
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Favorite: payload.Favorite,
	})
	if err != nil {
		log.Warn().Err(err).Str("contact_id", id).Msg("Failed to update contact")
		apperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contact)
}

// Delete handles the request to remove a contact.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "contactId")

	if err := h.service.DeleteContact(r.Context(), user.ID, id); err != nil {
		log.Warn().Err(err).Str("contact_id", id).Msg("Failed to delete contact")
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
