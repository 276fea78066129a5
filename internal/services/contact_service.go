package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/models"
	"github.com/mkravets/phonebook-be/internal/storage"
)

// ContactServiceProvider defines the interface for contact services.
type ContactServiceProvider interface {
	GetAllContacts(ctx context.Context, owner string) ([]models.Contact, error)
	GetContactByID(ctx context.Context, owner, id string) (models.Contact, error)
	CreateContact(ctx context.Context, contact models.Contact) (models.Contact, error)
	UpdateContact(ctx context.Context, contact models.Contact) (models.Contact, error)
	DeleteContact(ctx context.Context, owner, id string) error
}

// ContactService provides business logic for the phonebook entries. Plain
// persistence, all derived state lives in the user service.
type ContactService struct {
	contacts storage.ContactStore
}

// NewContactService creates a new ContactService.
func NewContactService(contacts storage.ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

// GetAllContacts retrieves every contact owned by the user.
func (s *ContactService) GetAllContacts(ctx context.Context, owner string) ([]models.Contact, error) {
	return s.contacts.ListByOwner(ctx, owner)
}

// GetContactByID retrieves a single owned contact.
func (s *ContactService) GetContactByID(ctx context.Context, owner, id string) (models.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Contact{}, apperr.NotFound("Not found")
		}
		return models.Contact{}, err
	}
	return contact, nil
}

// CreateContact stores a new contact for the owner.
func (s *ContactService) CreateContact(ctx context.Context, contact models.Contact) (models.Contact, error) {
	contact.ID = uuid.New().String()
	if err := s.contacts.Create(ctx, contact); err != nil {
		return models.Contact{}, err
	}
	return s.GetContactByID(ctx, contact.Owner, contact.ID)
}

// UpdateContact replaces an owned contact's fields.
func (s *ContactService) UpdateContact(ctx context.Context, contact models.Contact) (models.Contact, error) {
	if err := s.contacts.Update(ctx, contact); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Contact{}, apperr.NotFound("Not found")
		}
		return models.Contact{}, err
	}
	return s.GetContactByID(ctx, contact.Owner, contact.ID)
}

// DeleteContact removes an owned contact.
func (s *ContactService) DeleteContact(ctx context.Context, owner, id string) error {
	if err := s.contacts.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("Not found")
		}
		return err
	}
	return nil
}
