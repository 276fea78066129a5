package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkravets/phonebook-be/internal/models"
)

// ContactStore is the persistence capability for phonebook entries. Every
// operation is scoped to the owning user.
type ContactStore interface {
	ListByOwner(ctx context.Context, owner string) ([]models.Contact, error)
	GetByID(ctx context.Context, owner, id string) (models.Contact, error)
	Create(ctx context.Context, contact models.Contact) error
	Update(ctx context.Context, contact models.Contact) error
	Delete(ctx context.Context, owner, id string) error
}

// SQLiteContactStore implements ContactStore on a SQLite database.
type SQLiteContactStore struct {
	db *sql.DB
}

// NewContactStore creates a SQLiteContactStore.
func NewContactStore(db *sql.DB) *SQLiteContactStore {
	return &SQLiteContactStore{db: db}
}

const contactColumns = "id, owner, name, email, phone, favorite, created_at"

func scanContact(scanner interface{ Scan(...interface{}) error }) (models.Contact, error) {
	var c models.Contact
	var email, phone sql.NullString

	err := scanner.Scan(&c.ID, &c.Owner, &c.Name, &email, &phone, &c.Favorite, &c.CreatedAt)
	if err != nil {
		return models.Contact{}, err
	}

	c.Email = email.String
	c.Phone = phone.String
	return c, nil
}

// ListByOwner retrieves all contacts belonging to the given user.
func (s *SQLiteContactStore) ListByOwner(ctx context.Context, owner string) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE owner = ? ORDER BY created_at", owner)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// GetByID retrieves one contact, enforcing ownership.
func (s *SQLiteContactStore) GetByID(ctx context.Context, owner, id string) (models.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ? AND owner = ?", id, owner)
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contact{}, ErrNotFound
		}
		return models.Contact{}, fmt.Errorf("query contact: %w", err)
	}
	return contact, nil
}

// Create inserts a new contact.
func (s *SQLiteContactStore) Create(ctx context.Context, contact models.Contact) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO contacts(id, owner, name, email, phone, favorite, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		contact.ID, contact.Owner, contact.Name, contact.Email, contact.Phone, contact.Favorite, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an owned contact.
func (s *SQLiteContactStore) Update(ctx context.Context, contact models.Contact) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE contacts SET name = ?, email = ?, phone = ?, favorite = ? WHERE id = ? AND owner = ?",
		contact.Name, contact.Email, contact.Phone, contact.Favorite, contact.ID, contact.Owner,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return checkAffected(res)
}

// Delete removes an owned contact.
func (s *SQLiteContactStore) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return checkAffected(res)
}
