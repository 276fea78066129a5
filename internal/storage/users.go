// Package storage provides persistence for users and contacts on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkravets/phonebook-be/internal/models"
)

// Sentinel errors returned by the stores. Services translate these into the
// caller-facing error taxonomy.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserStore is the persistence capability for the User entity.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// ConsumeVerificationToken flips verify on and clears the token in a
	// single update; a second call with the same token finds no row and
	// returns ErrNotFound.
	ConsumeVerificationToken(ctx context.Context, token string) error
	SetSessionToken(ctx context.Context, id, token string) error
	UpdateSubscription(ctx context.Context, id, subscription string) error
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) error
}

// SQLiteUserStore implements UserStore on a SQLite database.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewUserStore creates a SQLiteUserStore.
func NewUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

const userColumns = "id, name, email, password_hash, avatar_url, subscription, verify, verification_token, token, created_at"

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var verificationToken, token sql.NullString

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.AvatarURL,
		&user.Subscription, &user.Verify, &verificationToken, &token, &user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	user.VerificationToken = verificationToken.String
	user.Token = token.String
	return user, nil
}

// Create inserts a new user. The UNIQUE index on email is the authoritative
// duplicate check; the service-level lookup is only a fast path.
func (s *SQLiteUserStore) Create(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, password_hash, avatar_url, subscription, verify, verification_token, token, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.AvatarURL,
		user.Subscription, user.Verify, nullable(user.VerificationToken), time.Now().UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a single user by their ID.
func (s *SQLiteUserStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email.
func (s *SQLiteUserStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

// ConsumeVerificationToken marks the matching user verified and clears the
// token in one atomic update.
func (s *SQLiteUserStore) ConsumeVerificationToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET verify = 1, verification_token = NULL WHERE verification_token = ?", token)
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSessionToken stores the user's current session token. An empty token
// clears the session.
func (s *SQLiteUserStore) SetSessionToken(ctx context.Context, id, token string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET token = ? WHERE id = ?", nullable(token), id)
	if err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	return checkAffected(res)
}

// UpdateSubscription changes the user's subscription tier.
func (s *SQLiteUserStore) UpdateSubscription(ctx context.Context, id, subscription string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET subscription = ? WHERE id = ?", subscription, id)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return checkAffected(res)
}

// UpdateAvatarURL replaces the user's avatar URL.
func (s *SQLiteUserStore) UpdateAvatarURL(ctx context.Context, id, avatarURL string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET avatar_url = ? WHERE id = ?", avatarURL, id)
	if err != nil {
		return fmt.Errorf("update avatar url: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint
// violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
