package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/mail"
	"github.com/mkravets/phonebook-be/internal/models"
	"github.com/mkravets/phonebook-be/internal/storage"
)

const mailDispatchTimeout = 30 * time.Second

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, name, email, password string) (models.PublicUser, error)
	Verify(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (string, models.Profile, error)
	GetCurrent(ctx context.Context, userID string) (models.Profile, error)
	Logout(ctx context.Context, userID string) error
	UpdateSubscription(ctx context.Context, userID, subscription string) (models.Profile, error)
}

// UserService provides business logic for registration, email verification
// and session management.
type UserService struct {
	users  storage.UserStore
	hasher auth.Hasher
	signer *auth.Signer
	mailer mail.Mailer
}

// NewUserService creates a new UserService.
func NewUserService(users storage.UserStore, hasher auth.Hasher, signer *auth.Signer, mailer mail.Mailer) *UserService {
	return &UserService{users: users, hasher: hasher, signer: signer, mailer: mailer}
}

// Register creates a new unverified user and dispatches the verification
// email in the background. The email uniqueness pre-check is advisory; the
// storage layer's unique index is what closes the concurrent-register race.
func (s *UserService) Register(ctx context.Context, name, email, password string) (models.PublicUser, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return models.PublicUser{}, apperr.Conflict("Email is already in use")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.PublicUser{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.PublicUser{}, err
	}

	verificationToken, err := gonanoid.New()
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("generate verification token: %w", err)
	}

	user := models.User{
		ID:                uuid.New().String(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		AvatarURL:         gravatarURL(email),
		Subscription:      models.SubscriptionStarter,
		VerificationToken: verificationToken,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return models.PublicUser{}, apperr.Conflict("Email is already in use")
		}
		return models.PublicUser{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		if err := s.mailer.SendVerification(ctx, user.Email, user.Name, verificationToken); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("Failed to send verification email")
		}
	}()

	return user.Public(), nil
}

// Verify consumes a verification token. Unknown and already-used tokens are
// indistinguishable; both yield NotFound.
func (s *UserService) Verify(ctx context.Context, token string) error {
	if err := s.users.ConsumeVerificationToken(ctx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	return nil
}

// ResendVerification re-sends the verification email with the stored token.
// The token is not rotated, so a code already sitting in the user's inbox
// stays valid.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if user.Verify {
		return apperr.BadRequest("Verification has already been passed")
	}

	return s.mailer.SendVerification(ctx, user.Email, user.Name, user.VerificationToken)
}

// Login verifies credentials, mints a session token and stores it as the
// single authoritative session. Every failure returns the same message so
// the response content never reveals whether the account exists or is
// verified.
func (s *UserService) Login(ctx context.Context, email, password string) (string, models.Profile, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", models.Profile{}, apperr.Unauthorized("Email or password is wrong")
		}
		return "", models.Profile{}, err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", models.Profile{}, apperr.Unauthorized("Email or password is wrong")
	}

	if !user.Verify {
		log.Warn().Str("user_id", user.ID).Msg("Login attempt on unverified account")
		return "", models.Profile{}, apperr.Unauthorized("Email or password is wrong")
	}

	token, err := s.signer.Sign(user.ID)
	if err != nil {
		return "", models.Profile{}, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.users.SetSessionToken(ctx, user.ID, token); err != nil {
		return "", models.Profile{}, err
	}

	return token, user.Profile(), nil
}

// GetCurrent returns the authenticated user's own profile.
func (s *UserService) GetCurrent(ctx context.Context, userID string) (models.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, apperr.NotFound("Not found")
		}
		return models.Profile{}, err
	}
	return user.Profile(), nil
}

// Logout clears the stored session token. Previously issued tokens stop
// validating even before their signed expiry, because the auth middleware
// requires equality with the stored value.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetSessionToken(ctx, userID, ""); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("Not found")
		}
		return err
	}
	return nil
}

// UpdateSubscription changes the user's tier and returns the updated profile.
func (s *UserService) UpdateSubscription(ctx context.Context, userID, subscription string) (models.Profile, error) {
	if !models.ValidSubscription(subscription) {
		return models.Profile{}, apperr.BadRequest("subscription must be one of: starter, pro, business")
	}

	if err := s.users.UpdateSubscription(ctx, userID, subscription); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, apperr.NotFound("Not found")
		}
		return models.Profile{}, err
	}

	return s.GetCurrent(ctx, userID)
}

// gravatarURL derives the default identicon avatar from the email address.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}
