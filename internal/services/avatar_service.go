package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkravets/phonebook-be/internal/apperr"
	"github.com/mkravets/phonebook-be/internal/images"
	"github.com/mkravets/phonebook-be/internal/objectstore"
	"github.com/mkravets/phonebook-be/internal/storage"
)

// AvatarServiceProvider defines the interface for avatar updates.
type AvatarServiceProvider interface {
	UpdateAvatar(ctx context.Context, userID, tmpPath string) (string, error)
}

// AvatarService runs the avatar pipeline: resize the uploaded file, push it
// to the object store, remove the temp file and persist the new URL.
type AvatarService struct {
	users       storage.UserStore
	transformer images.Transformer
	store       objectstore.Uploader
}

// NewAvatarService creates a new AvatarService.
func NewAvatarService(users storage.UserStore, transformer images.Transformer, store objectstore.Uploader) *AvatarService {
	return &AvatarService{users: users, transformer: transformer, store: store}
}

// UpdateAvatar processes the uploaded file at tmpPath for the given user and
// returns the durable URL of the new avatar. The temp file is removed on
// every exit path. A transform failure aborts before the upload and an
// upload failure aborts before the store mutation, so the user record is
// only touched once a durable URL exists.
func (s *AvatarService) UpdateAvatar(ctx context.Context, userID, tmpPath string) (string, error) {
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", tmpPath).Msg("Failed to remove temp upload")
		}
	}()

	data, err := s.transformer.Transform(tmpPath)
	if err != nil {
		return "", fmt.Errorf("transform avatar: %w", err)
	}

	key := fmt.Sprintf("avatars/%s-%s.jpg", userID, uuid.New().String())
	url, err := s.store.Upload(ctx, key, data, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperr.NotFound("Not found")
		}
		return "", err
	}

	return url, nil
}
