package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/pkg/utils"
)

const (
	maxApiKeys     = 5
	maxApiKeyLabel = 64
)

var (
	ErrApiKeyNotFound  = errors.New("api key not found")
	ErrApiKeyLimit     = fmt.Errorf("at most %d api keys per account", maxApiKeys)
	ErrInvalidKeyLabel = fmt.Errorf("label must be at most %d characters", maxApiKeyLabel)
)

type ApiKeyService interface {
	Create(ctx context.Context, userID uuid.UUID, label string) (*models.ApiKey, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (uuid.UUID, error)
	RemoveAPIKey(ctx context.Context, userID, keyID uuid.UUID) error
}

type apiKeyService struct {
	k   repository.ApiKeyRepository
	now func() time.Time
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{k: k, now: time.Now}
}

// Create issues a new key. The returned key carries the plain secret, which
// is not stored and cannot be read back later.
func (s *apiKeyService) Create(ctx context.Context, userID uuid.UUID, label string) (*models.ApiKey, error) {
	label = strings.TrimSpace(label)
	if len(label) > maxApiKeyLabel {
		return nil, ErrInvalidKeyLabel
	}

	n, err := s.k.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting api keys: %w", err)
	}
	if n >= maxApiKeys {
		return nil, ErrApiKeyLimit
	}

	secret, err := utils.GenerateApiKey()
	if err != nil {
		return nil, fmt.Errorf("generating api key: %w", err)
	}

	key := &models.ApiKey{
		UserID:    userID,
		Label:     label,
		Hash:      utils.HashApiKey(secret),
		Prefix:    utils.ApiKeyHint(secret),
		CreatedAt: s.now(),
	}
	id, err := s.k.Create(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("saving api key: %w", err)
	}
	key.ID = id
	key.Secret = secret
	return key, nil
}

// GetUserID resolves the owner of a presented key and records its use.
func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (uuid.UUID, error) {
	key, err := s.k.GetByHash(ctx, utils.HashApiKey(apiKey))
	if err != nil {
		return uuid.Nil, err
	}
	if key == nil {
		return uuid.Nil, ErrApiKeyNotFound
	}

	if err := s.k.Touch(ctx, key.ID, s.now()); err != nil {
		slog.Warn("could not record api key use", "key_id", key.ID, "error", err)
	}
	return key.UserID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID uuid.UUID) ([]*models.ApiKey, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	if keys == nil {
		keys = []*models.ApiKey{}
	}
	return keys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID uuid.UUID) error {
	err := s.k.Remove(ctx, keyID, userID)
	if errors.Is(err, repository.ErrNotUpdated) {
		return ErrApiKeyNotFound
	}
	return err
}
