package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
)

type ApiKeyRepository interface {
	GetByHash(ctx context.Context, hash string) (*models.ApiKey, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ApiKey, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	Create(ctx context.Context, key *models.ApiKey) (uuid.UUID, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Remove(ctx context.Context, id, userID uuid.UUID) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

const apiKeyColumns = `id, user_id, label, key_hash, key_prefix, created_at, last_used_at`

func scanApiKey(row interface{ Scan(...any) error }) (*models.ApiKey, error) {
	var k models.ApiKey
	var lastUsed sql.NullTime
	if err := row.Scan(&k.ID, &k.UserID, &k.Label, &k.Hash, &k.Prefix, &k.CreatedAt, &lastUsed); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		k.LastUsedAt = &lastUsed.Time
	}
	return &k, nil
}

// GetByHash returns nil without error when no key matches.
func (r *apiKeyRepository) GetByHash(ctx context.Context, hash string) (*models.ApiKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, hash)
	k, err := scanApiKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("api key lookup failed", "error", err)
		return nil, err
	}
	return k, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ApiKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		k, err := scanApiKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) (uuid.UUID, error) {
	query := `INSERT INTO api_keys (user_id, label, key_hash, key_prefix) VALUES ($1, $2, $3, $4) RETURNING id`
	var id uuid.UUID
	if err := r.db.QueryRowContext(ctx, query, key.UserID, key.Label, key.Hash, key.Prefix).Scan(&id); err != nil {
		slog.Error("api key insert failed", "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

func (r *apiKeyRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// Remove deletes a key owned by userID. ErrNotUpdated means no such key.
func (r *apiKeyRepository) Remove(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
