package models

import (
	"time"

	"github.com/google/uuid"
)

// ApiKey authenticates automation clients. Only the hash is stored; Secret
// is filled once, in the response to the request that created the key.
type ApiKey struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Label      string     `db:"label" json:"label"`
	Hash       string     `db:"key_hash" json:"-"`
	Prefix     string     `db:"key_prefix" json:"prefix"`
	Secret     string     `db:"-" json:"key,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
}
