package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
)

// DuePost is a post ready for dispatch with its persona's decrypted token.
// CredentialErr is set when the stored token could not be decrypted.
type DuePost struct {
	Post          *models.Post
	AccessToken   string
	CredentialErr error
}

type Scanner struct {
	posts  repository.PostRepository
	cipher TokenCipher
}

func NewScanner(posts repository.PostRepository, cipher TokenCipher) *Scanner {
	return &Scanner{posts: posts, cipher: cipher}
}

// FindDue returns scheduled posts whose time has come. Posts of personas
// without a credential are left out; they stay scheduled until the persona
// is connected.
func (s *Scanner) FindDue(ctx context.Context, now time.Time) ([]DuePost, error) {
	rows, err := s.posts.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	due := make([]DuePost, 0, len(rows))
	for _, row := range rows {
		if row.EncryptedToken == "" {
			continue
		}

		post := row.Post
		item := DuePost{Post: &post}
		item.AccessToken, item.CredentialErr = s.cipher.Decrypt(row.EncryptedToken)
		if item.CredentialErr != nil {
			slog.Warn("due post has an unreadable credential", "post_id", post.ID)
		}
		due = append(due, item)
	}
	return due, nil
}
