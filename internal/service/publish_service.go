package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/threads"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

// PublishService is the interactive publish path. It reports failures to the
// caller and leaves the retry bookkeeping alone.
type PublishService interface {
	PublishNow(ctx context.Context, userID, postID uuid.UUID) (*transfer.PublishResult, error)
}

type publishService struct {
	posts     repository.PostRepository
	personas  repository.PersonaRepository
	publisher Publisher
	cipher    TokenCipher
	activity  *ActivityLogger
	now       func() time.Time
}

func NewPublishService(
	posts repository.PostRepository,
	personas repository.PersonaRepository,
	publisher Publisher,
	cipher TokenCipher,
	activity *ActivityLogger) PublishService {
	return &publishService{
		posts:     posts,
		personas:  personas,
		publisher: publisher,
		cipher:    cipher,
		activity:  activity,
		now:       time.Now,
	}
}

func (s *publishService) PublishNow(ctx context.Context, userID, postID uuid.UUID) (*transfer.PublishResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrPostNotFound
	}
	if post.Status == models.PostStatusPublished || post.Status == models.PostStatusPublishing {
		return nil, ErrAlreadyPublished
	}
	if post.PersonaID == nil {
		return nil, ErrPersonaNotConnected
	}

	persona, err := s.personas.GetByID(ctx, *post.PersonaID)
	if err != nil {
		return nil, err
	}
	if persona == nil || persona.UserID != userID {
		return nil, ErrPersonaNotFound
	}
	if !persona.Connected() {
		return nil, ErrPersonaNotConnected
	}

	token, err := s.cipher.Decrypt(persona.AccessToken)
	if err != nil {
		return nil, err
	}

	req, err := threads.NewPublishRequest(post.Content, post.Images)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	remoteID, err := s.publisher.Publish(ctx, req, token)
	if err != nil {
		slog.Error("instant publish failed", "post_id", post.ID, "error", err)
		return nil, err
	}

	if err := s.posts.MarkPublished(ctx, post.ID, s.now()); err != nil {
		slog.Error("post published but status update failed; reconcile manually",
			"post_id", post.ID, "remote_id", remoteID, "error", err)
	}

	s.activity.Append(ctx, &models.ActivityLog{
		UserID:      userID,
		PersonaID:   post.PersonaID,
		ActionType:  models.ActionPostPublished,
		Description: fmt.Sprintf("Post %q published to Threads", excerpt(post.Content)),
		Metadata: map[string]any{
			"post_id":    post.ID.String(),
			"threads_id": remoteID,
		},
	})

	return &transfer.PublishResult{PostID: post.ID, RemoteID: remoteID}, nil
}
