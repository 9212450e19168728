package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

var ErrNotFailed = errors.New("only failed posts can be reset")

type PostService interface {
	Create(ctx context.Context, userID uuid.UUID, req *transfer.PostRequest) (*models.Post, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	PostInfo(ctx context.Context, userID, postID uuid.UUID) (*models.Post, error)
	Update(ctx context.Context, userID, postID uuid.UUID, req *transfer.PostRequest) (*models.Post, error)
	Remove(ctx context.Context, userID, postID uuid.UUID) error
	Reset(ctx context.Context, userID, postID uuid.UUID) error
}

type postService struct {
	pr repository.PostRepository
	pe repository.PersonaRepository
}

func NewPostService(pr repository.PostRepository, pe repository.PersonaRepository) PostService {
	return &postService{
		pr: pr,
		pe: pe,
	}
}

func (s *postService) Create(ctx context.Context, userID uuid.UUID, req *transfer.PostRequest) (*models.Post, error) {
	post := &models.Post{UserID: userID}
	if err := s.apply(ctx, userID, post, req); err != nil {
		return nil, err
	}

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = id

	slog.Info("post created", "post_id", id, "status", post.Status)
	return post, nil
}

func (s *postService) List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	return s.pr.ListByUserID(ctx, userID)
}

func (s *postService) PostInfo(ctx context.Context, userID, postID uuid.UUID) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, userID, postID uuid.UUID, req *transfer.PostRequest) (*models.Post, error) {
	post, err := s.PostInfo(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft && post.Status != models.PostStatusScheduled {
		return nil, ErrPostLocked
	}

	if err := s.apply(ctx, userID, post, req); err != nil {
		return nil, err
	}

	if err := s.pr.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrPostLocked
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID uuid.UUID) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		return ErrPostNotFound
	}
	return s.pr.Remove(ctx, postID)
}

// Reset puts a failed post back to draft with its retry budget restored.
func (s *postService) Reset(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.PostInfo(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusFailed {
		return ErrNotFailed
	}

	if err := s.pr.Reset(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return ErrNotFailed
		}
		return err
	}
	return nil
}

// apply validates req and copies it onto post.
func (s *postService) apply(ctx context.Context, userID uuid.UUID, post *models.Post, req *transfer.PostRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidPost)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidPost)
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalidPost, models.MaxContentLength)
	}
	if len(req.Images) > models.MaxPostImages {
		return fmt.Errorf("%w: at most %d images", ErrInvalidPost, models.MaxPostImages)
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return fmt.Errorf("%w: status must be draft or scheduled", ErrInvalidPost)
	}
	if status == models.PostStatusScheduled && req.ScheduledFor == nil {
		return fmt.Errorf("%w: scheduled posts need scheduled_for", ErrInvalidPost)
	}
	if status == models.PostStatusScheduled && req.PersonaID == nil {
		return fmt.Errorf("%w: scheduled posts need a persona", ErrInvalidPost)
	}

	if req.PersonaID != nil {
		owned, err := s.pe.CheckByUserID(ctx, *req.PersonaID, userID)
		if err != nil {
			return err
		}
		if !owned {
			return ErrPersonaNotFound
		}
	}

	post.PersonaID = req.PersonaID
	post.Content = content
	post.Images = append([]string(nil), req.Images...)
	post.Status = status
	post.ScheduledFor = req.ScheduledFor
	post.AutoSchedule = req.AutoSchedule
	post.Priority = req.Priority
	post.MaxRetries = req.MaxRetries
	if post.MaxRetries <= 0 {
		post.MaxRetries = models.DefaultMaxRetries
	}
	if post.Status == models.PostStatusDraft && post.AutoSchedule {
		post.ScheduledFor = nil
	}
	return nil
}
