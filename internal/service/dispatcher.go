package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/threads"
	"golang.org/x/sync/errgroup"
)

// RetryBackoff is the fixed delay before a failed post is attempted again.
const RetryBackoff = time.Hour

// Publisher sends a post to Threads and returns the remote id.
type Publisher interface {
	Publish(ctx context.Context, req threads.PublishRequest, accessToken string) (string, error)
}

// Summary reports the outcome of one dispatch pass.
type Summary struct {
	Timestamp     time.Time `json:"timestamp"`
	PostsChecked  int       `json:"posts_checked"`
	Published     int       `json:"published"`
	Failed        int       `json:"failed"`
	Retried       int       `json:"retried"`
	Skipped       int       `json:"skipped"`
	AutoScheduled int       `json:"auto_scheduled"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePublished
	outcomeRetried
	outcomeFailed
)

type Dispatcher struct {
	scanner     *Scanner
	posts       repository.PostRepository
	settings    repository.SettingsRepository
	publisher   Publisher
	activity    *ActivityLogger
	auto        *AutoScheduler
	concurrency int
}

// NewDispatcher runs up to concurrency personas at once. A persona's own
// posts are always sent one after another.
func NewDispatcher(
	scanner *Scanner,
	posts repository.PostRepository,
	settings repository.SettingsRepository,
	publisher Publisher,
	activity *ActivityLogger,
	auto *AutoScheduler,
	concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		scanner:     scanner,
		posts:       posts,
		settings:    settings,
		publisher:   publisher,
		activity:    activity,
		auto:        auto,
		concurrency: concurrency,
	}
}

// RunDispatchPass publishes every due post, applies the retry policy to the
// ones that fail and then auto-schedules eligible drafts. Only a failing scan
// aborts the pass.
func (d *Dispatcher) RunDispatchPass(ctx context.Context, now time.Time) (*Summary, error) {
	due, err := d.scanner.FindDue(ctx, now)
	if err != nil {
		slog.Error("dispatch pass aborted: due post scan failed", "error", err)
		return nil, fmt.Errorf("scan due posts: %w", err)
	}

	summary := &Summary{Timestamp: now, PostsChecked: len(due)}

	for _, o := range d.dispatchAll(ctx, now, due) {
		switch o {
		case outcomePublished:
			summary.Published++
		case outcomeRetried:
			summary.Retried++
		case outcomeFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}

	scheduled, err := d.auto.Run(ctx, now)
	if err != nil {
		slog.Error("auto-schedule step failed", "error", err)
	}
	summary.AutoScheduled = scheduled

	slog.Info("dispatch pass complete",
		"checked", summary.PostsChecked,
		"published", summary.Published,
		"retried", summary.Retried,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"auto_scheduled", summary.AutoScheduled,
	)
	return summary, nil
}

// dispatchAll groups due posts by persona and works through the groups with
// bounded parallelism. Outcomes are returned in input order.
func (d *Dispatcher) dispatchAll(ctx context.Context, now time.Time, due []DuePost) []outcome {
	outcomes := make([]outcome, len(due))

	var order []uuid.UUID
	groups := make(map[uuid.UUID][]int)
	for i, item := range due {
		var key uuid.UUID
		if item.Post.PersonaID != nil {
			key = *item.Post.PersonaID
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, key := range order {
		indexes := groups[key]
		g.Go(func() error {
			for _, i := range indexes {
				outcomes[i] = d.dispatchOne(ctx, now, due[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, now time.Time, item DuePost) outcome {
	post := item.Post

	claimed, err := d.posts.Claim(ctx, post.ID)
	if err != nil {
		slog.Error("failed to claim post", "post_id", post.ID, "error", err)
		return outcomeSkipped
	}
	if !claimed {
		slog.Info("post already claimed by another pass", "post_id", post.ID)
		return outcomeSkipped
	}

	remoteID, err := d.publish(ctx, item)
	if err != nil {
		return d.handleFailure(ctx, now, post, err)
	}

	if err := d.posts.MarkPublished(ctx, post.ID, now); err != nil {
		slog.Error("post published but status update failed; reconcile manually",
			"post_id", post.ID, "remote_id", remoteID, "error", err)
	} else {
		slog.Info("scheduled post published", "post_id", post.ID, "remote_id", remoteID)
	}

	d.activity.Append(ctx, &models.ActivityLog{
		UserID:      post.UserID,
		PersonaID:   post.PersonaID,
		ActionType:  models.ActionScheduledPostPublished,
		Description: fmt.Sprintf("Scheduled post %q published automatically", excerpt(post.Content)),
		Metadata: map[string]any{
			"post_id":    post.ID.String(),
			"threads_id": remoteID,
		},
	})
	return outcomePublished
}

func (d *Dispatcher) publish(ctx context.Context, item DuePost) (string, error) {
	if item.CredentialErr != nil {
		return "", item.CredentialErr
	}
	req, err := threads.NewPublishRequest(item.Post.Content, item.Post.Images)
	if err != nil {
		return "", err
	}
	return d.publisher.Publish(ctx, req, item.AccessToken)
}

func (d *Dispatcher) handleFailure(ctx context.Context, now time.Time, post *models.Post, publishErr error) outcome {
	retryCount := post.RetryCount + 1
	maxRetries := post.EffectiveMaxRetries()
	if retryCount > maxRetries {
		retryCount = maxRetries
	}

	terminal := retryCount >= maxRetries || isPermanent(publishErr) || !d.retryEnabled(ctx, post)

	result := outcomeRetried
	var writeErr error
	if terminal {
		result = outcomeFailed
		writeErr = d.posts.MarkFailed(ctx, post.ID, retryCount, now)
	} else {
		writeErr = d.posts.MarkRetry(ctx, post.ID, retryCount, now.Add(RetryBackoff), now)
	}
	if writeErr != nil {
		slog.Error("failed to record publish failure; releasing claim", "post_id", post.ID, "error", writeErr)
		if d.release(ctx, post.ID) {
			result = outcomeRetried
		}
	}

	slog.Warn("post publish failed",
		"post_id", post.ID,
		"retry_count", retryCount,
		"max_retries", maxRetries,
		"terminal", terminal,
		"error", publishErr,
	)

	metadata := map[string]any{
		"post_id":     post.ID.String(),
		"retry_count": retryCount,
		"max_retries": maxRetries,
		"error":       publishErr.Error(),
	}
	var pe *threads.PublishError
	if errors.As(publishErr, &pe) {
		metadata["step"] = pe.Step
		metadata["status_code"] = pe.StatusCode
	}

	d.activity.Append(ctx, &models.ActivityLog{
		UserID:      post.UserID,
		PersonaID:   post.PersonaID,
		ActionType:  models.ActionPostPublishFailed,
		Description: fmt.Sprintf("Failed to publish scheduled post (attempt %d/%d)", retryCount, maxRetries),
		Metadata:    metadata,
	})
	return result
}

// release puts a claimed post back to scheduled with its retry state
// untouched, so the next pass picks it up again.
func (d *Dispatcher) release(ctx context.Context, id uuid.UUID) bool {
	if err := d.posts.Release(ctx, id); err != nil {
		slog.Error("failed to release claimed post; it stays publishing", "post_id", id, "error", err)
		return false
	}
	return true
}

// retryEnabled defaults to true when the persona has no settings or they
// cannot be read.
func (d *Dispatcher) retryEnabled(ctx context.Context, post *models.Post) bool {
	if post.PersonaID == nil {
		return true
	}
	settings, exists, err := d.settings.GetByPersonaID(ctx, *post.PersonaID)
	if err != nil {
		slog.Error("failed to load scheduling settings", "persona_id", *post.PersonaID, "error", err)
		return true
	}
	return !exists || settings.RetryEnabled
}

// isPermanent reports failures that a later attempt cannot fix.
func isPermanent(err error) bool {
	return threads.IsPermanent(err) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, threads.ErrTooManyImages) ||
		errors.Is(err, threads.ErrEmptyPost)
}
