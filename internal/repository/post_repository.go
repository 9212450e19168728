package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/maheshrc27/threadflow/internal/models"
)

// ErrNotUpdated is returned when a conditional update matched no row: the
// record is gone or no longer in the expected state.
var ErrNotUpdated = errors.New("no rows affected; record missing or in another state")

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[string]int, error)

	ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error)
	ListAutoScheduleCandidates(ctx context.Context) ([]*models.Post, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttempt, retriedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, retriedAt time.Time) error
	Release(ctx context.Context, id uuid.UUID) error
	MarkScheduled(ctx context.Context, id uuid.UUID, scheduledFor time.Time) (bool, error)
	Reset(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, persona_id, content, images, status, scheduled_for, published_at,
	retry_count, max_retries, last_retry_at, auto_schedule, priority, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost reads postColumns into post, followed by any extra joined columns.
func scanPost(row rowScanner, post *models.Post, extra ...any) error {
	var personaID uuid.NullUUID
	var scheduledFor, publishedAt, lastRetryAt sql.NullTime

	dest := []any{&post.ID, &post.UserID, &personaID, &post.Content, pq.Array(&post.Images), &post.Status,
		&scheduledFor, &publishedAt, &post.RetryCount, &post.MaxRetries, &lastRetryAt,
		&post.AutoSchedule, &post.Priority, &post.CreatedAt, &post.UpdatedAt}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	if personaID.Valid {
		post.PersonaID = &personaID.UUID
	}
	post.ScheduledFor = nullTimePtr(scheduledFor)
	post.PublishedAt = nullTimePtr(publishedAt)
	post.LastRetryAt = nullTimePtr(lastRetryAt)
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (uuid.UUID, error) {
	query := `
		INSERT INTO posts (id, user_id, persona_id, content, images, status, scheduled_for, max_retries, auto_schedule, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.MaxRetries <= 0 {
		post.MaxRetries = models.DefaultMaxRetries
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, post.ID, post.UserID, post.PersonaID, post.Content, pq.Array(post.Images),
		post.Status, post.ScheduledFor, post.MaxRetries, post.AutoSchedule, post.Priority).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post models.Post
	err := scanPost(r.db.QueryRowContext(ctx, query, id), &post)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postRepository) ListAutoScheduleCandidates(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND auto_schedule = TRUE AND scheduled_for IS NULL AND persona_id IS NOT NULL`
	return r.list(ctx, query, models.PostStatusDraft)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		if err := scanPost(rows, &post); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// Update writes the user-editable fields. Lifecycle bookkeeping (retries,
// published_at) is only touched by the Mark* methods.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET persona_id = $1,
			content = $2,
			images = $3,
			status = $4,
			scheduled_for = $5,
			max_retries = $6,
			auto_schedule = $7,
			priority = $8,
			updated_at = $9
		WHERE id = $10 AND status IN ($11, $12)
	`
	result, err := r.db.ExecContext(ctx, query, post.PersonaID, post.Content, pq.Array(post.Images), post.Status,
		post.ScheduledFor, post.MaxRetries, post.AutoSchedule, post.Priority, time.Now(), post.ID,
		models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *postRepository) Remove(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	query := `
		SELECT p.id, p.user_id, p.persona_id, p.content, p.images, p.status, p.scheduled_for, p.published_at,
			p.retry_count, p.max_retries, p.last_retry_at, p.auto_schedule, p.priority, p.created_at, p.updated_at,
			pe.user_id, pe.is_active, pe.threads_access_token
		FROM posts p
		JOIN personas pe ON pe.id = p.persona_id
		WHERE p.status = $1
			AND p.scheduled_for <= $2
			AND pe.threads_access_token IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var due []*models.DuePost
	for rows.Next() {
		var d models.DuePost
		if err := scanPost(rows, &d.Post, &d.PersonaUserID, &d.PersonaActive, &d.EncryptedToken); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		due = append(due, &d)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return due, nil
}

// Claim moves a post from scheduled to publishing. Only one caller can win
// the claim for a given post; the others get false.
func (r *postRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = $2,
			updated_at = $3
		WHERE id = $4 AND published_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *postRepository) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAttempt, retriedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			retry_count = $2,
			scheduled_for = $3,
			last_retry_at = $4,
			updated_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, retryCount, nextAttempt, retriedAt,
		time.Now(), id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *postRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, retriedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			retry_count = $2,
			last_retry_at = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, retryCount, retriedAt, time.Now(), id,
		models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

// Release hands a claimed post back to the scanner unchanged, moving it from
// publishing to scheduled.
func (r *postRepository) Release(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, time.Now(), id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

// MarkScheduled promotes an auto-schedule draft. It reports false when the
// post was edited or promoted by someone else in the meantime.
func (r *postRepository) MarkScheduled(ctx context.Context, id uuid.UUID, scheduledFor time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			scheduled_for = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5 AND scheduled_for IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledFor, time.Now(), id,
		models.PostStatusDraft)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// Reset returns a failed post to draft so a human can reschedule it.
func (r *postRepository) Reset(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE posts
		SET status = $1,
			retry_count = 0,
			scheduled_for = NULL,
			last_retry_at = NULL,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusDraft, time.Now(), id, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *postRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM posts WHERE user_id = $1 GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotUpdated
	}
	return nil
}
