package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
)

type ThreadReplyRepository interface {
	// Record stores an incoming reply once; a duplicate reply id returns the
	// existing row's id and false.
	Record(ctx context.Context, reply *models.ThreadReply) (uuid.UUID, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ThreadReply, error)
	MarkAutoReplySent(ctx context.Context, id uuid.UUID) error
}

type threadReplyRepository struct {
	db *sql.DB
}

func NewThreadReplyRepository(db *sql.DB) ThreadReplyRepository {
	return &threadReplyRepository{db: db}
}

func (r *threadReplyRepository) Record(ctx context.Context, reply *models.ThreadReply) (uuid.UUID, bool, error) {
	query := `
		INSERT INTO thread_replies (id, user_id, persona_id, original_post_id, reply_id, reply_author_id,
			reply_author_username, reply_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reply_id) DO NOTHING
		RETURNING id
	`

	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, reply.ID, reply.UserID, reply.PersonaID, reply.OriginalPostID,
		reply.ReplyID, reply.ReplyAuthorID, reply.ReplyAuthorUsername, reply.ReplyText).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		slog.Info(err.Error())
		return uuid.Nil, false, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT id FROM thread_replies WHERE reply_id = $1`, reply.ReplyID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, false, err
	}
	return id, false, nil
}

func (r *threadReplyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ThreadReply, error) {
	query := `
		SELECT id, user_id, persona_id, original_post_id, reply_id, reply_author_id, reply_author_username,
			reply_text, auto_reply_sent, created_at
		FROM thread_replies WHERE id = $1
	`

	var t models.ThreadReply
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.UserID, &t.PersonaID, &t.OriginalPostID, &t.ReplyID,
		&t.ReplyAuthorID, &t.ReplyAuthorUsername, &t.ReplyText, &t.AutoReplySent, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &t, nil
}

// MarkAutoReplySent flips the flag once; a second call returns ErrNotUpdated.
func (r *threadReplyRepository) MarkAutoReplySent(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE thread_replies SET auto_reply_sent = TRUE WHERE id = $1 AND auto_reply_sent = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}
