package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

// Replier posts a reply under an existing thread.
type Replier interface {
	Reply(ctx context.Context, replyToID, text, accessToken string) (string, error)
}

type ReplyService interface {
	// Record stores an incoming reply and reports whether it is new.
	Record(ctx context.Context, userID uuid.UUID, ev *transfer.ReplyEvent) (uuid.UUID, bool, error)
	// Process decides on and sends the auto-reply for a recorded reply.
	Process(ctx context.Context, threadReplyID uuid.UUID) (Decision, error)

	CreateRule(ctx context.Context, userID uuid.UUID, req *transfer.AutoReplyRequest) (*models.AutoReply, error)
	ListRules(ctx context.Context, userID, personaID uuid.UUID) ([]*models.AutoReply, error)
	RemoveRule(ctx context.Context, userID, ruleID uuid.UUID) error
}

type replyService struct {
	personas repository.PersonaRepository
	rules    repository.AutoReplyRepository
	replies  repository.ThreadReplyRepository
	decider  Decider
	replier  Replier
	cipher   TokenCipher
	activity *ActivityLogger
}

func NewReplyService(
	personas repository.PersonaRepository,
	rules repository.AutoReplyRepository,
	replies repository.ThreadReplyRepository,
	decider Decider,
	replier Replier,
	cipher TokenCipher,
	activity *ActivityLogger) ReplyService {
	return &replyService{
		personas: personas,
		rules:    rules,
		replies:  replies,
		decider:  decider,
		replier:  replier,
		cipher:   cipher,
		activity: activity,
	}
}

func (s *replyService) Record(ctx context.Context, userID uuid.UUID, ev *transfer.ReplyEvent) (uuid.UUID, bool, error) {
	if ev == nil || ev.ReplyID == "" || ev.OriginalPostID == "" || strings.TrimSpace(ev.ReplyText) == "" {
		return uuid.Nil, false, errors.New("reply event is missing required fields")
	}

	owned, err := s.personas.CheckByUserID(ctx, ev.PersonaID, userID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if !owned {
		return uuid.Nil, false, ErrPersonaNotFound
	}

	return s.replies.Record(ctx, &models.ThreadReply{
		UserID:              userID,
		PersonaID:           ev.PersonaID,
		OriginalPostID:      ev.OriginalPostID,
		ReplyID:             ev.ReplyID,
		ReplyAuthorID:       ev.ReplyAuthorID,
		ReplyAuthorUsername: ev.ReplyAuthorUsername,
		ReplyText:           ev.ReplyText,
	})
}

func (s *replyService) Process(ctx context.Context, threadReplyID uuid.UUID) (Decision, error) {
	reply, err := s.replies.GetByID(ctx, threadReplyID)
	if err != nil {
		return Decision{}, err
	}
	if reply == nil {
		return Decision{}, fmt.Errorf("thread reply %s not found", threadReplyID)
	}
	if reply.AutoReplySent {
		return Decision{}, nil
	}

	persona, err := s.personas.GetByID(ctx, reply.PersonaID)
	if err != nil {
		return Decision{}, err
	}
	if persona == nil {
		return Decision{}, ErrPersonaNotFound
	}
	if !persona.AIAutoReplyEnabled {
		slog.Info("auto reply disabled for persona", "persona_id", persona.ID)
		return Decision{}, nil
	}
	if !persona.Connected() {
		return Decision{}, ErrPersonaNotConnected
	}

	rules, err := s.rules.ListActiveByPersonaID(ctx, persona.ID)
	if err != nil {
		return Decision{}, err
	}

	decision, err := s.decider.Decide(ctx, &ReplyContext{Persona: persona, Rules: rules, Reply: reply})
	if err != nil {
		return Decision{}, err
	}
	if !decision.Reply || decision.Text == "" {
		slog.Info("no reply needed", "thread_reply_id", reply.ID)
		return Decision{}, nil
	}

	token, err := s.cipher.Decrypt(persona.AccessToken)
	if err != nil {
		return Decision{}, err
	}

	remoteID, err := s.replier.Reply(ctx, reply.ReplyID, decision.Text, token)
	if err != nil {
		return Decision{}, fmt.Errorf("send auto reply: %w", err)
	}

	if err := s.replies.MarkAutoReplySent(ctx, reply.ID); err != nil {
		slog.Error("auto reply sent but not recorded", "thread_reply_id", reply.ID, "remote_id", remoteID, "error", err)
	}

	s.activity.Append(ctx, &models.ActivityLog{
		UserID:      reply.UserID,
		PersonaID:   &persona.ID,
		ActionType:  models.ActionAutoReplySent,
		Description: fmt.Sprintf("Auto-replied to @%s", reply.ReplyAuthorUsername),
		Metadata: map[string]any{
			"thread_reply_id": reply.ID.String(),
			"threads_id":      remoteID,
			"source":          decision.Source,
		},
	})
	return decision, nil
}

func (s *replyService) CreateRule(ctx context.Context, userID uuid.UUID, req *transfer.AutoReplyRequest) (*models.AutoReply, error) {
	if req == nil || strings.TrimSpace(req.ResponseTemplate) == "" {
		return nil, errors.New("response template cannot be empty")
	}

	var keywords []string
	for _, kw := range req.TriggerKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil, errors.New("at least one trigger keyword is required")
	}

	owned, err := s.personas.CheckByUserID(ctx, req.PersonaID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrPersonaNotFound
	}

	rule := &models.AutoReply{
		UserID:           userID,
		PersonaID:        req.PersonaID,
		TriggerKeywords:  keywords,
		ResponseTemplate: req.ResponseTemplate,
		IsActive:         true,
	}
	id, err := s.rules.Create(ctx, rule)
	if err != nil {
		return nil, err
	}
	rule.ID = id
	return rule, nil
}

func (s *replyService) ListRules(ctx context.Context, userID, personaID uuid.UUID) ([]*models.AutoReply, error) {
	owned, err := s.personas.CheckByUserID(ctx, personaID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrPersonaNotFound
	}
	return s.rules.ListByPersonaID(ctx, personaID)
}

func (s *replyService) RemoveRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	err := s.rules.Remove(ctx, ruleID, userID)
	if errors.Is(err, repository.ErrNotUpdated) {
		return errors.New("auto reply rule not found")
	}
	return err
}
