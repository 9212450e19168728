package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type memRules struct {
	rules []*models.AutoReply
}

func (m *memRules) Create(_ context.Context, rule *models.AutoReply) (uuid.UUID, error) {
	rule.ID = uuid.New()
	m.rules = append(m.rules, rule)
	return rule.ID, nil
}

func (m *memRules) ListByPersonaID(_ context.Context, personaID uuid.UUID) ([]*models.AutoReply, error) {
	var out []*models.AutoReply
	for _, r := range m.rules {
		if r.PersonaID == personaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRules) ListActiveByPersonaID(ctx context.Context, personaID uuid.UUID) ([]*models.AutoReply, error) {
	all, _ := m.ListByPersonaID(ctx, personaID)
	var out []*models.AutoReply
	for _, r := range all {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRules) Remove(_ context.Context, id, userID uuid.UUID) error {
	for i, r := range m.rules {
		if r.ID == id && r.UserID == userID {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotUpdated
}

type memReplies struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.ThreadReply
	byReply map[string]uuid.UUID
}

func newMemReplies() *memReplies {
	return &memReplies{byID: make(map[uuid.UUID]*models.ThreadReply), byReply: make(map[string]uuid.UUID)}
}

func (m *memReplies) Record(_ context.Context, reply *models.ThreadReply) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byReply[reply.ReplyID]; ok {
		return id, false, nil
	}
	reply.ID = uuid.New()
	m.byID[reply.ID] = reply
	m.byReply[reply.ReplyID] = reply.ID
	return reply.ID, true, nil
}

func (m *memReplies) GetByID(_ context.Context, id uuid.UUID) (*models.ThreadReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReplies) MarkAutoReplySent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || r.AutoReplySent {
		return repository.ErrNotUpdated
	}
	r.AutoReplySent = true
	return nil
}

type replyCall struct {
	replyToID, text, token string
}

type fakeReplier struct {
	calls []replyCall
}

func (f *fakeReplier) Reply(_ context.Context, replyToID, text, accessToken string) (string, error) {
	f.calls = append(f.calls, replyCall{replyToID, text, accessToken})
	return "reply-1", nil
}

type replyFixture struct {
	personas *memPersonas
	rules    *memRules
	replies  *memReplies
	replier  *fakeReplier
	activity *memActivity
	s        ReplyService
	userID   uuid.UUID
	persona  *models.Persona
}

func newReplyFixture() *replyFixture {
	f := &replyFixture{
		personas: newMemPersonas(),
		rules:    &memRules{},
		replies:  newMemReplies(),
		replier:  &fakeReplier{},
		activity: &memActivity{},
		userID:   uuid.New(),
	}
	f.persona = f.personas.add(&models.Persona{
		UserID:             f.userID,
		Name:               "Aiko",
		AccessToken:        "sealed:token-1",
		AIAutoReplyEnabled: true,
		IsActive:           true,
	})
	f.s = NewReplyService(f.personas, f.rules, f.replies, KeywordDecider{}, f.replier, plainCipher{}, NewActivityLogger(f.activity))
	return f
}

func (f *replyFixture) event(replyID, text string) *transfer.ReplyEvent {
	return &transfer.ReplyEvent{
		PersonaID:           f.persona.ID,
		OriginalPostID:      "post-1",
		ReplyID:             replyID,
		ReplyAuthorUsername: "reader",
		ReplyText:           text,
	}
}

func TestReplyRecordDeduplicates(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()

	id, isNew, err := f.s.Record(ctx, f.userID, f.event("r1", "hello"))
	if err != nil || !isNew {
		t.Fatalf("first Record = %v, %v", isNew, err)
	}
	again, isNew, err := f.s.Record(ctx, f.userID, f.event("r1", "hello"))
	if err != nil || isNew || again != id {
		t.Fatalf("second Record = %s, %v, %v", again, isNew, err)
	}

	if _, _, err := f.s.Record(ctx, uuid.New(), f.event("r2", "hello")); err != ErrPersonaNotFound {
		t.Errorf("foreign persona err = %v", err)
	}
	if _, _, err := f.s.Record(ctx, f.userID, f.event("r3", "  ")); err == nil {
		t.Errorf("empty reply text accepted")
	}
}

func TestReplyProcessSendsKeywordReply(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()
	if _, err := f.s.CreateRule(ctx, f.userID, &transfer.AutoReplyRequest{
		PersonaID:        f.persona.ID,
		TriggerKeywords:  []string{"price"},
		ResponseTemplate: "Check the link in bio.",
	}); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	id, _, err := f.s.Record(ctx, f.userID, f.event("r1", "what's the price?"))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	decision, err := f.s.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !decision.Reply {
		t.Fatalf("no reply decided")
	}
	if len(f.replier.calls) != 1 {
		t.Fatalf("reply calls = %d", len(f.replier.calls))
	}
	call := f.replier.calls[0]
	if call.replyToID != "r1" || call.text != "Check the link in bio." || call.token != "token-1" {
		t.Errorf("reply call = %+v", call)
	}

	stored, _ := f.replies.GetByID(ctx, id)
	if !stored.AutoReplySent {
		t.Errorf("reply not marked sent")
	}
	if actions := f.activity.actions(); len(actions) != 1 || actions[0] != models.ActionAutoReplySent {
		t.Errorf("activity = %v", actions)
	}

	// A redelivered task must not reply twice.
	if _, err := f.s.Process(ctx, id); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if len(f.replier.calls) != 1 {
		t.Errorf("replied again on redelivery")
	}
}

func TestReplyProcessRespectsPersonaSwitch(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()
	f.personas.personas[f.persona.ID].AIAutoReplyEnabled = false
	f.rules.rules = append(f.rules.rules, &models.AutoReply{
		PersonaID: f.persona.ID, TriggerKeywords: []string{"hello"}, ResponseTemplate: "hi", IsActive: true,
	})

	id, _, _ := f.s.Record(ctx, f.userID, f.event("r1", "hello"))
	decision, err := f.s.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if decision.Reply || len(f.replier.calls) != 0 {
		t.Errorf("replied with auto reply disabled")
	}
}

func TestReplyProcessNoMatch(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()

	id, _, _ := f.s.Record(ctx, f.userID, f.event("r1", "nice"))
	decision, err := f.s.Process(ctx, id)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if decision.Reply || len(f.replier.calls) != 0 {
		t.Errorf("replied without a matching rule")
	}
}

func TestReplyProcessDisconnectedPersona(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()
	f.personas.personas[f.persona.ID].AccessToken = ""

	id, _, _ := f.s.Record(ctx, f.userID, f.event("r1", "hello"))
	if _, err := f.s.Process(ctx, id); err != ErrPersonaNotConnected {
		t.Errorf("err = %v, want ErrPersonaNotConnected", err)
	}
}

func TestReplyRules(t *testing.T) {
	f := newReplyFixture()
	ctx := context.Background()

	if _, err := f.s.CreateRule(ctx, f.userID, &transfer.AutoReplyRequest{
		PersonaID: f.persona.ID, TriggerKeywords: []string{" "}, ResponseTemplate: "x",
	}); err == nil {
		t.Errorf("rule without keywords accepted")
	}

	rule, err := f.s.CreateRule(ctx, f.userID, &transfer.AutoReplyRequest{
		PersonaID: f.persona.ID, TriggerKeywords: []string{" hi ", ""}, ResponseTemplate: "hello",
	})
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if len(rule.TriggerKeywords) != 1 || rule.TriggerKeywords[0] != "hi" {
		t.Errorf("keywords = %q", rule.TriggerKeywords)
	}

	rules, err := f.s.ListRules(ctx, f.userID, f.persona.ID)
	if err != nil || len(rules) != 1 {
		t.Fatalf("ListRules = %d, %v", len(rules), err)
	}
	if _, err := f.s.ListRules(ctx, uuid.New(), f.persona.ID); err != ErrPersonaNotFound {
		t.Errorf("foreign ListRules err = %v", err)
	}

	if err := f.s.RemoveRule(ctx, uuid.New(), rule.ID); err == nil {
		t.Errorf("foreign user removed a rule")
	}
	if err := f.s.RemoveRule(ctx, f.userID, rule.ID); err != nil {
		t.Errorf("RemoveRule: %v", err)
	}
}
