package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/threads"
)

// memPosts is an in-memory PostRepository. Tokens are keyed by persona, the
// way ListDue joins them from the personas table.
type memPosts struct {
	mu     sync.Mutex
	order  []uuid.UUID
	posts  map[uuid.UUID]*models.Post
	tokens map[uuid.UUID]string

	listDueErr   error
	listAutoErr  error
	claimErr     error
	lostClaims   map[uuid.UUID]bool
	publishedErr error
	// retryErr and failedErr fail the next MarkRetry or MarkFailed once.
	retryErr   error
	failedErr  error
	releaseErr error
}

func newMemPosts() *memPosts {
	return &memPosts{
		posts:      make(map[uuid.UUID]*models.Post),
		tokens:     make(map[uuid.UUID]string),
		lostClaims: make(map[uuid.UUID]bool),
	}
}

func (m *memPosts) add(p *models.Post) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.order = append(m.order, p.ID)
	m.posts[p.ID] = p
	return p
}

func (m *memPosts) get(id uuid.UUID) models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.posts[id]
}

func (m *memPosts) Create(_ context.Context, post *models.Post) (uuid.UUID, error) {
	return m.add(post).ID, nil
}

func (m *memPosts) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, id := range m.order {
		if p := m.posts[id]; p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPosts) CheckByUserID(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	return ok && p.UserID == userID, nil
}

func (m *memPosts) Update(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[post.ID]
	if !ok || (cur.Status != models.PostStatusDraft && cur.Status != models.PostStatusScheduled) {
		return repository.ErrNotUpdated
	}
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memPosts) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memPosts) CountByStatus(_ context.Context, userID uuid.UUID) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range m.posts {
		if p.UserID == userID {
			counts[p.Status]++
		}
	}
	return counts, nil
}

func (m *memPosts) ListDue(_ context.Context, now time.Time) ([]*models.DuePost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listDueErr != nil {
		return nil, m.listDueErr
	}
	var out []*models.DuePost
	for _, id := range m.order {
		p := m.posts[id]
		if p.Status != models.PostStatusScheduled || p.ScheduledFor == nil || p.ScheduledFor.After(now) {
			continue
		}
		if p.PersonaID == nil {
			continue
		}
		token := m.tokens[*p.PersonaID]
		if token == "" {
			continue
		}
		out = append(out, &models.DuePost{Post: *p, PersonaUserID: p.UserID, PersonaActive: true, EncryptedToken: token})
	}
	return out, nil
}

func (m *memPosts) ListAutoScheduleCandidates(_ context.Context) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listAutoErr != nil {
		return nil, m.listAutoErr
	}
	var out []*models.Post
	for _, id := range m.order {
		p := m.posts[id]
		if p.Status == models.PostStatusDraft && p.AutoSchedule && p.ScheduledFor == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPosts) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return false, m.claimErr
	}
	if m.lostClaims[id] {
		return false, nil
	}
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusScheduled {
		return false, nil
	}
	p.Status = models.PostStatusPublishing
	return true, nil
}

func (m *memPosts) MarkPublished(_ context.Context, id uuid.UUID, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishedErr != nil {
		return m.publishedErr
	}
	p, ok := m.posts[id]
	if !ok || p.PublishedAt != nil {
		return repository.ErrNotUpdated
	}
	p.Status = models.PostStatusPublished
	p.PublishedAt = &publishedAt
	return nil
}

func (m *memPosts) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, nextAttempt, retriedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.retryErr; err != nil {
		m.retryErr = nil
		return err
	}
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusPublishing {
		return repository.ErrNotUpdated
	}
	p.Status = models.PostStatusScheduled
	p.RetryCount = retryCount
	p.ScheduledFor = &nextAttempt
	p.LastRetryAt = &retriedAt
	return nil
}

func (m *memPosts) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, retriedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failedErr; err != nil {
		m.failedErr = nil
		return err
	}
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusPublishing {
		return repository.ErrNotUpdated
	}
	p.Status = models.PostStatusFailed
	p.RetryCount = retryCount
	p.LastRetryAt = &retriedAt
	return nil
}

func (m *memPosts) Release(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releaseErr != nil {
		return m.releaseErr
	}
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusPublishing {
		return repository.ErrNotUpdated
	}
	p.Status = models.PostStatusScheduled
	return nil
}

func (m *memPosts) MarkScheduled(_ context.Context, id uuid.UUID, scheduledFor time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusDraft || p.ScheduledFor != nil {
		return false, nil
	}
	p.Status = models.PostStatusScheduled
	p.ScheduledFor = &scheduledFor
	return true, nil
}

func (m *memPosts) Reset(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != models.PostStatusFailed {
		return repository.ErrNotUpdated
	}
	p.Status = models.PostStatusDraft
	p.RetryCount = 0
	p.ScheduledFor = nil
	p.LastRetryAt = nil
	return nil
}

type memSettings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.SchedulingSettings
	err  error
}

func newMemSettings() *memSettings {
	return &memSettings{rows: make(map[uuid.UUID]*models.SchedulingSettings)}
}

func (m *memSettings) GetByPersonaID(_ context.Context, personaID uuid.UUID) (*models.SchedulingSettings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	s, ok := m.rows[personaID]
	if !ok {
		return nil, false, nil
	}
	cp := *s
	return &cp, true, nil
}

func (m *memSettings) Upsert(_ context.Context, s *models.SchedulingSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rows[s.PersonaID]; ok {
		s.ID = cur.ID
	} else if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	m.rows[s.PersonaID] = &cp
	return nil
}

type memActivity struct {
	mu      sync.Mutex
	entries []*models.ActivityLog
	err     error
}

func (m *memActivity) Insert(_ context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memActivity) ListByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ActivityLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memActivity) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.ActionType
	}
	return out
}

type memPersonas struct {
	mu       sync.Mutex
	personas map[uuid.UUID]*models.Persona
}

func newMemPersonas() *memPersonas {
	return &memPersonas{personas: make(map[uuid.UUID]*models.Persona)}
}

func (m *memPersonas) add(p *models.Persona) *models.Persona {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.personas[p.ID] = p
	return p
}

func (m *memPersonas) Create(_ context.Context, p *models.Persona) (uuid.UUID, error) {
	return m.add(p).ID, nil
}

func (m *memPersonas) GetByID(_ context.Context, id uuid.UUID) (*models.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPersonas) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Persona
	for _, p := range m.personas {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPersonas) ListExpiring(_ context.Context, before time.Time) ([]*models.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Persona
	for _, p := range m.personas {
		if p.AccessToken != "" && p.TokenExpiresAt != nil && p.TokenExpiresAt.Before(before) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPersonas) CheckByUserID(_ context.Context, personaID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[personaID]
	return ok && p.UserID == userID, nil
}

func (m *memPersonas) Update(_ context.Context, p *models.Persona) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.personas[p.ID]; !ok {
		return repository.ErrNotUpdated
	}
	cp := *p
	m.personas[p.ID] = &cp
	return nil
}

func (m *memPersonas) SetCredential(_ context.Context, id uuid.UUID, threadsUserID, username, encryptedToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok {
		return repository.ErrNotUpdated
	}
	p.ThreadsUserID = threadsUserID
	p.ThreadsUsername = username
	p.AccessToken = encryptedToken
	p.TokenExpiresAt = &expiresAt
	p.IsActive = true
	return nil
}

func (m *memPersonas) RotateCredential(_ context.Context, id uuid.UUID, oldEncryptedToken, newEncryptedToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[id]
	if !ok || p.AccessToken != oldEncryptedToken {
		return repository.ErrNotUpdated
	}
	p.AccessToken = newEncryptedToken
	p.TokenExpiresAt = &expiresAt
	return nil
}

func (m *memPersonas) ClearCredential(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.personas[id]; ok {
		p.AccessToken = ""
		p.TokenExpiresAt = nil
	}
	return nil
}

func (m *memPersonas) Remove(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.personas, id)
	return nil
}

// plainCipher seals tokens by prefixing them, so tests can read the store.
type plainCipher struct{}

func (plainCipher) Encrypt(plain string) (string, error) { return "sealed:" + plain, nil }

func (plainCipher) Decrypt(sealed string) (string, error) {
	plain, ok := strings.CutPrefix(sealed, "sealed:")
	if !ok {
		return "", ErrInvalidCredential
	}
	return plain, nil
}

type publishCall struct {
	req   threads.PublishRequest
	token string
}

// fakePublisher returns remote ids in call order. errs is keyed by post
// content so a test can fail chosen posts.
type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	errs  map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, req threads.PublishRequest, accessToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{req: req, token: accessToken})

	var text string
	switch r := req.(type) {
	case threads.TextOnly:
		text = r.Text
	case threads.SingleImage:
		text = r.Text
	case threads.Carousel:
		text = r.Text
	}
	if err, ok := f.errs[text]; ok {
		return "", err
	}
	return "remote-" + text, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errBoom = errors.New("boom")

// dispatchFixture wires a Dispatcher over the in-memory stores.
type dispatchFixture struct {
	posts     *memPosts
	settings  *memSettings
	activity  *memActivity
	publisher *fakePublisher
	d         *Dispatcher
	userID    uuid.UUID
	personaID uuid.UUID
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		posts:     newMemPosts(),
		settings:  newMemSettings(),
		activity:  &memActivity{},
		publisher: &fakePublisher{errs: make(map[string]error)},
		userID:    uuid.New(),
		personaID: uuid.New(),
	}
	f.posts.tokens[f.personaID] = "sealed:token-1"

	logger := NewActivityLogger(f.activity)
	scanner := NewScanner(f.posts, plainCipher{})
	auto := NewAutoScheduler(f.posts, f.settings, logger)
	f.d = NewDispatcher(scanner, f.posts, f.settings, f.publisher, logger, auto, 1)
	return f
}

func (f *dispatchFixture) scheduled(content string, at time.Time) *models.Post {
	personaID := f.personaID
	return f.posts.add(&models.Post{
		UserID:       f.userID,
		PersonaID:    &personaID,
		Content:      content,
		Status:       models.PostStatusScheduled,
		ScheduledFor: &at,
		MaxRetries:   models.DefaultMaxRetries,
	})
}
