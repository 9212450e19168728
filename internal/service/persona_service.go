package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/threads"
	"github.com/maheshrc27/threadflow/internal/transfer"
	"github.com/maheshrc27/threadflow/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	stateTokenDuration = 15 * time.Minute
	// refreshWindow is how close to expiry a long-lived token gets refreshed.
	refreshWindow = 7 * 24 * time.Hour
)

// ThreadsAccount is the account side of the Threads API: profile lookups and
// long-lived token handling.
type ThreadsAccount interface {
	Profile(ctx context.Context, accessToken string) (*threads.Profile, error)
	ExchangeLongLived(ctx context.Context, appSecret, shortLivedToken string) (*threads.Token, error)
	RefreshToken(ctx context.Context, accessToken string) (*threads.Token, error)
}

type PersonaService interface {
	Create(ctx context.Context, userID uuid.UUID, req *transfer.PersonaRequest) (*models.Persona, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Persona, error)
	Get(ctx context.Context, userID, personaID uuid.UUID) (*models.Persona, error)
	Update(ctx context.Context, userID, personaID uuid.UUID, req *transfer.PersonaRequest) (*models.Persona, error)
	Delete(ctx context.Context, userID, personaID uuid.UUID) error

	AuthURL(ctx context.Context, userID, personaID uuid.UUID) (string, error)
	Callback(ctx context.Context, code, state string) (uuid.UUID, error)
	Profile(ctx context.Context, userID, personaID uuid.UUID) (*threads.Profile, error)
	Disconnect(ctx context.Context, userID, personaID uuid.UUID) error
	RefreshExpiring(ctx context.Context, now time.Time) (int, error)
}

type personaService struct {
	personas  repository.PersonaRepository
	account   ThreadsAccount
	oauth     *oauth2.Config
	cipher    TokenCipher
	activity  *ActivityLogger
	secretKey string
}

func NewPersonaService(
	personas repository.PersonaRepository,
	account ThreadsAccount,
	oauth *oauth2.Config,
	cipher TokenCipher,
	activity *ActivityLogger,
	secretKey string) PersonaService {
	return &personaService{
		personas:  personas,
		account:   account,
		oauth:     oauth,
		cipher:    cipher,
		activity:  activity,
		secretKey: secretKey,
	}
}

func (s *personaService) Create(ctx context.Context, userID uuid.UUID, req *transfer.PersonaRequest) (*models.Persona, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("persona name cannot be empty")
	}

	p := &models.Persona{
		UserID:             userID,
		Name:               strings.TrimSpace(req.Name),
		Personality:        req.Personality,
		ToneOfVoice:        req.ToneOfVoice,
		Expertise:          req.Expertise,
		AIAutoReplyEnabled: req.AIAutoReplyEnabled,
		IsActive:           true,
	}
	if p.Expertise == nil {
		p.Expertise = []string{}
	}

	id, err := s.personas.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

func (s *personaService) List(ctx context.Context, userID uuid.UUID) ([]*models.Persona, error) {
	return s.personas.ListByUserID(ctx, userID)
}

func (s *personaService) Get(ctx context.Context, userID, personaID uuid.UUID) (*models.Persona, error) {
	p, err := s.personas.GetByID(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, ErrPersonaNotFound
	}
	return p, nil
}

func (s *personaService) Update(ctx context.Context, userID, personaID uuid.UUID, req *transfer.PersonaRequest) (*models.Persona, error) {
	p, err := s.Get(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("persona name cannot be empty")
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Personality = req.Personality
	p.ToneOfVoice = req.ToneOfVoice
	p.Expertise = req.Expertise
	if p.Expertise == nil {
		p.Expertise = []string{}
	}
	p.AIAutoReplyEnabled = req.AIAutoReplyEnabled

	if err := s.personas.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the persona together with its posts, settings, activity
// and reply data.
func (s *personaService) Delete(ctx context.Context, userID, personaID uuid.UUID) error {
	owned, err := s.personas.CheckByUserID(ctx, personaID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrPersonaNotFound
	}

	if err := s.personas.Remove(ctx, personaID); err != nil {
		return err
	}
	slog.Info("persona deleted", "persona_id", personaID)
	return nil
}

// AuthURL starts the Threads OAuth flow for one persona. The state is a
// short-lived signed token naming the user and the persona.
func (s *personaService) AuthURL(ctx context.Context, userID, personaID uuid.UUID) (string, error) {
	owned, err := s.personas.CheckByUserID(ctx, personaID, userID)
	if err != nil {
		return "", err
	}
	if !owned {
		return "", ErrPersonaNotFound
	}

	if s.oauth.ClientID == "" || s.oauth.RedirectURL == "" {
		err = errors.New("Threads OAuth configuration is incomplete")
		slog.Info(err.Error())
		return "", err
	}

	state, err := utils.GenerateStateToken(s.secretKey, userID.String(), personaID.String(), stateTokenDuration)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// Callback finishes the OAuth flow and stores the persona's credential.
func (s *personaService) Callback(ctx context.Context, code, state string) (uuid.UUID, error) {
	if code == "" || state == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	claims, err := utils.ValidateStateToken(s.secretKey, state)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid oauth state: %w", err)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid oauth state: %w", err)
	}
	personaID, err := uuid.Parse(claims.PersonaID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid oauth state: %w", err)
	}

	persona, err := s.Get(ctx, userID, personaID)
	if err != nil {
		return uuid.Nil, err
	}

	short, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info("threads code exchange failed", "persona_id", personaID, "error", err)
		return uuid.Nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	accessToken := short.AccessToken
	expiresAt := short.Expiry
	long, err := s.account.ExchangeLongLived(ctx, s.oauth.ClientSecret, short.AccessToken)
	if err != nil {
		slog.Warn("long-lived token exchange failed, keeping short-lived token", "persona_id", personaID, "error", err)
	} else {
		accessToken = long.AccessToken
		expiresAt = long.ExpiresAt
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	profile, err := s.account.Profile(ctx, accessToken)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to fetch Threads profile: %w", err)
	}

	sealed, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.personas.SetCredential(ctx, personaID, profile.ID, profile.Username, sealed, expiresAt); err != nil {
		return uuid.Nil, err
	}

	slog.Info("persona connected to Threads", "persona_id", personaID, "username", profile.Username)
	s.activity.Append(ctx, &models.ActivityLog{
		UserID:      userID,
		PersonaID:   &persona.ID,
		ActionType:  models.ActionPersonaConnected,
		Description: fmt.Sprintf("Persona %s connected to Threads as @%s", persona.Name, profile.Username),
		Metadata:    map[string]any{"threads_user_id": profile.ID},
	})

	return personaID, nil
}

func (s *personaService) Profile(ctx context.Context, userID, personaID uuid.UUID) (*threads.Profile, error) {
	persona, err := s.Get(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}
	if !persona.Connected() {
		return nil, ErrPersonaNotConnected
	}

	token, err := s.cipher.Decrypt(persona.AccessToken)
	if err != nil {
		return nil, err
	}
	return s.account.Profile(ctx, token)
}

func (s *personaService) Disconnect(ctx context.Context, userID, personaID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, personaID); err != nil {
		return err
	}
	return s.personas.ClearCredential(ctx, personaID)
}

// RefreshExpiring extends every long-lived token that expires within the
// refresh window and returns how many were rotated.
func (s *personaService) RefreshExpiring(ctx context.Context, now time.Time) (int, error) {
	personas, err := s.personas.ListExpiring(ctx, now.Add(refreshWindow))
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, p := range personas {
		if p.TokenExpiresAt != nil && p.TokenExpiresAt.Before(now) {
			slog.Warn("threads token already expired; persona must reconnect", "persona_id", p.ID)
			continue
		}

		token, err := s.cipher.Decrypt(p.AccessToken)
		if err != nil {
			slog.Error("cannot decrypt persona token", "persona_id", p.ID, "error", err)
			continue
		}

		fresh, err := s.account.RefreshToken(ctx, token)
		if err != nil {
			slog.Error("threads token refresh failed", "persona_id", p.ID, "error", err)
			continue
		}

		sealed, err := s.cipher.Encrypt(fresh.AccessToken)
		if err != nil {
			slog.Error("cannot encrypt refreshed token", "persona_id", p.ID, "error", err)
			continue
		}

		if err := s.personas.RotateCredential(ctx, p.ID, p.AccessToken, sealed, fresh.ExpiresAt); err != nil {
			slog.Warn("token rotation skipped", "persona_id", p.ID, "error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
