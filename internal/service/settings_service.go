package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID, personaID uuid.UUID) (*models.SchedulingSettings, error)
	UpdateSettings(ctx context.Context, userID, personaID uuid.UUID, req *transfer.SettingsRequest) (*models.SchedulingSettings, error)
}

type settingsService struct {
	sr repository.SettingsRepository
	pr repository.PersonaRepository
}

func NewSettingsService(sr repository.SettingsRepository, pr repository.PersonaRepository) SettingsService {
	return &settingsService{
		sr: sr,
		pr: pr,
	}
}

// GetSettingsInfo returns the stored settings, or the defaults for a persona
// that has none yet.
func (s *settingsService) GetSettingsInfo(ctx context.Context, userID, personaID uuid.UUID) (*models.SchedulingSettings, error) {
	if err := s.checkPersona(ctx, userID, personaID); err != nil {
		return nil, err
	}

	settings, exists, err := s.sr.GetByPersonaID(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return defaultSettings(userID, personaID), nil
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID, personaID uuid.UUID, req *transfer.SettingsRequest) (*models.SchedulingSettings, error) {
	if err := s.checkPersona(ctx, userID, personaID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidSettings)
	}

	settings := defaultSettings(userID, personaID)

	if len(req.OptimalHours) > 0 {
		for _, h := range req.OptimalHours {
			if h < 0 || h > 23 {
				return nil, fmt.Errorf("%w: hour %d is outside 0..23", ErrInvalidSettings, h)
			}
		}
		settings.OptimalHours = normalizeHours(req.OptimalHours)
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSettings, req.Timezone)
		}
		settings.Timezone = req.Timezone
	}

	if req.QueueLimit < 0 {
		return nil, fmt.Errorf("%w: queue_limit cannot be negative", ErrInvalidSettings)
	}
	if req.QueueLimit > 0 {
		settings.QueueLimit = req.QueueLimit
	}

	settings.AutoScheduleEnabled = req.AutoScheduleEnabled
	if req.RetryEnabled != nil {
		settings.RetryEnabled = *req.RetryEnabled
	}

	if err := s.sr.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) checkPersona(ctx context.Context, userID, personaID uuid.UUID) error {
	owned, err := s.pr.CheckByUserID(ctx, personaID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrPersonaNotFound
	}
	return nil
}

func defaultSettings(userID, personaID uuid.UUID) *models.SchedulingSettings {
	return &models.SchedulingSettings{
		UserID:       userID,
		PersonaID:    personaID,
		OptimalHours: append([]int(nil), models.DefaultOptimalHours...),
		QueueLimit:   models.DefaultQueueLimit,
		RetryEnabled: true,
		Timezone:     models.DefaultTimezone,
	}
}
