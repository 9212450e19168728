package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	personas := newMemPersonas()
	store := newMemSettings()
	userID := uuid.New()
	persona := personas.add(&models.Persona{UserID: userID})
	s := NewSettingsService(store, personas)
	ctx := context.Background()

	got, err := s.GetSettingsInfo(ctx, userID, persona.ID)
	if err != nil {
		t.Fatalf("GetSettingsInfo: %v", err)
	}
	if !reflect.DeepEqual(got.OptimalHours, models.DefaultOptimalHours) || got.Timezone != models.DefaultTimezone || !got.RetryEnabled {
		t.Errorf("defaults = %+v", got)
	}

	off := false
	updated, err := s.UpdateSettings(ctx, userID, persona.ID, &transfer.SettingsRequest{
		OptimalHours:        []int{20, 8, 8},
		AutoScheduleEnabled: true,
		RetryEnabled:        &off,
		Timezone:            "UTC",
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if !reflect.DeepEqual(updated.OptimalHours, []int{8, 20}) || updated.RetryEnabled || !updated.AutoScheduleEnabled {
		t.Errorf("updated = %+v", updated)
	}

	stored, exists, _ := store.GetByPersonaID(ctx, persona.ID)
	if !exists || stored.Timezone != "UTC" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSettingsValidation(t *testing.T) {
	personas := newMemPersonas()
	userID := uuid.New()
	persona := personas.add(&models.Persona{UserID: userID})
	s := NewSettingsService(newMemSettings(), personas)
	ctx := context.Background()

	bad := []*transfer.SettingsRequest{
		{OptimalHours: []int{24}},
		{OptimalHours: []int{-1}},
		{Timezone: "Mars/Olympus"},
		{QueueLimit: -1},
	}
	for _, req := range bad {
		if _, err := s.UpdateSettings(ctx, userID, persona.ID, req); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("UpdateSettings(%+v) err = %v", req, err)
		}
	}

	if _, err := s.GetSettingsInfo(ctx, uuid.New(), persona.ID); err != ErrPersonaNotFound {
		t.Errorf("foreign persona err = %v", err)
	}
}

func TestActivityLoggerSwallowsErrors(t *testing.T) {
	repo := &memActivity{err: errBoom}
	l := NewActivityLogger(repo)

	l.Append(context.Background(), &models.ActivityLog{ActionType: models.ActionPostPublished})

	repo.err = nil
	userID := uuid.New()
	for i := 0; i < 60; i++ {
		l.Append(context.Background(), &models.ActivityLog{UserID: userID, ActionType: models.ActionPostPublished})
	}
	logs, err := l.List(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(logs) != defaultActivityLimit {
		t.Errorf("len = %d, want %d", len(logs), defaultActivityLimit)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("short"); got != "short" {
		t.Errorf("excerpt = %q", got)
	}
	long := strings.Repeat("あ", 60)
	got := []rune(excerpt(long))
	if len(got) != 53 || string(got[50:]) != "..." {
		t.Errorf("excerpt = %q", string(got))
	}
}
