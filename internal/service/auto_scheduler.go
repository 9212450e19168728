package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
)

// NextSlot returns the first configured hour strictly after ref's hour on
// ref's day, or the earliest configured hour on the following day. Times are
// on the hour in ref's location. Hours outside 0..23 are ignored; with none
// left the default set is used.
func NextSlot(hours []int, ref time.Time) time.Time {
	valid := normalizeHours(hours)
	if len(valid) == 0 {
		valid = normalizeHours(models.DefaultOptimalHours)
	}

	year, month, day := ref.Date()
	for _, h := range valid {
		if h > ref.Hour() {
			return time.Date(year, month, day, h, 0, 0, 0, ref.Location())
		}
	}
	return time.Date(year, month, day+1, valid[0], 0, 0, 0, ref.Location())
}

func normalizeHours(hours []int) []int {
	seen := make(map[int]bool, len(hours))
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

// LoadLocation resolves a settings timezone. An empty name means the default
// zone and an unknown one falls back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// AutoScheduler assigns publish times to drafts that asked for one.
type AutoScheduler struct {
	posts    repository.PostRepository
	settings repository.SettingsRepository
	activity *ActivityLogger
}

func NewAutoScheduler(posts repository.PostRepository, settings repository.SettingsRepository, activity *ActivityLogger) *AutoScheduler {
	return &AutoScheduler{posts: posts, settings: settings, activity: activity}
}

// Run promotes every eligible draft and returns how many were scheduled.
// Only the candidate query failing is an error.
func (a *AutoScheduler) Run(ctx context.Context, now time.Time) (int, error) {
	candidates, err := a.posts.ListAutoScheduleCandidates(ctx)
	if err != nil {
		return 0, err
	}

	settingsByPersona := make(map[uuid.UUID]*models.SchedulingSettings)
	scheduled := 0

	for _, post := range candidates {
		if post.PersonaID == nil {
			continue
		}

		settings, ok := settingsByPersona[*post.PersonaID]
		if !ok {
			s, exists, err := a.settings.GetByPersonaID(ctx, *post.PersonaID)
			if err != nil {
				slog.Error("failed to load scheduling settings", "persona_id", *post.PersonaID, "error", err)
				continue
			}
			if exists {
				settings = s
			}
			settingsByPersona[*post.PersonaID] = settings
		}
		if settings == nil || !settings.AutoScheduleEnabled {
			continue
		}

		loc := LoadLocation(settings.Timezone)
		slot := NextSlot(settings.OptimalHours, now.In(loc))

		promoted, err := a.posts.MarkScheduled(ctx, post.ID, slot)
		if err != nil {
			slog.Error("failed to auto-schedule post", "post_id", post.ID, "error", err)
			continue
		}
		if !promoted {
			continue
		}
		scheduled++

		slog.Info("post auto-scheduled", "post_id", post.ID, "scheduled_for", slot)
		a.activity.Append(ctx, &models.ActivityLog{
			UserID:      post.UserID,
			PersonaID:   post.PersonaID,
			ActionType:  models.ActionPostAutoScheduled,
			Description: fmt.Sprintf("Post auto-scheduled for %s", slot.Format("2006-01-02 15:04 MST")),
			Metadata: map[string]any{
				"post_id":       post.ID.String(),
				"scheduled_for": slot.UTC().Format(time.RFC3339),
				"timezone":      loc.String(),
			},
		})
	}

	return scheduled, nil
}
