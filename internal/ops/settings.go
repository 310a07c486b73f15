package ops

import (
	"log/slog"

	"github.com/hpungsan/spark/internal/settings"
)

// GetSettings returns a copy of the owner's current settings.
func (e *Engine) GetSettings(owner string) (*settings.Settings, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	return e.gate(owner).Get().Clone(), nil
}

// UpdateSettingsInput contains parameters for the UpdateSettings operation.
// Nil fields are left unchanged; an empty, non-nil ExcludedApps clears the list.
type UpdateSettingsInput struct {
	Owner         string
	ExpandEnabled *bool
	Trigger       *string
	ExcludedApps  []string
}

// UpdateSettings validates and publishes new settings and returns a copy of
// them. On error the current settings stay in effect.
func (e *Engine) UpdateSettings(input UpdateSettingsInput) (*settings.Settings, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}

	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()

	g := e.gate(owner)
	cur := g.Get()
	next := settings.Settings{
		ExpandEnabled: cur.ExpandEnabled,
		Trigger:       cur.Trigger,
		ExcludedApps:  cur.ExcludedApps,
	}
	if input.ExpandEnabled != nil {
		next.ExpandEnabled = *input.ExpandEnabled
	}
	if input.Trigger != nil {
		next.Trigger = *input.Trigger
	}
	if input.ExcludedApps != nil {
		next.ExcludedApps = input.ExcludedApps
	}

	s, err := g.Set(next)
	if err != nil {
		return nil, err
	}

	e.persist.SaveSettings(owner, s)
	e.logger.Info("settings updated",
		slog.String("owner", owner),
		slog.Bool("expand_enabled", s.ExpandEnabled),
		slog.String("trigger", s.Trigger),
		slog.Int("excluded_apps", len(s.ExcludedApps)),
	)
	return s.Clone(), nil
}
