// Package settings owns the expansion settings for a session and answers
// whether expansion is currently allowed.
package settings

import (
	"sort"
	"sync/atomic"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// DefaultTrigger is the hotkey used when none is configured.
const DefaultTrigger = "Ctrl+Alt+Space"

// Settings is an immutable snapshot. Callers must not modify a value
// obtained from Gate.Get; build a new one and pass it to Set instead.
type Settings struct {
	ExpandEnabled bool     `json:"expand_enabled"`
	Trigger       string   `json:"trigger"`
	ExcludedApps  []string `json:"excluded_apps"`

	excluded map[string]struct{}
}

// Default returns the settings used before any update.
func Default() *Settings {
	s, _ := Validate(Settings{ExpandEnabled: true, Trigger: DefaultTrigger})
	return s
}

// Validate returns a normalized copy of in: the trigger is re-rendered in
// canonical form and excluded app names are trimmed, lower-cased,
// de-duplicated and sorted.
func Validate(in Settings) (*Settings, error) {
	hk, err := ParseHotkey(in.Trigger)
	if err != nil {
		return nil, errors.NewValidation("trigger", err.Error())
	}

	out := &Settings{
		ExpandEnabled: in.ExpandEnabled,
		Trigger:       hk.String(),
		ExcludedApps:  []string{},
		excluded:      make(map[string]struct{}),
	}
	for _, app := range in.ExcludedApps {
		norm := snippet.NormalizeAppName(app)
		if norm == "" {
			continue
		}
		if _, dup := out.excluded[norm]; dup {
			continue
		}
		out.excluded[norm] = struct{}{}
		out.ExcludedApps = append(out.ExcludedApps, norm)
	}
	sort.Strings(out.ExcludedApps)
	return out, nil
}

// Clone returns a deep copy that shares nothing with s.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := &Settings{
		ExpandEnabled: s.ExpandEnabled,
		Trigger:       s.Trigger,
		ExcludedApps:  append([]string{}, s.ExcludedApps...),
	}
	if s.excluded != nil {
		c.excluded = make(map[string]struct{}, len(s.excluded))
		for app := range s.excluded {
			c.excluded[app] = struct{}{}
		}
	}
	return c
}

// IsExpansionAllowed reports whether expansion may fire while app has focus.
func (s *Settings) IsExpansionAllowed(app string) bool {
	if s == nil || !s.ExpandEnabled {
		return false
	}
	if len(s.ExcludedApps) == 0 {
		return true
	}
	norm := snippet.NormalizeAppName(app)
	if s.excluded == nil {
		// Not built by Validate.
		for _, ex := range s.ExcludedApps {
			if snippet.NormalizeAppName(ex) == norm {
				return false
			}
		}
		return true
	}
	_, excluded := s.excluded[norm]
	return !excluded
}

// Gate holds the current Settings and swaps them atomically.
type Gate struct {
	current atomic.Pointer[Settings]
}

// NewGate returns a Gate initialized with initial, or Default when nil.
func NewGate(initial *Settings) *Gate {
	g := &Gate{}
	if initial == nil {
		initial = Default()
	}
	g.current.Store(initial)
	return g
}

// Get returns the current snapshot.
func (g *Gate) Get() *Settings {
	return g.current.Load()
}

// Set validates next and replaces the current settings as a whole.
// On error the current settings are left unchanged.
func (g *Gate) Set(next Settings) (*Settings, error) {
	s, err := Validate(next)
	if err != nil {
		return nil, err
	}
	g.current.Store(s)
	return s, nil
}

// IsExpansionAllowed consults the current snapshot.
func (g *Gate) IsExpansionAllowed(app string) bool {
	return g.Get().IsExpansionAllowed(app)
}
