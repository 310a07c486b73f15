package settings

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spark/internal/errors"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		combo   string
		want    string
		wantErr bool
	}{
		{combo: "Ctrl+Alt+Space", want: "Ctrl+Alt+Space"},
		{combo: "alt + control + space", want: "Ctrl+Alt+Space"},
		{combo: "cmd+shift+k", want: "Shift+Cmd+K"},
		{combo: "Option+F12", want: "Alt+F12"},
		{combo: "Super+Enter", want: "Cmd+Enter"},
		{combo: "ctrl+ctrl+x", want: "Ctrl+X"},
		{combo: "", wantErr: true},
		{combo: "Space", wantErr: true},
		{combo: "Ctrl+Alt", wantErr: true},
		{combo: "Ctrl+A+B", wantErr: true},
		{combo: "Ctrl++A", wantErr: true},
		{combo: "Ctrl+F30", wantErr: true},
		{combo: "Ctrl+Banana", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			hk, err := ParseHotkey(tt.combo)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, hk.String())
		})
	}
}

func TestValidate_NormalizesExcludedApps(t *testing.T) {
	s, err := Validate(Settings{
		ExpandEnabled: true,
		Trigger:       "ctrl+alt+space",
		ExcludedApps:  []string{"  Slack ", "slack", "", "Google  Chrome", "SLACK"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Alt+Space", s.Trigger)
	assert.Equal(t, []string{"google chrome", "slack"}, s.ExcludedApps)
}

func TestValidate_BadTrigger(t *testing.T) {
	_, err := Validate(Settings{ExpandEnabled: true, Trigger: "space"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.True(t, s.ExpandEnabled)
	assert.Equal(t, DefaultTrigger, s.Trigger)
	assert.Empty(t, s.ExcludedApps)

	hk, err := ParseHotkey(s.Trigger)
	require.NoError(t, err)
	assert.Equal(t, "Space", hk.Key)
}

func TestClone_SharesNothing(t *testing.T) {
	s, err := Validate(Settings{ExpandEnabled: true, Trigger: DefaultTrigger, ExcludedApps: []string{"Slack"}})
	require.NoError(t, err)

	c := s.Clone()
	assert.Equal(t, s.ExcludedApps, c.ExcludedApps)
	assert.False(t, c.IsExpansionAllowed("slack"))

	c.ExcludedApps[0] = "notes"
	c.ExpandEnabled = false
	assert.Equal(t, []string{"slack"}, s.ExcludedApps)
	assert.True(t, s.ExpandEnabled)
	assert.False(t, s.IsExpansionAllowed("slack"))
	assert.True(t, s.IsExpansionAllowed("notes"))

	var nilSettings *Settings
	assert.Nil(t, nilSettings.Clone())
}

func TestIsExpansionAllowed(t *testing.T) {
	g := NewGate(nil)
	assert.True(t, g.IsExpansionAllowed("Slack"))

	_, err := g.Set(Settings{ExpandEnabled: true, Trigger: DefaultTrigger, ExcludedApps: []string{"Slack"}})
	require.NoError(t, err)
	assert.False(t, g.IsExpansionAllowed("slack"))
	assert.False(t, g.IsExpansionAllowed("  SLACK "))
	assert.True(t, g.IsExpansionAllowed("Notes"))
	assert.True(t, g.IsExpansionAllowed(""))

	_, err = g.Set(Settings{ExpandEnabled: false, Trigger: DefaultTrigger})
	require.NoError(t, err)
	assert.False(t, g.IsExpansionAllowed("Notes"))
}

func TestGateSet_InvalidLeavesCurrent(t *testing.T) {
	g := NewGate(nil)
	before := g.Get()

	_, err := g.Set(Settings{ExpandEnabled: false, Trigger: "nope"})
	require.Error(t, err)
	assert.Same(t, before, g.Get())
	assert.True(t, g.Get().ExpandEnabled)
}

func TestGate_ConcurrentSetAndRead(t *testing.T) {
	g := NewGate(nil)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, _ = g.Set(Settings{ExpandEnabled: i%2 == 0, Trigger: DefaultTrigger, ExcludedApps: []string{"a"}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s := g.Get()
			// Every snapshot is internally consistent.
			assert.Equal(t, len(s.ExcludedApps), len(s.excluded))
		}
	}()
	wg.Wait()
}
