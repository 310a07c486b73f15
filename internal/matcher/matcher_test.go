package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spark/internal/settings"
	"github.com/hpungsan/spark/internal/snippet"
	"github.com/hpungsan/spark/internal/store"
	"github.com/hpungsan/spark/internal/vars"
)

const owner = "alice"

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New()
}

func add(t *testing.T, s *store.Store, shortcut, body string, mt snippet.MatchType) *snippet.Snippet {
	t.Helper()
	sn, err := s.UpsertSnippet(&snippet.Snippet{
		Owner:     owner,
		Name:      "snippet " + shortcut,
		Shortcut:  shortcut,
		Body:      body,
		IsActive:  true,
		MatchType: mt,
	})
	require.NoError(t, err)
	return sn
}

// typeText feeds text one rune at a time and returns every decision.
func typeText(m *Matcher, gate Gate, text string) []Decision {
	var out []Decision
	for _, r := range text {
		out = append(out, m.OnCharacterTyped(owner, "", r, "Notes", gate))
	}
	return out
}

// expansions returns the expand decisions among ds.
func expansions(ds []Decision) []Decision {
	var out []Decision
	for _, d := range ds {
		if d.Kind == Expand {
			out = append(out, d)
		}
	}
	return out
}

func TestExact_SlashShortcut(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	gate := settings.NewGate(nil)

	tests := []struct {
		typed string
		fires bool
	}{
		{typed: "hi /ty", fires: true},
		{typed: "hix/ty", fires: true},
		{typed: "/ty", fires: true},
		{typed: "/t", fires: false},
		{typed: "/Ty", fires: false},
	}

	for _, tt := range tests {
		t.Run(tt.typed, func(t *testing.T) {
			m := New(s)
			ds := typeText(m, gate, tt.typed)
			exp := expansions(ds)
			if !tt.fires {
				assert.Empty(t, exp)
				return
			}
			require.Len(t, exp, 1)
			assert.Equal(t, 3, exp[0].RemoveCount)
			assert.Equal(t, "Thank you!", exp[0].InsertText)
		})
	}
}

func TestExact_ProperPrefixNeverFires(t *testing.T) {
	s := newStore(t)
	add(t, s, "/tyx", "long", snippet.MatchExact)
	m := New(s)

	// "/ty" is a proper prefix of "/tyx"; it must not fire on its own.
	ds := typeText(m, settings.NewGate(nil), "/ty")
	assert.Empty(t, expansions(ds))
}

func TestExact_TrailingCharacterDoesNotMatch(t *testing.T) {
	s := newStore(t)
	sn := add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s)

	// The expansion happens on "y"; the tail "/tyx" itself never matches.
	ds := typeText(m, settings.NewGate(nil), "/tyx")
	require.Len(t, ds, 4)
	assert.Equal(t, Expand, ds[2].Kind)
	assert.Equal(t, sn.ID, ds[2].SnippetID)
	assert.Equal(t, NoMatch, ds[3].Kind)
}

func TestExact_WordShortcutNeedsBoundary(t *testing.T) {
	s := newStore(t)
	add(t, s, "ty", "thank you", snippet.MatchExact)
	gate := settings.NewGate(nil)

	assert.Empty(t, expansions(typeText(New(s), gate, "xty")))
	assert.Empty(t, expansions(typeText(New(s), gate, "_ty")))
	assert.Len(t, expansions(typeText(New(s), gate, " ty")), 1)
	assert.Len(t, expansions(typeText(New(s), gate, "ty")), 1)
	assert.Len(t, expansions(typeText(New(s), gate, "hello.ty")), 1)
}

func TestPrefix_FiresMidWord(t *testing.T) {
	s := newStore(t)
	add(t, s, "green", "#00ff00", snippet.MatchPrefix)
	m := New(s)

	exp := expansions(typeText(m, settings.NewGate(nil), "evergreen"))
	require.Len(t, exp, 1)
	assert.Equal(t, 5, exp[0].RemoveCount)
	assert.Equal(t, "#00ff00", exp[0].InsertText)
}

func TestTieBreak_MostRecentlyUpdatedWins(t *testing.T) {
	s := newStore(t)
	err := s.Load(nil, []*snippet.Snippet{
		{ID: "01A", Owner: owner, Name: "old", Shortcut: "/hi", Body: "T5 body", CreatedAt: 1, UpdatedAt: 5, IsActive: true, MatchType: snippet.MatchExact},
		{ID: "01B", Owner: owner, Name: "new", Shortcut: "/hi", Body: "T3 body", CreatedAt: 2, UpdatedAt: 3, IsActive: true, MatchType: snippet.MatchExact},
	})
	require.NoError(t, err)

	exp := expansions(typeText(New(s), settings.NewGate(nil), "/hi"))
	require.Len(t, exp, 1)
	assert.Equal(t, "T5 body", exp[0].InsertText)
	assert.Equal(t, "01A", exp[0].SnippetID)
}

func TestTieBreak_GreatestIDOnEqualTimestamps(t *testing.T) {
	s := newStore(t)
	err := s.Load(nil, []*snippet.Snippet{
		{ID: "01A", Owner: owner, Name: "a", Shortcut: "/hi", Body: "first", CreatedAt: 1, UpdatedAt: 5, IsActive: true, MatchType: snippet.MatchExact},
		{ID: "01B", Owner: owner, Name: "b", Shortcut: "/hi", Body: "second", CreatedAt: 1, UpdatedAt: 5, IsActive: true, MatchType: snippet.MatchPrefix},
	})
	require.NoError(t, err)

	exp := expansions(typeText(New(s), settings.NewGate(nil), "/hi"))
	require.Len(t, exp, 1)
	assert.Equal(t, "second", exp[0].InsertText)
}

func TestOverlappingSuffixes_LongestWins(t *testing.T) {
	s := newStore(t)
	// Both "a" and "/ba" end the buffer "x/ba". The shorter one is newer, so
	// length must take precedence over updated_at.
	err := s.Load(nil, []*snippet.Snippet{
		{ID: "01A", Owner: owner, Name: "short", Shortcut: "a", Body: "short", CreatedAt: 1, UpdatedAt: 9, IsActive: true, MatchType: snippet.MatchPrefix},
		{ID: "01B", Owner: owner, Name: "long", Shortcut: "/ba", Body: "long", CreatedAt: 1, UpdatedAt: 1, IsActive: true, MatchType: snippet.MatchPrefix},
	})
	require.NoError(t, err)

	exp := expansions(typeText(New(s), settings.NewGate(nil), "x/ba"))
	require.Len(t, exp, 1)
	assert.Equal(t, "long", exp[0].InsertText)
	assert.Equal(t, "01B", exp[0].SnippetID)
	assert.Equal(t, 3, exp[0].RemoveCount)
}

func TestBetter(t *testing.T) {
	older := &snippet.Snippet{ID: "01A", UpdatedAt: 1}
	newer := &snippet.Snippet{ID: "01B", UpdatedAt: 9}
	same := &snippet.Snippet{ID: "01C", UpdatedAt: 9}

	assert.True(t, better(older, 3, newer, 1))
	assert.False(t, better(newer, 1, older, 3))
	assert.True(t, better(newer, 2, older, 2))
	assert.True(t, better(same, 2, newer, 2))
	assert.False(t, better(newer, 2, same, 2))
}

func TestBufferClearedAfterExpansion(t *testing.T) {
	s := newStore(t)
	add(t, s, "/a", "A", snippet.MatchPrefix)
	add(t, s, "a/b", "AB", snippet.MatchPrefix)
	m := New(s)

	// "/a" fires and the buffer restarts, so "a/b" cannot be completed
	// from characters typed before the expansion.
	exp := expansions(typeText(m, settings.NewGate(nil), "/a/b"))
	require.Len(t, exp, 1)
	assert.Equal(t, "A", exp[0].InsertText)
}

func TestDisabled_NeverExpands(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchPrefix)
	add(t, s, "a", "letter", snippet.MatchPrefix)
	gate := settings.NewGate(nil)
	_, err := gate.Set(settings.Settings{ExpandEnabled: false, Trigger: settings.DefaultTrigger})
	require.NoError(t, err)

	m := New(s)
	for _, d := range typeText(m, gate, "a /ty /ty aaa") {
		assert.Equal(t, NoMatch, d.Kind)
	}
	assert.Equal(t, 0, m.Contexts())
}

func TestExcludedApp(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	gate := settings.NewGate(nil)
	_, err := gate.Set(settings.Settings{ExpandEnabled: true, Trigger: settings.DefaultTrigger, ExcludedApps: []string{"Terminal"}})
	require.NoError(t, err)

	m := New(s)
	var last Decision
	for _, r := range "/ty" {
		last = m.OnCharacterTyped(owner, "", r, "TERMINAL", gate)
	}
	assert.Equal(t, NoMatch, last.Kind)

	for _, r := range "/ty" {
		last = m.OnCharacterTyped(owner, "", r, "Notes", gate)
	}
	assert.Equal(t, Expand, last.Kind)
}

func TestBackspace(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s)

	exp := expansions(typeText(m, settings.NewGate(nil), "/tx\by"))
	require.Len(t, exp, 1)
	assert.Equal(t, "Thank you!", exp[0].InsertText)

	d := m.OnCharacterTyped(owner, "", 0x7f, "Notes", settings.NewGate(nil))
	assert.Equal(t, NoMatch, d.Kind)
}

func TestContextsAreIndependent(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s)
	gate := settings.NewGate(nil)

	m.OnCharacterTyped(owner, "a", '/', "Notes", gate)
	m.OnCharacterTyped(owner, "b", 't', "Notes", gate)
	d := m.OnCharacterTyped(owner, "a", 't', "Notes", gate)
	assert.Equal(t, NoMatch, d.Kind)
	d = m.OnCharacterTyped(owner, "a", 'y', "Notes", gate)
	assert.Equal(t, Expand, d.Kind)
}

func TestContextEviction(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s, WithMaxContexts(2))
	gate := settings.NewGate(nil)

	m.OnCharacterTyped(owner, "a", '/', "Notes", gate)
	m.OnCharacterTyped(owner, "b", 'x', "Notes", gate)
	m.OnCharacterTyped(owner, "c", 'x', "Notes", gate) // evicts "a"
	assert.Equal(t, 2, m.Contexts())

	m.OnCharacterTyped(owner, "a", 't', "Notes", gate)
	d := m.OnCharacterTyped(owner, "a", 'y', "Notes", gate)
	assert.Equal(t, NoMatch, d.Kind)
}

func TestForget(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s)
	gate := settings.NewGate(nil)

	typeText(m, gate, "/t")
	m.Forget(owner, "notes")
	assert.Empty(t, expansions(typeText(m, gate, "y")))
}

func TestOwnersAreIsolated(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	m := New(s)

	var last Decision
	for _, r := range "/ty" {
		last = m.OnCharacterTyped("bob", "", r, "Notes", settings.NewGate(nil))
	}
	assert.Equal(t, NoMatch, last.Kind)
}

func TestRendererApplied(t *testing.T) {
	s := newStore(t)
	add(t, s, ";d", "Date: {{date:%Y}} {{cursor}}!", snippet.MatchPrefix)
	clock := func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	m := New(s, WithRenderer(vars.New(vars.WithClock(clock))))

	exp := expansions(typeText(m, settings.NewGate(nil), ";d"))
	require.Len(t, exp, 1)
	assert.Equal(t, "Date: 2030 !", exp[0].InsertText)
	assert.Equal(t, 1, exp[0].CursorOffset)
	assert.Equal(t, 2, exp[0].RemoveCount)
}

func TestDeterministicAcrossInstances(t *testing.T) {
	s := newStore(t)
	add(t, s, "/ty", "Thank you!", snippet.MatchExact)
	add(t, s, "brb", "be right back", snippet.MatchExact)
	add(t, s, "green", "#0f0", snippet.MatchPrefix)
	gate := settings.NewGate(nil)

	input := "ok brb then evergreen /ty and xbrb /tx\by"
	a := typeText(New(s), gate, input)
	b := typeText(New(s), gate, input)
	assert.Equal(t, a, b)
	assert.Len(t, expansions(a), 4)
}

func TestUnicodeShortcut(t *testing.T) {
	s := newStore(t)
	add(t, s, ";café", "coffee", snippet.MatchExact)

	exp := expansions(typeText(New(s), settings.NewGate(nil), "un ;café"))
	require.Len(t, exp, 1)
	assert.Equal(t, 5, exp[0].RemoveCount)
}
