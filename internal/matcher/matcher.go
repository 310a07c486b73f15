// Package matcher decides, one keystroke at a time, whether the text just
// typed completes a shortcut.
package matcher

import (
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hpungsan/spark/internal/snippet"
	"github.com/hpungsan/spark/internal/vars"
)

// DefaultMaxContexts bounds the number of input contexts tracked at once.
const DefaultMaxContexts = 64

// Kind is the verdict for one keystroke.
type Kind string

const (
	NoMatch Kind = "no_match"
	Expand  Kind = "expand"
)

// Decision is the matcher's instruction for the OS-integration layer: delete
// RemoveCount characters before the caret, insert InsertText, then move the
// caret CursorOffset characters to the left.
type Decision struct {
	Kind         Kind   `json:"kind"`
	RemoveCount  int    `json:"remove_count,omitempty"`
	InsertText   string `json:"insert_text,omitempty"`
	CursorOffset int    `json:"cursor_offset,omitempty"`
	SnippetID    string `json:"snippet_id,omitempty"`
	Shortcut     string `json:"shortcut,omitempty"`
}

// Source is the read side of the snippet store the matcher depends on.
type Source interface {
	FindByShortcutSuffix(owner, text string) []*snippet.Snippet
	MaxShortcutLen(owner string) int
}

// Gate answers whether expansion is allowed for the focused application.
type Gate interface {
	IsExpansionAllowed(app string) bool
}

// Renderer expands placeholders in a snippet body.
type Renderer interface {
	Render(body string) vars.Rendered
}

type contextKey struct {
	owner string
	input string
}

// Matcher keeps a bounded trailing buffer per input context.
type Matcher struct {
	source   Source
	renderer Renderer

	mu       sync.Mutex
	contexts *lru.Cache[contextKey, []rune]
}

// Option configures a Matcher.
type Option func(*config)

type config struct {
	maxContexts int
	renderer    Renderer
}

// WithMaxContexts sets how many input contexts are tracked before the least
// recently typed one is evicted.
func WithMaxContexts(n int) Option {
	return func(c *config) { c.maxContexts = n }
}

// WithRenderer expands placeholders in bodies before they are returned.
func WithRenderer(r Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// New returns a Matcher reading snippets from source.
func New(source Source, opts ...Option) *Matcher {
	cfg := config{maxContexts: DefaultMaxContexts}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxContexts <= 0 {
		cfg.maxContexts = DefaultMaxContexts
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[contextKey, []rune](cfg.maxContexts)
	return &Matcher{
		source:   source,
		renderer: cfg.renderer,
		contexts: cache,
	}
}

// OnCharacterTyped feeds one character typed in input context inputKey while
// activeApp has focus. An empty inputKey uses the application name as the
// context. It never fails: anything that does not complete a shortcut is NoMatch.
func (m *Matcher) OnCharacterTyped(owner, inputKey string, ch rune, activeApp string, gate Gate) Decision {
	if gate == nil || !gate.IsExpansionAllowed(activeApp) {
		return Decision{Kind: NoMatch}
	}
	if inputKey == "" {
		inputKey = snippet.NormalizeAppName(activeApp)
	}
	key := contextKey{owner: owner, input: inputKey}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf, _ := m.contexts.Get(key)

	if ch == '\b' || ch == 0x7f {
		if len(buf) > 0 {
			buf = buf[:len(buf)-1]
		}
		m.contexts.Add(key, buf)
		return Decision{Kind: NoMatch}
	}
	if !utf8.ValidRune(ch) {
		return Decision{Kind: NoMatch}
	}

	// The extra rune is the boundary character in front of the longest shortcut.
	bound := m.source.MaxShortcutLen(owner) + 1
	buf = append(buf, ch)
	if len(buf) > bound {
		n := copy(buf, buf[len(buf)-bound:])
		buf = buf[:n]
	}

	if best := m.bestMatch(owner, buf); best != nil {
		m.contexts.Add(key, buf[:0])
		return m.expand(best)
	}

	m.contexts.Add(key, buf)
	return Decision{Kind: NoMatch}
}

// Forget drops the buffer of one input context, e.g. when focus moves or a
// stream closes.
func (m *Matcher) Forget(owner, inputKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts.Remove(contextKey{owner: owner, input: inputKey})
}

// Contexts returns the number of tracked input contexts.
func (m *Matcher) Contexts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contexts.Len()
}

// bestMatch returns the winning snippet for the buffered tail, or nil.
func (m *Matcher) bestMatch(owner string, buf []rune) *snippet.Snippet {
	var best *snippet.Snippet
	bestLen := 0
	for _, sn := range m.source.FindByShortcutSuffix(owner, string(buf)) {
		n := utf8.RuneCountInString(sn.Shortcut)
		if !matches(sn, buf, n) {
			continue
		}
		if best == nil || better(sn, n, best, bestLen) {
			best, bestLen = sn, n
		}
	}
	return best
}

// matches applies the snippet's match type. The caller guarantees the
// shortcut is a suffix of buf.
func matches(sn *snippet.Snippet, buf []rune, n int) bool {
	if sn.MatchType == snippet.MatchPrefix {
		return true
	}
	// Exact: a shortcut starting with an identifier rune must not continue a
	// word. Shortcuts starting with punctuation such as "/ty" delimit themselves.
	first, _ := utf8.DecodeRuneInString(sn.Shortcut)
	if !snippet.IsIdentRune(first) {
		return true
	}
	before := len(buf) - n - 1
	return before < 0 || !snippet.IsIdentRune(buf[before])
}

// better orders candidates: longest shortcut, then most recently updated,
// then greatest id.
func better(a *snippet.Snippet, aLen int, b *snippet.Snippet, bLen int) bool {
	if aLen != bLen {
		return aLen > bLen
	}
	if a.UpdatedAt != b.UpdatedAt {
		return a.UpdatedAt > b.UpdatedAt
	}
	return a.ID > b.ID
}

func (m *Matcher) expand(sn *snippet.Snippet) Decision {
	d := Decision{
		Kind:        Expand,
		RemoveCount: utf8.RuneCountInString(sn.Shortcut),
		InsertText:  sn.Body,
		SnippetID:   sn.ID,
		Shortcut:    sn.Shortcut,
	}
	if m.renderer != nil {
		r := m.renderer.Render(sn.Body)
		d.InsertText = r.Text
		d.CursorOffset = r.CursorOffset
	}
	return d
}
