package ops

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/matcher"
	"github.com/hpungsan/spark/internal/vars"
)

// keyNames maps named keys accepted by ParseKeyChar to the runes the matcher
// understands.
var keyNames = map[string]rune{
	"backspace": '\b',
	"space":     ' ',
	"tab":       '\t',
	"enter":     '\n',
}

// ParseKeyChar parses the character of a keystroke event: a single
// character, or one of backspace, space, tab, enter.
func ParseKeyChar(s string) (rune, error) {
	if r, ok := keyNames[strings.ToLower(s)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.NewValidation("char", "char must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, errors.NewValidation("char", "char must be valid UTF-8")
	}
	return r, nil
}

// OnKeystroke feeds one typed character to the matcher. It never fails;
// anything that does not complete a shortcut, including an unknown owner,
// is NoMatch.
func (e *Engine) OnKeystroke(owner, inputKey string, ch rune, activeApp string) matcher.Decision {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return matcher.Decision{Kind: matcher.NoMatch}
	}
	d := e.matcher.OnCharacterTyped(owner, inputKey, ch, activeApp, e.gate(owner))
	if d.Kind == matcher.Expand {
		e.logger.Debug("expansion",
			slog.String("owner", owner),
			slog.String("app", activeApp),
			slog.String("snippet_id", d.SnippetID),
			slog.String("shortcut", d.Shortcut),
		)
	}
	return d
}

// ForgetInput drops the typing buffer of one input context.
func (e *Engine) ForgetInput(owner, inputKey string) {
	e.matcher.Forget(strings.TrimSpace(owner), inputKey)
}

// ExpandInput contains parameters for the ExpandText operation.
type ExpandInput struct {
	Owner string
	App   string
	Text  string
}

// Expansion is one expansion fired while feeding text.
type Expansion struct {
	// Index is the rune offset in the input of the character that fired it.
	Index int `json:"index"`
	matcher.Decision
}

// ExpandOutput contains the result of the ExpandText operation.
type ExpandOutput struct {
	Result     string      `json:"result"`
	Expansions []Expansion `json:"expansions"`
}

// ExpandText types text one character at a time into a fresh input context
// and applies each decision the way an OS collaborator would. Backspace
// characters delete the previous character.
func (e *Engine) ExpandText(input ExpandInput) (*ExpandOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	inputKey := "expand:" + uuid.NewString()
	defer e.matcher.Forget(owner, inputKey)

	out := &ExpandOutput{Expansions: []Expansion{}}
	var doc []rune
	for i, ch := range []rune(input.Text) {
		if ch == '\b' || ch == 0x7f {
			if len(doc) > 0 {
				doc = doc[:len(doc)-1]
			}
		} else {
			doc = append(doc, ch)
		}

		d := e.OnKeystroke(owner, inputKey, ch, input.App)
		if d.Kind != matcher.Expand {
			continue
		}
		out.Expansions = append(out.Expansions, Expansion{Index: i, Decision: d})
		cut := len(doc) - d.RemoveCount
		if cut < 0 {
			cut = 0
		}
		doc = append(doc[:cut], []rune(d.InsertText)...)
	}
	out.Result = string(doc)
	return out, nil
}

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	Owner string
	ID    string
}

// PreviewOutput contains the result of the Preview operation.
type PreviewOutput struct {
	ID       string        `json:"id"`
	Shortcut string        `json:"shortcut"`
	Rendered vars.Rendered `json:"rendered"`
	HTML     string        `json:"html"`
}

// Preview renders a snippet body with its placeholders expanded, plus an
// HTML rendering of the result treated as Markdown.
func (e *Engine) Preview(input PreviewInput) (*PreviewOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	id, err := requireID("id", input.ID)
	if err != nil {
		return nil, err
	}
	sn, err := e.store.GetSnippet(owner, id)
	if err != nil {
		return nil, err
	}

	rendered := e.renderer.Render(sn.Body)
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(rendered.Text), &buf); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &PreviewOutput{
		ID:       sn.ID,
		Shortcut: sn.Shortcut,
		Rendered: rendered,
		HTML:     buf.String(),
	}, nil
}
