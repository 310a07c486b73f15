// Package vars expands {{...}} placeholders in snippet bodies.
//
// Supported placeholders:
//
//	{{date:FMT}} {{time:FMT}}  strftime formatting of the current time
//	{{clipboard}}              clipboard contents (empty when unavailable)
//	{{env:NAME}}               environment variable (empty when unset)
//	{{cursor}}                 removed; its position is reported in Rendered
//
// Any other placeholder is left untouched.
package vars

import (
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ncruces/go-strftime"
)

// placeholderRegex matches {{name}} and {{name:arg}}.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z]+)\s*(?::([^}]*))?\}\}`)

// ClipboardReader returns the current clipboard text.
type ClipboardReader func() (string, error)

// Rendered is the result of expanding a body.
type Rendered struct {
	Text string `json:"text"`
	// HasCursor is true when the body contained {{cursor}}.
	HasCursor bool `json:"has_cursor"`
	// CursorOffset is the number of runes between the cursor marker and the
	// end of Text, i.e. how far the caret must move left after insertion.
	CursorOffset int `json:"cursor_offset"`
}

// Renderer expands placeholders.
type Renderer struct {
	now       func() time.Time
	clipboard ClipboardReader
	lookupEnv func(string) (string, bool)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the time source for date and time placeholders.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithClipboard sets the clipboard reader.
func WithClipboard(read ClipboardReader) Option {
	return func(r *Renderer) { r.clipboard = read }
}

// WithEnv sets the environment lookup.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(r *Renderer) { r.lookupEnv = lookup }
}

// New returns a Renderer using the local clock and process environment.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		now:       time.Now,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render expands every supported placeholder in body. Only the first
// {{cursor}} determines the cursor position; later ones are dropped.
func (r *Renderer) Render(body string) Rendered {
	matches := placeholderRegex.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return Rendered{Text: body}
	}

	var (
		b         strings.Builder
		last      int
		cursorAt  = -1 // byte offset into b
		now       time.Time
		nowLoaded bool
	)
	b.Grow(len(body))
	for _, m := range matches {
		b.WriteString(body[last:m[0]])
		last = m[1]

		name := strings.ToLower(body[m[2]:m[3]])
		var arg string
		hasArg := m[4] >= 0
		if hasArg {
			arg = body[m[4]:m[5]]
		}

		switch {
		case (name == "date" || name == "time") && hasArg:
			if !nowLoaded {
				now, nowLoaded = r.now(), true
			}
			b.WriteString(strftime.Format(strings.TrimSpace(arg), now))
		case name == "clipboard" && !hasArg:
			b.WriteString(r.readClipboard())
		case name == "env" && hasArg:
			if v, ok := r.lookupEnv(strings.TrimSpace(arg)); ok {
				b.WriteString(v)
			}
		case name == "cursor" && !hasArg:
			if cursorAt < 0 {
				cursorAt = b.Len()
			}
		default:
			b.WriteString(body[m[0]:m[1]])
		}
	}
	b.WriteString(body[last:])

	out := Rendered{Text: b.String()}
	if cursorAt >= 0 {
		out.HasCursor = true
		out.CursorOffset = utf8.RuneCountInString(out.Text[cursorAt:])
	}
	return out
}

func (r *Renderer) readClipboard() string {
	if r.clipboard == nil {
		return ""
	}
	text, err := r.clipboard()
	if err != nil {
		return ""
	}
	return text
}
