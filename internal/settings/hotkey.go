package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a hotkey modifier key.
type Modifier string

const (
	ModCtrl  Modifier = "Ctrl"
	ModAlt   Modifier = "Alt"
	ModShift Modifier = "Shift"
	ModMeta  Modifier = "Cmd"
)

// modifierOrder fixes the canonical rendering order.
var modifierOrder = []Modifier{ModCtrl, ModAlt, ModShift, ModMeta}

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"cmd":     ModMeta,
	"command": ModMeta,
	"super":   ModMeta,
	"meta":    ModMeta,
	"win":     ModMeta,
}

var keyAliases = map[string]string{
	"space":     "Space",
	"spacebar":  "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"tab":       "Tab",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
	"insert":    "Insert",
}

// Hotkey is a parsed modifier+key combination.
type Hotkey struct {
	Modifiers []Modifier // canonical order, no duplicates
	Key       string
}

// String renders the canonical form, e.g. "Ctrl+Alt+Space".
func (h Hotkey) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, h.Key)
	return strings.Join(parts, "+")
}

// ParseHotkey parses combinations like "ctrl+alt+space" or "Cmd + Shift + K".
// At least one modifier and exactly one non-modifier key are required.
func ParseHotkey(combo string) (Hotkey, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return Hotkey{}, fmt.Errorf("hotkey must not be empty")
	}

	seen := make(map[Modifier]bool)
	var key string
	for _, raw := range strings.Split(combo, "+") {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Hotkey{}, fmt.Errorf("hotkey %q has an empty segment", combo)
		}
		lower := strings.ToLower(part)
		if mod, ok := modifierAliases[lower]; ok {
			seen[mod] = true
			continue
		}
		if key != "" {
			return Hotkey{}, fmt.Errorf("hotkey %q has more than one key (%s, %s)", combo, key, part)
		}
		k, err := canonicalKey(part)
		if err != nil {
			return Hotkey{}, fmt.Errorf("hotkey %q: %w", combo, err)
		}
		key = k
	}

	if len(seen) == 0 {
		return Hotkey{}, fmt.Errorf("hotkey %q needs at least one modifier", combo)
	}
	if key == "" {
		return Hotkey{}, fmt.Errorf("hotkey %q needs a non-modifier key", combo)
	}

	h := Hotkey{Key: key}
	for _, m := range modifierOrder {
		if seen[m] {
			h.Modifiers = append(h.Modifiers, m)
		}
	}
	return h, nil
}

// canonicalKey normalizes a single key name.
func canonicalKey(part string) (string, error) {
	lower := strings.ToLower(part)
	if k, ok := keyAliases[lower]; ok {
		return k, nil
	}
	runes := []rune(part)
	if len(runes) == 1 {
		return strings.ToUpper(part), nil
	}
	// Function keys F1..F24.
	if runes[0] == 'f' || runes[0] == 'F' {
		digits := string(runes[1:])
		if n, err := strconv.Atoi(digits); err == nil && n >= 1 && n <= 24 && strconv.Itoa(n) == digits {
			return "F" + digits, nil
		}
	}
	return "", fmt.Errorf("unknown key %q", part)
}
