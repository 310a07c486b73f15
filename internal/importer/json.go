package importer

import (
	"bytes"
	"encoding/json"
	"strings"
)

var (
	nameKeys      = []string{"name", "title", "label"}
	shortcutKeys  = []string{"shortcut", "abbreviation", "trigger"}
	bodyKeys      = []string{"body", "text", "content"}
	matchTypeKeys = []string{"match_type", "matchtype"}
)

// detectJSON recognizes, in order: a top-level array of records, an object
// with a "snippets" array, a Text Blaze style object with
// "folders[].snippets[]", and a single record object.
func detectJSON(raw []byte) ([]rawRecord, string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, "", false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, "", false
	}
	// Trailing data means this was not a single JSON document.
	if dec.More() {
		return nil, "", false
	}

	switch v := doc.(type) {
	case []any:
		return recordsFrom(v), "array", true
	case map[string]any:
		obj := lowerKeys(v)
		snippets, hasSnippets := obj["snippets"].([]any)
		folders, hasFolders := obj["folders"].([]any)
		if hasFolders && folderShape(folders) {
			var out []rawRecord
			if hasSnippets {
				out = recordsFrom(snippets)
			}
			for _, f := range folders {
				fobj, _ := f.(map[string]any)
				inner, _ := lowerKeys(fobj)["snippets"].([]any)
				out = append(out, recordsFrom(inner)...)
			}
			return out, "folders", true
		}
		if hasSnippets {
			return recordsFrom(snippets), "snippets", true
		}
		if isRecord(obj) {
			return []rawRecord{recordFrom(obj)}, "record", true
		}
	}
	return nil, "", false
}

// folderShape reports whether any folder entry carries a snippets array.
func folderShape(folders []any) bool {
	for _, f := range folders {
		fobj, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := lowerKeys(fobj)["snippets"].([]any); ok {
			return true
		}
	}
	return false
}

// recordsFrom converts array items. Items that are not objects become empty
// records so they are counted as skipped.
func recordsFrom(items []any) []rawRecord {
	out := make([]rawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			out = append(out, rawRecord{})
			continue
		}
		out = append(out, recordFrom(lowerKeys(obj)))
	}
	return out
}

func recordFrom(obj map[string]any) rawRecord {
	return rawRecord{
		name:      firstString(obj, nameKeys),
		shortcut:  firstString(obj, shortcutKeys),
		body:      firstString(obj, bodyKeys),
		matchType: firstString(obj, matchTypeKeys),
	}
}

// isRecord reports whether obj has at least one recognized field.
func isRecord(obj map[string]any) bool {
	for _, keys := range [][]string{nameKeys, shortcutKeys, bodyKeys} {
		for _, k := range keys {
			if _, ok := obj[k]; ok {
				return true
			}
		}
	}
	return false
}

// firstString returns the first key in keys holding a non-blank scalar.
func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// lowerKeys returns obj with lower-cased keys. On collision an already
// lower-case key wins, then the lexically smallest original key.
func lowerKeys(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	src := make(map[string]string, len(obj))
	for k, v := range obj {
		lk := strings.ToLower(k)
		if prev, exists := src[lk]; exists && (prev == lk || (k != lk && prev < k)) {
			continue
		}
		out[lk] = v
		src[lk] = k
	}
	return out
}
