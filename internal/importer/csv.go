package importer

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"io"
	"strings"
)

// detectCSV accepts a payload whose first row names at least the name,
// shortcut and content (or body) columns, case-insensitively.
func detectCSV(raw []byte) ([]rawRecord, string, bool) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, "", false
	}
	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	nameCol, okName := cols["name"]
	shortcutCol, okShortcut := cols["shortcut"]
	bodyCol, okBody := cols["content"]
	if !okBody {
		bodyCol, okBody = cols["body"]
	}
	if !okName || !okShortcut || !okBody {
		return nil, "", false
	}
	matchCol, hasMatch := cols["match_type"]

	field := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	var out []rawRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				out = append(out, rawRecord{})
				continue
			}
			return nil, "", false
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		rec := rawRecord{
			name:     field(row, nameCol),
			shortcut: field(row, shortcutCol),
			body:     field(row, bodyCol),
		}
		if hasMatch {
			rec.matchType = field(row, matchCol)
		}
		out = append(out, rec)
	}
	return out, "header", true
}
