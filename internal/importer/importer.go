// Package importer turns external snippet exports into canonical candidates.
//
// Detection runs as a fixed pipeline: JSON, then CSV, then failure with
// UNRECOGNIZED_FORMAT. A format hint restricts the pipeline to one stage.
package importer

import (
	"bytes"
	"strings"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// DefaultMaxBytes is the payload ceiling applied when Options.MaxBytes is unset.
const DefaultMaxBytes = 1 << 20

var utf8BOM = []byte("\xef\xbb\xbf")

// Format identifies a payload encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a user-supplied format hint. Empty and "auto" mean auto-detect.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", errors.NewValidation("format", "format must be one of: auto, json, csv")
	}
}

// Options controls Normalize.
type Options struct {
	// Hint forces a single detector when set.
	Hint Format
	// MaxBytes is the payload ceiling; <= 0 means DefaultMaxBytes.
	MaxBytes int
	// FolderID is stamped onto every candidate when set.
	FolderID *string
}

// Result is the outcome of a successful Normalize.
type Result struct {
	Format Format `json:"format"`
	// Shape names the JSON layout that matched (array, snippets, folders, record)
	// or "header" for CSV.
	Shape      string              `json:"shape"`
	Candidates []snippet.Candidate `json:"candidates"`
	Skipped    int                 `json:"skipped"`
}

// rawRecord is a format-neutral record before trimming and validation.
type rawRecord struct {
	name, shortcut, body, matchType string
}

// Normalize parses raw into candidate snippets. It is a pure function of its
// inputs: the same bytes always yield the same candidates in input order.
// Records missing a name or shortcut are skipped and counted.
func Normalize(raw []byte, opts Options) (*Result, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if len(raw) > limit {
		return nil, errors.NewPayloadTooLarge(limit, len(raw))
	}

	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.NewUnrecognizedFormat("payload is empty")
	}

	var (
		records []rawRecord
		shape   string
		format  Format
		ok      bool
	)
	switch opts.Hint {
	case FormatJSON:
		records, shape, ok = detectJSON(raw)
		format = FormatJSON
	case FormatCSV:
		records, shape, ok = detectCSV(raw)
		format = FormatCSV
	case FormatAuto:
		if records, shape, ok = detectJSON(raw); ok {
			format = FormatJSON
		} else if records, shape, ok = detectCSV(raw); ok {
			format = FormatCSV
		}
	default:
		return nil, errors.NewValidation("format", "format must be one of: auto, json, csv")
	}
	if !ok {
		if opts.Hint != FormatAuto {
			return nil, errors.NewUnrecognizedFormat("payload is not a supported " + string(opts.Hint) + " export")
		}
		return nil, errors.NewUnrecognizedFormat("payload is neither a supported JSON export nor CSV with name, shortcut and content columns")
	}

	folderID := snippet.TrimOptional(opts.FolderID)
	result := &Result{
		Format:     format,
		Shape:      shape,
		Candidates: make([]snippet.Candidate, 0, len(records)),
	}
	for _, rec := range records {
		c, ok := toCandidate(rec, folderID)
		if !ok {
			result.Skipped++
			continue
		}
		result.Candidates = append(result.Candidates, c)
	}
	return result, nil
}

// toCandidate trims rec and rejects it when name or shortcut is empty or the
// match type is unknown.
func toCandidate(rec rawRecord, folderID *string) (snippet.Candidate, bool) {
	name := strings.TrimSpace(rec.name)
	shortcut := strings.TrimSpace(rec.shortcut)
	if name == "" || shortcut == "" {
		return snippet.Candidate{}, false
	}
	mt, err := snippet.ParseMatchType(rec.matchType)
	if err != nil {
		return snippet.Candidate{}, false
	}
	c := snippet.Candidate{
		Name:      name,
		Shortcut:  shortcut,
		Body:      strings.TrimSpace(rec.body),
		MatchType: mt,
	}
	if folderID != nil {
		id := *folderID
		c.FolderID = &id
	}
	return c, true
}
