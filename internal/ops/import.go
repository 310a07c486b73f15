package ops

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/importer"
	"github.com/hpungsan/spark/internal/snippet"
)

// ImportInput contains parameters for the ImportSnippets operation.
// Exactly one of Path and Payload must be set.
type ImportInput struct {
	Owner    string
	Path     string  // .json or .csv file in an allowed directory
	Payload  string  // raw export text
	Format   string  // auto (default), json, csv
	FolderID *string // optional folder for every imported snippet
}

// ImportOutput contains the result of the ImportSnippets operation.
type ImportOutput struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Format   string   `json:"format"`
	Shape    string   `json:"shape"`
	IDs      []string `json:"ids"`
}

// ImportSnippets parses a JSON or CSV export and inserts every valid record
// as an active snippet. Records without a name or shortcut are skipped. The
// insert is atomic: on error nothing is imported.
func (e *Engine) ImportSnippets(input ImportInput) (*ImportOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	hint, err := importer.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	hasPath := strings.TrimSpace(input.Path) != ""
	hasPayload := input.Payload != ""
	if hasPath == hasPayload {
		return nil, errors.NewInvalidRequest("specify exactly one of path or payload")
	}

	limit := e.cfg.ImportMaxBytes
	if limit <= 0 {
		limit = importer.DefaultMaxBytes
	}

	raw := []byte(input.Payload)
	if hasPath {
		if raw, err = e.readImportFile(strings.TrimSpace(input.Path), limit); err != nil {
			return nil, err
		}
	}

	result, err := importer.Normalize(raw, importer.Options{
		Hint:     hint,
		MaxBytes: limit,
		FolderID: input.FolderID,
	})
	if err != nil {
		return nil, err
	}

	drafts := make([]*snippet.Snippet, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		drafts = append(drafts, &snippet.Snippet{
			Owner:     owner,
			FolderID:  c.FolderID,
			Name:      c.Name,
			Shortcut:  c.Shortcut,
			Body:      c.Body,
			IsActive:  true,
			MatchType: c.MatchType,
		})
	}
	inserted, err := e.store.InsertSnippets(drafts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(inserted))
	for _, sn := range inserted {
		ids = append(ids, sn.ID)
	}
	if len(inserted) > 0 {
		e.persist.SaveSnippets(inserted...)
	}

	e.logger.Info("snippets imported",
		slog.String("owner", owner),
		slog.String("format", string(result.Format)),
		slog.Int("imported", len(inserted)),
		slog.Int("skipped", result.Skipped),
	)
	return &ImportOutput{
		Imported: len(inserted),
		Skipped:  result.Skipped,
		Format:   string(result.Format),
		Shape:    result.Shape,
		IDs:      ids,
	}, nil
}

// readImportFile rejects a file over limit before reading it.
func (e *Engine) readImportFile(path string, limit int) ([]byte, error) {
	if err := ValidatePath(path, PathCheckRead, e.resolveExportsDir(), e.cfg); err != nil {
		return nil, err
	}
	file, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.Size() > int64(limit) {
		return nil, errors.NewPayloadTooLarge(limit, int(info.Size()))
	}

	raw, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	return raw, nil
}
