package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/spark/internal/config"
	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// ExportSchemaVersion is written into every export document.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the ExportSnippets operation.
type ExportInput struct {
	Owner    string
	Path     string  // optional, default: <exports>/<owner>-<timestamp>.json
	FolderID *string // optional filter
}

// ExportOutput contains the result of the ExportSnippets operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportDocument builds the export document for owner without writing it.
// The document is accepted by ImportSnippets.
func (e *Engine) ExportDocument(owner string, folderID *string) (*snippet.ExportDocument, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	snippets, err := e.store.List(owner, snippet.TrimOptional(folderID))
	if err != nil {
		return nil, err
	}

	doc := &snippet.ExportDocument{
		SparkExport:   true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    e.now().UnixMilli(),
		Snippets:      make([]snippet.ExportRecord, 0, len(snippets)),
	}
	for _, f := range e.store.ListFolders(owner) {
		doc.Folders = append(doc.Folders, snippet.ExportFolder{
			ID:       f.ID,
			Name:     f.Name,
			ParentID: f.ParentID,
		})
	}
	for _, sn := range snippets {
		doc.Snippets = append(doc.Snippets, snippet.ToExportRecord(sn))
	}
	return doc, nil
}

// ExportSnippets writes the owner's export document to a JSON file. The file
// is written to a temporary name and renamed into place, so an existing
// export is preserved if anything fails.
func (e *Engine) ExportSnippets(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	doc, err := e.ExportDocument(owner, input.FolderID)
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = e.defaultExportPath(owner, e.now())
		if err != nil {
			return nil, err
		}
	}
	// Default paths are validated too: the owner is part of the file name.
	if err := ValidatePath(exportPath, PathCheckWrite, e.resolveExportsDir(), e.cfg); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("export cancelled: %w", err))
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewValidation("path", "export path is a symlink")
	}

	// On Windows, os.Rename fails if the destination exists; the existing
	// file is kept rather than replaced non-atomically.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	e.logger.Info("snippets exported",
		slog.String("path", exportPath),
		slog.Int("count", len(doc.Snippets)),
	)
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(doc.Snippets),
		ExportedAt: doc.ExportedAt,
	}, nil
}

// resolveExportsDir returns the configured exports directory, or
// <base dir>/exports when none was given.
func (e *Engine) resolveExportsDir() string {
	if e.exportsDir != "" {
		return e.exportsDir
	}
	base, err := config.BaseDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "exports")
}

// defaultExportPath returns <exports>/<owner>-<timestamp>.json.
func (e *Engine) defaultExportPath(owner string, now time.Time) (string, error) {
	dir := e.resolveExportsDir()
	if dir == "" {
		return "", errors.NewInternal(fmt.Errorf("exports directory is unavailable"))
	}
	filename := fmt.Sprintf("%s-%s.json", SanitizeForFilename(owner), now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
