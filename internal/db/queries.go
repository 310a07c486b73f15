package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/settings"
	"github.com/hpungsan/spark/internal/snippet"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertFolder inserts or replaces a folder row.
func UpsertFolder(ctx context.Context, db *sql.DB, f *snippet.Folder) error {
	return upsertFolder(ctx, db, f)
}

func upsertFolder(ctx context.Context, ex execer, f *snippet.Folder) error {
	query := `
		INSERT INTO folders (id, owner, name, parent_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			parent_id = excluded.parent_id
	`
	if _, err := ex.ExecContext(ctx, query, f.ID, f.Owner, f.Name, toNullString(f.ParentID)); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteFolder removes a folder and applies the same cascade as the
// in-memory store: filed snippets become unfiled and child folders move to
// the deleted folder's parent. updatedAt stamps the unfiled snippets.
func DeleteFolder(ctx context.Context, db *sql.DB, owner, id string, updatedAt int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT parent_id FROM folders WHERE id = ? AND owner = ?`, id, owner).Scan(&parent)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("folder", id)
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	stmts := []struct {
		query string
		args  []any
	}{
		{`UPDATE snippets SET folder_id = NULL, updated_at = MAX(updated_at, ?) WHERE owner = ? AND folder_id = ?`, []any{updatedAt, owner, id}},
		{`UPDATE folders SET parent_id = ? WHERE owner = ? AND parent_id = ?`, []any{parent, owner, id}},
		{`DELETE FROM folders WHERE id = ? AND owner = ?`, []any{id, owner}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpsertSnippets inserts or replaces snippet rows in one transaction.
func UpsertSnippets(ctx context.Context, db *sql.DB, snippets ...*snippet.Snippet) error {
	if len(snippets) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	for _, sn := range snippets {
		if err := upsertSnippet(ctx, tx, sn); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func upsertSnippet(ctx context.Context, ex execer, sn *snippet.Snippet) error {
	query := `
		INSERT INTO snippets (
			id, owner, folder_id, name, shortcut, body,
			created_at, updated_at, is_active, match_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			folder_id = excluded.folder_id,
			name = excluded.name,
			shortcut = excluded.shortcut,
			body = excluded.body,
			updated_at = excluded.updated_at,
			is_active = excluded.is_active,
			match_type = excluded.match_type
	`
	_, err := ex.ExecContext(ctx, query,
		sn.ID, sn.Owner, toNullString(sn.FolderID), sn.Name, sn.Shortcut, sn.Body,
		sn.CreatedAt, sn.UpdatedAt, boolToInt(sn.IsActive), string(sn.MatchType),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteSnippet removes a snippet row.
func DeleteSnippet(ctx context.Context, db *sql.DB, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM snippets WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("snippet", id)
	}
	return nil
}

// LoadOwner reads every folder and snippet of owner, for Store.Load at
// session start.
func LoadOwner(ctx context.Context, db *sql.DB, owner string) ([]*snippet.Folder, []*snippet.Snippet, error) {
	folders, err := loadFolders(ctx, db, owner)
	if err != nil {
		return nil, nil, err
	}
	snippets, err := loadSnippets(ctx, db, owner)
	if err != nil {
		return nil, nil, err
	}
	return folders, snippets, nil
}

func loadFolders(ctx context.Context, db *sql.DB, owner string) ([]*snippet.Folder, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner, name, parent_id
		FROM folders
		WHERE owner = ?
		ORDER BY id
	`, owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*snippet.Folder
	for rows.Next() {
		var (
			f      snippet.Folder
			parent sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Owner, &f.Name, &parent); err != nil {
			return nil, errors.NewInternal(err)
		}
		f.ParentID = fromNullString(parent)
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func loadSnippets(ctx context.Context, db *sql.DB, owner string) ([]*snippet.Snippet, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner, folder_id, name, shortcut, body,
			created_at, updated_at, is_active, match_type
		FROM snippets
		WHERE owner = ?
		ORDER BY id
	`, owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*snippet.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// scanSnippet scans a single row into a Snippet struct.
func scanSnippet(rows *sql.Rows) (*snippet.Snippet, error) {
	var (
		sn        snippet.Snippet
		folderID  sql.NullString
		isActive  int
		matchType string
	)
	err := rows.Scan(
		&sn.ID, &sn.Owner, &folderID, &sn.Name, &sn.Shortcut, &sn.Body,
		&sn.CreatedAt, &sn.UpdatedAt, &isActive, &matchType,
	)
	if err != nil {
		return nil, err
	}
	sn.FolderID = fromNullString(folderID)
	sn.IsActive = isActive != 0
	sn.MatchType = snippet.MatchType(matchType)
	return &sn, nil
}

// GetSettings returns the stored settings row for owner. The bool is false
// when the owner has never saved settings.
func GetSettings(ctx context.Context, db *sql.DB, owner string) (settings.Settings, bool, error) {
	var (
		s            settings.Settings
		enabled      int
		excludedJSON string
	)
	err := db.QueryRowContext(ctx, `
		SELECT expand_enabled, trigger_hotkey, excluded_apps_json
		FROM settings
		WHERE owner = ?
	`, owner).Scan(&enabled, &s.Trigger, &excludedJSON)
	if err == sql.ErrNoRows {
		return settings.Settings{}, false, nil
	}
	if err != nil {
		return settings.Settings{}, false, errors.NewInternal(err)
	}
	s.ExpandEnabled = enabled != 0
	if excludedJSON != "" {
		if err := json.Unmarshal([]byte(excludedJSON), &s.ExcludedApps); err != nil {
			return settings.Settings{}, false, errors.NewInternal(err)
		}
	}
	return s, true, nil
}

// SaveSettings writes the single settings row for owner.
func SaveSettings(ctx context.Context, db *sql.DB, owner string, s *settings.Settings) error {
	excluded := s.ExcludedApps
	if excluded == nil {
		excluded = []string{}
	}
	data, err := json.Marshal(excluded)
	if err != nil {
		return errors.NewInternal(err)
	}
	query := `
		INSERT INTO settings (owner, expand_enabled, trigger_hotkey, excluded_apps_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			expand_enabled = excluded.expand_enabled,
			trigger_hotkey = excluded.trigger_hotkey,
			excluded_apps_json = excluded.excluded_apps_json
	`
	if _, err := db.ExecContext(ctx, query, owner, boolToInt(s.ExpandEnabled), s.Trigger, string(data)); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
