package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/settings"
	"github.com/hpungsan/spark/internal/snippet"
	"github.com/hpungsan/spark/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// stringPtr returns a pointer to the given string.
func stringPtr(s string) *string {
	return &s
}

func newTestSnippet(id, owner, shortcut string) *snippet.Snippet {
	return &snippet.Snippet{
		ID:        id,
		Owner:     owner,
		Name:      "name " + shortcut,
		Shortcut:  shortcut,
		Body:      "body " + shortcut,
		CreatedAt: 1000,
		UpdatedAt: 2000,
		IsActive:  true,
		MatchType: snippet.MatchExact,
	}
}

func TestUpsertAndLoadOwner(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	folder := &snippet.Folder{ID: "f1", Owner: "ada", Name: "Work"}
	child := &snippet.Folder{ID: "f2", Owner: "ada", Name: "Mail", ParentID: stringPtr("f1")}
	require.NoError(t, UpsertFolder(ctx, db, folder))
	require.NoError(t, UpsertFolder(ctx, db, child))

	a := newTestSnippet("s1", "ada", "/a")
	a.FolderID = stringPtr("f1")
	b := newTestSnippet("s2", "ada", "/b")
	b.IsActive = false
	b.MatchType = snippet.MatchPrefix
	other := newTestSnippet("s3", "bob", "/a")
	require.NoError(t, UpsertSnippets(ctx, db, a, b, other))

	folders, snippets, err := LoadOwner(ctx, db, "ada")
	require.NoError(t, err)
	assert.Equal(t, []*snippet.Folder{folder, child}, folders)
	assert.Equal(t, []*snippet.Snippet{a, b}, snippets)
}

func TestUpsertSnippets_Replaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	sn := newTestSnippet("s1", "ada", "/a")
	require.NoError(t, UpsertSnippets(ctx, db, sn))

	updated := sn.Clone()
	updated.Body = "changed"
	updated.UpdatedAt = 3000
	require.NoError(t, UpsertSnippets(ctx, db, updated))

	_, snippets, err := LoadOwner(ctx, db, "ada")
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "changed", snippets[0].Body)
	assert.Equal(t, int64(3000), snippets[0].UpdatedAt)
	assert.Equal(t, int64(1000), snippets[0].CreatedAt)
}

func TestDeleteSnippet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, UpsertSnippets(ctx, db, newTestSnippet("s1", "ada", "/a")))

	err := DeleteSnippet(ctx, db, "bob", "s1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, DeleteSnippet(ctx, db, "ada", "s1"))
	_, snippets, err := LoadOwner(ctx, db, "ada")
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestDeleteFolder_Cascade(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, UpsertFolder(ctx, db, &snippet.Folder{ID: "root", Owner: "ada", Name: "Root"}))
	require.NoError(t, UpsertFolder(ctx, db, &snippet.Folder{ID: "f1", Owner: "ada", Name: "Work", ParentID: stringPtr("root")}))
	require.NoError(t, UpsertFolder(ctx, db, &snippet.Folder{ID: "f2", Owner: "ada", Name: "Mail", ParentID: stringPtr("f1")}))
	sn := newTestSnippet("s1", "ada", "/a")
	sn.FolderID = stringPtr("f1")
	require.NoError(t, UpsertSnippets(ctx, db, sn))

	require.NoError(t, DeleteFolder(ctx, db, "ada", "f1", 5000))

	folders, snippets, err := LoadOwner(ctx, db, "ada")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	for _, f := range folders {
		if f.ID == "f2" {
			require.NotNil(t, f.ParentID)
			assert.Equal(t, "root", *f.ParentID)
		}
		assert.NotEqual(t, "f1", f.ID)
	}
	require.Len(t, snippets, 1)
	assert.Nil(t, snippets[0].FolderID)
	assert.Equal(t, int64(5000), snippets[0].UpdatedAt)

	err = DeleteFolder(ctx, db, "ada", "f1", 6000)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, found, err := GetSettings(ctx, db, "ada")
	require.NoError(t, err)
	assert.False(t, found)

	s, err := settings.Validate(settings.Settings{
		ExpandEnabled: false,
		Trigger:       "cmd+shift+k",
		ExcludedApps:  []string{"Slack", "Terminal"},
	})
	require.NoError(t, err)
	require.NoError(t, SaveSettings(ctx, db, "ada", s))

	got, found, err := GetSettings(ctx, db, "ada")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, got.ExpandEnabled)
	assert.Equal(t, "Shift+Cmd+K", got.Trigger)
	assert.Equal(t, []string{"slack", "terminal"}, got.ExcludedApps)

	// Overwrite
	s2 := settings.Default()
	require.NoError(t, SaveSettings(ctx, db, "ada", s2))
	got, _, err = GetSettings(ctx, db, "ada")
	require.NoError(t, err)
	assert.True(t, got.ExpandEnabled)
	assert.Empty(t, got.ExcludedApps)
}

// TestStoreRoundTrip checks that a store snapshot written to SQLite loads
// back into an identical store.
func TestStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := store.New()
	f, err := src.UpsertFolder(&snippet.Folder{Owner: "ada", Name: "Work"})
	require.NoError(t, err)
	_, err = src.UpsertSnippet(&snippet.Snippet{Owner: "ada", Name: "Sig", Shortcut: "/sig", Body: "Regards", FolderID: &f.ID, IsActive: true})
	require.NoError(t, err)
	_, err = src.UpsertSnippet(&snippet.Snippet{Owner: "ada", Name: "Green", Shortcut: "green", Body: "#0f0", IsActive: true, MatchType: snippet.MatchPrefix})
	require.NoError(t, err)

	folders, snippets := src.Snapshot("ada")
	for _, folder := range folders {
		require.NoError(t, UpsertFolder(ctx, db, folder))
	}
	require.NoError(t, UpsertSnippets(ctx, db, snippets...))

	loadedFolders, loadedSnippets, err := LoadOwner(ctx, db, "ada")
	require.NoError(t, err)

	dst := store.New()
	require.NoError(t, dst.Load(loadedFolders, loadedSnippets))

	gotFolders, gotSnippets := dst.Snapshot("ada")
	assert.Equal(t, folders, gotFolders)
	assert.Equal(t, snippets, gotSnippets)
}
