// Package ops is the command surface shared by the CLI, the MCP server and
// the HTTP API. Every mutation is applied to the in-memory store first and
// then handed to a Persister off the typing path.
package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/spark/internal/config"
	"github.com/hpungsan/spark/internal/db"
	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/matcher"
	"github.com/hpungsan/spark/internal/settings"
	"github.com/hpungsan/spark/internal/snippet"
	"github.com/hpungsan/spark/internal/store"
	"github.com/hpungsan/spark/internal/vars"
)

// Persister receives every applied mutation. Implementations must not block
// the caller on disk I/O; db.Writer queues them.
type Persister interface {
	SaveFolder(f *snippet.Folder)
	DeleteFolder(owner string, del *store.FolderDeletion)
	SaveSnippets(snippets ...*snippet.Snippet)
	DeleteSnippet(sn *snippet.Snippet)
	SaveSettings(owner string, s *settings.Settings)
}

type nopPersister struct{}

func (nopPersister) SaveFolder(*snippet.Folder) {}
func (nopPersister) DeleteFolder(string, *store.FolderDeletion) {}
func (nopPersister) SaveSnippets(...*snippet.Snippet) {}
func (nopPersister) DeleteSnippet(*snippet.Snippet) {}
func (nopPersister) SaveSettings(string, *settings.Settings) {}

// Options configures an Engine. Zero values pick working defaults.
type Options struct {
	Config     *config.Config
	Persister  Persister
	Logger     *slog.Logger
	Renderer   *vars.Renderer
	ExportsDir string
	Clock      func() time.Time
}

// Engine owns the session state: snippets, per-owner settings and the
// matcher's typing buffers.
type Engine struct {
	cfg        *config.Config
	store      *store.Store
	matcher    *matcher.Matcher
	renderer   *vars.Renderer
	persist    Persister
	logger     *slog.Logger
	markdown   goldmark.Markdown
	exportsDir string
	now        func() time.Time

	gatesMu sync.Mutex
	gates   map[string]*settings.Gate

	// settingsMu serializes read-modify-write settings updates.
	settingsMu sync.Mutex
}

// New builds an Engine with an empty store.
func New(opts Options) *Engine {
	e := &Engine{
		cfg:        opts.Config,
		persist:    opts.Persister,
		logger:     opts.Logger,
		renderer:   opts.Renderer,
		exportsDir: opts.ExportsDir,
		now:        opts.Clock,
		markdown:   goldmark.New(),
		gates:      make(map[string]*settings.Gate),
	}
	if e.cfg == nil {
		e.cfg = config.DefaultConfig()
	}
	if e.persist == nil {
		e.persist = nopPersister{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.renderer == nil {
		e.renderer = vars.New(vars.WithClock(e.now))
	}
	e.store = store.New(store.WithClock(e.now))
	e.matcher = matcher.New(e.store,
		matcher.WithMaxContexts(e.cfg.MaxInputContexts),
		matcher.WithRenderer(e.renderer),
	)
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Load restores owner's folders, snippets and settings from the database.
// It replaces the store contents, so call it once at session start.
func (e *Engine) Load(ctx context.Context, database *sql.DB, owner string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}

	folders, snippets, err := db.LoadOwner(ctx, database, owner)
	if err != nil {
		return err
	}
	if err := e.store.Load(folders, snippets); err != nil {
		return fmt.Errorf("loading snippets for %s: %w", owner, err)
	}

	stored, found, err := db.GetSettings(ctx, database, owner)
	if err != nil {
		return err
	}
	if found {
		if _, err := e.gate(owner).Set(stored); err != nil {
			// Stored settings that no longer validate fall back to defaults.
			e.logger.Warn("ignoring stored settings",
				slog.String("owner", owner),
				slog.String("error", err.Error()),
			)
		}
	}

	e.logger.Info("session loaded",
		slog.String("owner", owner),
		slog.Int("folders", len(folders)),
		slog.Int("snippets", len(snippets)),
	)
	return nil
}

// gate returns owner's settings gate, creating one with defaults.
func (e *Engine) gate(owner string) *settings.Gate {
	e.gatesMu.Lock()
	defer e.gatesMu.Unlock()
	g, ok := e.gates[owner]
	if !ok {
		g = settings.NewGate(nil)
		e.gates[owner] = g
	}
	return g
}

// normalizeOwner trims owner and rejects an empty one.
func normalizeOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", errors.NewValidation("owner", "owner is required")
	}
	return owner, nil
}

// requireID trims an id argument and rejects an empty one.
func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewValidation(field, field+" is required")
	}
	return id, nil
}
