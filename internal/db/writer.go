package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpungsan/spark/internal/settings"
	"github.com/hpungsan/spark/internal/snippet"
	"github.com/hpungsan/spark/internal/store"
)

// ErrWriterClosed is returned by Flush after Close.
var ErrWriterClosed = stderrors.New("writer closed")

// DefaultWriterBuffer is the number of pending writes queued before
// Enqueue blocks.
const DefaultWriterBuffer = 256

// writeTimeout bounds a single queued write.
const writeTimeout = 10 * time.Second

// Op is one queued database write.
type Op func(ctx context.Context, db *sql.DB) error

type job struct {
	name string
	op   Op
	done chan struct{} // non-nil for flush barriers
}

// Writer applies store mutations to SQLite on a single background
// goroutine, so callers never wait on disk I/O. Failures are logged.
type Writer struct {
	db     *sql.DB
	logger *slog.Logger
	jobs   chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	failures atomic.Int64
}

// NewWriter starts a Writer. buffer <= 0 uses DefaultWriterBuffer.
func NewWriter(db *sql.DB, logger *slog.Logger, buffer int) *Writer {
	if buffer <= 0 {
		buffer = DefaultWriterBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		db:     db,
		logger: logger,
		jobs:   make(chan job, buffer),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		if j.done != nil {
			close(j.done)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := j.op(ctx, w.db)
		cancel()
		if err != nil {
			w.failures.Add(1)
			w.logger.Error("persist failed",
				slog.String("op", j.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		w.logger.Debug("persisted", slog.String("op", j.name))
	}
}

// Enqueue queues op. Writes after Close are dropped and logged.
func (w *Writer) Enqueue(name string, op Op) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Warn("persist dropped: writer closed", slog.String("op", name))
		return
	}
	w.jobs <- job{name: name, op: op}
}

// Flush waits until every write queued before the call has been applied.
func (w *Writer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	w.jobs <- job{name: "flush", done: done}
	w.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the goroutine. It is safe to call twice.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// Failures returns how many queued writes have failed.
func (w *Writer) Failures() int64 {
	return w.failures.Load()
}

// SaveFolder queues an upsert of f.
func (w *Writer) SaveFolder(f *snippet.Folder) {
	w.Enqueue("save_folder", func(ctx context.Context, db *sql.DB) error {
		return UpsertFolder(ctx, db, f)
	})
}

// DeleteFolder queues a folder delete with its cascade.
func (w *Writer) DeleteFolder(owner string, del *store.FolderDeletion) {
	var stamp int64
	for _, sn := range del.Unfiled {
		if sn.UpdatedAt > stamp {
			stamp = sn.UpdatedAt
		}
	}
	w.Enqueue("delete_folder", func(ctx context.Context, db *sql.DB) error {
		if err := DeleteFolder(ctx, db, owner, del.Folder.ID, stamp); err != nil {
			return err
		}
		return UpsertSnippets(ctx, db, del.Unfiled...)
	})
}

// SaveSnippets queues an upsert of every snippet in one transaction.
func (w *Writer) SaveSnippets(snippets ...*snippet.Snippet) {
	w.Enqueue("save_snippets", func(ctx context.Context, db *sql.DB) error {
		return UpsertSnippets(ctx, db, snippets...)
	})
}

// DeleteSnippet queues removal of sn.
func (w *Writer) DeleteSnippet(sn *snippet.Snippet) {
	w.Enqueue("delete_snippet", func(ctx context.Context, db *sql.DB) error {
		return DeleteSnippet(ctx, db, sn.Owner, sn.ID)
	})
}

// SaveSettings queues the settings row for owner.
func (w *Writer) SaveSettings(owner string, s *settings.Settings) {
	w.Enqueue("save_settings", func(ctx context.Context, db *sql.DB) error {
		return SaveSettings(ctx, db, owner, s)
	})
}
