// Package store holds the in-memory snippet and folder model for a session.
//
// Records are immutable once published: every mutation builds a fresh
// record and swaps it into the maps under the write lock, so readers never
// observe a partially applied change.
package store

import (
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// Store is the canonical in-memory folder/snippet set.
type Store struct {
	mu       sync.RWMutex
	folders  map[string]*snippet.Folder
	snippets map[string]*snippet.Snippet
	owners   map[string]*ownerIndex
	entropy  *ulid.MonotonicEntropy
	now      func() time.Time
}

// ownerIndex is the per-owner lookup structure for active snippets.
type ownerIndex struct {
	byShortcut map[string][]*snippet.Snippet
	lengths    map[int]int // shortcut rune length -> number of active snippets
	maxLen     int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		folders:  make(map[string]*snippet.Folder),
		snippets: make(map[string]*snippet.Snippet),
		owners:   make(map[string]*ownerIndex),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the store contents with previously persisted records.
// Records are validated the same way as upserts; on error nothing is loaded.
func (s *Store) Load(folders []*snippet.Folder, snippets []*snippet.Snippet) error {
	nf := make(map[string]*snippet.Folder, len(folders))
	for _, f := range folders {
		if f.ID == "" || strings.TrimSpace(f.Owner) == "" {
			return errors.NewInvalidRequest("folder id and owner are required")
		}
		nf[f.ID] = f.Clone()
	}
	for _, f := range nf {
		if f.ParentID == nil {
			continue
		}
		if p, ok := nf[*f.ParentID]; !ok || p.Owner != f.Owner {
			return errors.NewNotFound("folder", *f.ParentID)
		}
		if wouldCycle(nf, f.ID, *f.ParentID) {
			return errors.NewInvalidRequest("folder parent would create a cycle: " + f.ID)
		}
	}

	ns := make(map[string]*snippet.Snippet, len(snippets))
	for _, sn := range snippets {
		c := sn.Clone()
		if err := validateSnippet(c); err != nil {
			return err
		}
		if c.ID == "" {
			return errors.NewInvalidRequest("snippet id is required")
		}
		if c.FolderID != nil {
			if f, ok := nf[*c.FolderID]; !ok || f.Owner != c.Owner {
				return errors.NewNotFound("folder", *c.FolderID)
			}
		}
		if c.UpdatedAt < c.CreatedAt {
			c.UpdatedAt = c.CreatedAt
		}
		ns[c.ID] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = nf
	s.snippets = ns
	s.owners = make(map[string]*ownerIndex)
	for _, sn := range ns {
		s.indexAdd(sn)
	}
	return nil
}

// GetSnippet returns an immutable view of a snippet.
func (s *Store) GetSnippet(owner, id string) (*snippet.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sn, ok := s.snippets[id]
	if !ok || sn.Owner != owner {
		return nil, errors.NewNotFound("snippet", id)
	}
	return sn.Clone(), nil
}

// GetFolder returns an immutable view of a folder.
func (s *Store) GetFolder(owner, id string) (*snippet.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok || f.Owner != owner {
		return nil, errors.NewNotFound("folder", id)
	}
	return f.Clone(), nil
}

// List returns the owner's snippets ordered by name then id. When folderID is
// non-nil only snippets filed in that folder are returned.
func (s *Store) List(owner string, folderID *string) ([]*snippet.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if folderID != nil {
		if f, ok := s.folders[*folderID]; !ok || f.Owner != owner {
			return nil, errors.NewNotFound("folder", *folderID)
		}
	}
	out := make([]*snippet.Snippet, 0)
	for _, sn := range s.snippets {
		if sn.Owner != owner {
			continue
		}
		if folderID != nil && (sn.FolderID == nil || *sn.FolderID != *folderID) {
			continue
		}
		out = append(out, sn.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListFolders returns the owner's folders ordered by name then id.
func (s *Store) ListFolders(owner string) []*snippet.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*snippet.Folder, 0)
	for _, f := range s.folders {
		if f.Owner == owner {
			out = append(out, f.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Snapshot returns every folder and snippet of owner.
func (s *Store) Snapshot(owner string) ([]*snippet.Folder, []*snippet.Snippet) {
	folders := s.ListFolders(owner)
	snippets, _ := s.List(owner, nil)
	return folders, snippets
}

// nowMillis returns the current time in Unix milliseconds.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// newID returns a ULID. Callers must hold the write lock.
func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// validateSnippet trims and checks a snippet draft in place.
func validateSnippet(sn *snippet.Snippet) error {
	sn.Owner = strings.TrimSpace(sn.Owner)
	if sn.Owner == "" {
		return errors.NewValidation("owner", "owner is required")
	}
	sn.Name = strings.TrimSpace(sn.Name)
	if sn.Name == "" {
		return errors.NewValidation("name", "name must not be empty")
	}
	sn.Shortcut = strings.TrimSpace(sn.Shortcut)
	if sn.Shortcut == "" {
		return errors.NewValidation("shortcut", "shortcut must not be empty")
	}
	if sn.MatchType == "" {
		sn.MatchType = snippet.MatchExact
	}
	if !sn.MatchType.Valid() {
		return errors.NewValidation("match_type", "match_type must be one of: exact, prefix")
	}
	sn.FolderID = snippet.TrimOptional(sn.FolderID)
	return nil
}
