package store

import (
	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// UpsertSnippet inserts draft when its ID is empty or unknown, and otherwise
// replaces the existing snippet while preserving ID and CreatedAt.
// The folder link, when set, must name a folder of the same owner.
func (s *Store) UpsertSnippet(draft *snippet.Snippet) (*snippet.Snippet, error) {
	next := draft.Clone()
	if err := validateSnippet(next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFolderLink(next.Owner, next.FolderID); err != nil {
		return nil, err
	}

	now := s.nowMillis()
	old, exists := s.snippets[next.ID]
	if next.ID != "" && exists {
		if old.Owner != next.Owner {
			return nil, errors.NewNotFound("snippet", next.ID)
		}
		next.CreatedAt = old.CreatedAt
		next.UpdatedAt = bump(old.UpdatedAt, now)
	} else {
		if next.ID == "" {
			next.ID = s.newID()
		}
		next.CreatedAt = now
		next.UpdatedAt = now
		old = nil
	}

	s.replace(old, next)
	return next.Clone(), nil
}

// UpdateSnippet applies mutate to a copy of the snippet and publishes the
// result atomically. ID, Owner and CreatedAt cannot be changed by mutate.
// If mutate or validation fails the stored record is left untouched.
func (s *Store) UpdateSnippet(owner, id string, mutate func(*snippet.Snippet) error) (*snippet.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.snippets[id]
	if !ok || old.Owner != owner {
		return nil, errors.NewNotFound("snippet", id)
	}

	next := old.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = old.ID
	next.Owner = old.Owner
	next.CreatedAt = old.CreatedAt
	if err := validateSnippet(next); err != nil {
		return nil, err
	}
	if err := s.checkFolderLink(next.Owner, next.FolderID); err != nil {
		return nil, err
	}
	next.UpdatedAt = bump(old.UpdatedAt, s.nowMillis())

	s.replace(old, next)
	return next.Clone(), nil
}

// InsertSnippets validates every draft and then inserts all of them under a
// single write lock. Either every draft is inserted or none is.
func (s *Store) InsertSnippets(drafts []*snippet.Snippet) ([]*snippet.Snippet, error) {
	prepared := make([]*snippet.Snippet, 0, len(drafts))
	for _, d := range drafts {
		next := d.Clone()
		if err := validateSnippet(next); err != nil {
			return nil, err
		}
		prepared = append(prepared, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, next := range prepared {
		if err := s.checkFolderLink(next.Owner, next.FolderID); err != nil {
			return nil, err
		}
	}

	now := s.nowMillis()
	out := make([]*snippet.Snippet, 0, len(prepared))
	for _, next := range prepared {
		next.ID = s.newID()
		next.CreatedAt = now
		next.UpdatedAt = now
		s.replace(nil, next)
		out = append(out, next.Clone())
	}
	return out, nil
}

// DeleteSnippet removes a snippet and returns the removed record.
func (s *Store) DeleteSnippet(owner, id string) (*snippet.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.snippets[id]
	if !ok || old.Owner != owner {
		return nil, errors.NewNotFound("snippet", id)
	}
	s.indexRemove(old)
	delete(s.snippets, id)
	return old.Clone(), nil
}

// checkFolderLink verifies folderID names a folder of owner. Callers must hold the lock.
func (s *Store) checkFolderLink(owner string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	f, ok := s.folders[*folderID]
	if !ok || f.Owner != owner {
		return errors.NewNotFound("folder", *folderID)
	}
	return nil
}

// bump returns the next UpdatedAt value. It never goes below prev, so a
// wall clock stepping backwards cannot reorder updates.
func bump(prev, now int64) int64 {
	if now > prev {
		return now
	}
	return prev
}
