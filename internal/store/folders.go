package store

import (
	"strings"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// FolderDeletion describes everything a folder delete touched.
type FolderDeletion struct {
	Folder     *snippet.Folder
	Unfiled    []*snippet.Snippet // snippets whose FolderID was cleared
	Reparented []*snippet.Folder  // child folders moved to the deleted folder's parent
}

// UpsertFolder inserts draft when its ID is empty or unknown, and otherwise
// replaces the existing folder. The parent, when set, must be a folder of
// the same owner and must not make the folder its own ancestor.
func (s *Store) UpsertFolder(draft *snippet.Folder) (*snippet.Folder, error) {
	next := draft.Clone()
	if err := validateFolder(next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.folders[next.ID]
	if next.ID != "" && exists && old.Owner != next.Owner {
		return nil, errors.NewNotFound("folder", next.ID)
	}
	if next.ID == "" {
		next.ID = s.newID()
	}
	if err := s.checkParent(next); err != nil {
		return nil, err
	}

	s.folders[next.ID] = next
	return next.Clone(), nil
}

// UpdateFolder applies mutate to a copy of the folder and publishes it atomically.
func (s *Store) UpdateFolder(owner, id string, mutate func(*snippet.Folder) error) (*snippet.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.folders[id]
	if !ok || old.Owner != owner {
		return nil, errors.NewNotFound("folder", id)
	}

	next := old.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = old.ID
	next.Owner = old.Owner
	if err := validateFolder(next); err != nil {
		return nil, err
	}
	if err := s.checkParent(next); err != nil {
		return nil, err
	}

	s.folders[id] = next
	return next.Clone(), nil
}

// DeleteFolder removes a folder. Snippets filed in it become unfiled and its
// child folders move up to its parent, so no reference is left dangling.
func (s *Store) DeleteFolder(owner, id string) (*FolderDeletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.folders[id]
	if !ok || old.Owner != owner {
		return nil, errors.NewNotFound("folder", id)
	}

	result := &FolderDeletion{Folder: old.Clone()}
	now := s.nowMillis()

	for _, sn := range s.snippets {
		if sn.Owner != owner || sn.FolderID == nil || *sn.FolderID != id {
			continue
		}
		next := sn.Clone()
		next.FolderID = nil
		next.UpdatedAt = bump(sn.UpdatedAt, now)
		s.replace(sn, next)
		result.Unfiled = append(result.Unfiled, next.Clone())
	}

	for fid, f := range s.folders {
		if f.ParentID == nil || *f.ParentID != id {
			continue
		}
		next := f.Clone()
		next.ParentID = snippet.TrimOptional(old.ParentID)
		s.folders[fid] = next
		result.Reparented = append(result.Reparented, next.Clone())
	}

	delete(s.folders, id)
	return result, nil
}

// checkParent validates the parent link of f. Callers must hold the lock.
func (s *Store) checkParent(f *snippet.Folder) error {
	if f.ParentID == nil {
		return nil
	}
	parent, ok := s.folders[*f.ParentID]
	if !ok || parent.Owner != f.Owner {
		return errors.NewNotFound("folder", *f.ParentID)
	}
	if wouldCycle(s.folders, f.ID, *f.ParentID) {
		return errors.NewValidation("parent_id", "folder cannot be its own ancestor")
	}
	return nil
}

// wouldCycle reports whether giving folder id the parent parentID makes id
// its own ancestor.
func wouldCycle(folders map[string]*snippet.Folder, id, parentID string) bool {
	seen := make(map[string]bool)
	for cur := parentID; ; {
		if cur == id {
			return true
		}
		if seen[cur] {
			// Pre-existing loop that does not include id.
			return false
		}
		seen[cur] = true
		f, ok := folders[cur]
		if !ok || f.ParentID == nil {
			return false
		}
		cur = *f.ParentID
	}
}

func validateFolder(f *snippet.Folder) error {
	f.Owner = strings.TrimSpace(f.Owner)
	if f.Owner == "" {
		return errors.NewValidation("owner", "owner is required")
	}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return errors.NewValidation("name", "name must not be empty")
	}
	f.ParentID = snippet.TrimOptional(f.ParentID)
	return nil
}
