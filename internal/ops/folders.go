package ops

import (
	"log/slog"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// ListFoldersInput contains parameters for the ListFolders operation.
type ListFoldersInput struct {
	Owner string
}

// ListFoldersOutput contains the result of the ListFolders operation.
type ListFoldersOutput struct {
	Folders []FolderView `json:"folders"`
}

// ListFolders returns the owner's folders ordered by name.
func (e *Engine) ListFolders(input ListFoldersInput) (*ListFoldersOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	folders := e.store.ListFolders(owner)
	out := &ListFoldersOutput{Folders: make([]FolderView, 0, len(folders))}
	for _, f := range folders {
		out.Folders = append(out.Folders, folderView(f))
	}
	return out, nil
}

// CreateFolderInput contains parameters for the CreateFolder operation.
type CreateFolderInput struct {
	Owner    string
	Name     string
	ParentID *string // optional
}

// CreateFolder creates a folder, optionally nested under ParentID.
func (e *Engine) CreateFolder(input CreateFolderInput) (*FolderView, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	f, err := e.store.UpsertFolder(&snippet.Folder{
		Owner:    owner,
		Name:     input.Name,
		ParentID: snippet.TrimOptional(input.ParentID),
	})
	if err != nil {
		return nil, err
	}

	e.persist.SaveFolder(f)
	e.logger.Info("folder created", slog.String("owner", owner), slog.String("id", f.ID))
	view := folderView(f)
	return &view, nil
}

// UpdateFolderInput contains parameters for the UpdateFolder operation.
// Nil fields are left unchanged.
type UpdateFolderInput struct {
	Owner       string
	ID          string
	Name        *string
	ParentID    *string
	ClearParent bool // move to the root; ParentID must be nil
}

// UpdateFolder renames or moves a folder.
func (e *Engine) UpdateFolder(input UpdateFolderInput) (*FolderView, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	id, err := requireID("id", input.ID)
	if err != nil {
		return nil, err
	}
	if input.ClearParent && input.ParentID != nil {
		return nil, invalidCombo("parent_id", "clear_parent")
	}

	f, err := e.store.UpdateFolder(owner, id, func(f *snippet.Folder) error {
		if input.Name != nil {
			f.Name = *input.Name
		}
		if input.ParentID != nil {
			f.ParentID = snippet.TrimOptional(input.ParentID)
		}
		if input.ClearParent {
			f.ParentID = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.persist.SaveFolder(f)
	e.logger.Info("folder updated", slog.String("owner", owner), slog.String("id", f.ID))
	view := folderView(f)
	return &view, nil
}

// DeleteFolderInput contains parameters for the DeleteFolder operation.
type DeleteFolderInput struct {
	Owner string
	ID    string
}

// DeleteFolderOutput contains the result of the DeleteFolder operation.
type DeleteFolderOutput struct {
	Deleted    bool   `json:"deleted"`
	ID         string `json:"id"`
	Unfiled    int    `json:"unfiled"`
	Reparented int    `json:"reparented"`
}

// DeleteFolder removes a folder. Its snippets become unfiled and its child
// folders move up one level.
func (e *Engine) DeleteFolder(input DeleteFolderInput) (*DeleteFolderOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	id, err := requireID("id", input.ID)
	if err != nil {
		return nil, err
	}

	del, err := e.store.DeleteFolder(owner, id)
	if err != nil {
		return nil, err
	}

	e.persist.DeleteFolder(owner, del)
	e.logger.Info("folder deleted",
		slog.String("owner", owner),
		slog.String("id", id),
		slog.Int("unfiled", len(del.Unfiled)),
	)
	return &DeleteFolderOutput{
		Deleted:    true,
		ID:         id,
		Unfiled:    len(del.Unfiled),
		Reparented: len(del.Reparented),
	}, nil
}

// invalidCombo reports two mutually exclusive fields set together.
func invalidCombo(a, b string) error {
	return errors.NewValidation(a, a+" and "+b+" are mutually exclusive")
}
