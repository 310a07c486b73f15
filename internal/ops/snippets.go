package ops

import (
	"log/slog"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/snippet"
)

// ListSnippetsInput contains parameters for the ListSnippets operation.
type ListSnippetsInput struct {
	Owner    string
	FolderID *string // optional filter
}

// ListSnippetsOutput contains the result of the ListSnippets operation.
type ListSnippetsOutput struct {
	Snippets []SnippetView `json:"snippets"`
}

// ListSnippets returns the owner's snippets ordered by name, optionally
// restricted to one folder.
func (e *Engine) ListSnippets(input ListSnippetsInput) (*ListSnippetsOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	snippets, err := e.store.List(owner, snippet.TrimOptional(input.FolderID))
	if err != nil {
		return nil, err
	}
	return &ListSnippetsOutput{Snippets: snippetViews(snippets)}, nil
}

// CreateSnippetInput contains parameters for the CreateSnippet operation.
type CreateSnippetInput struct {
	Owner     string
	Name      string
	Shortcut  string
	Body      string
	FolderID  *string // optional
	IsActive  *bool   // default: true
	MatchType string  // default: exact
}

// CreateSnippet creates a snippet.
func (e *Engine) CreateSnippet(input CreateSnippetInput) (*SnippetView, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	matchType, err := parseMatchType(input.MatchType)
	if err != nil {
		return nil, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	sn, err := e.store.UpsertSnippet(&snippet.Snippet{
		Owner:     owner,
		FolderID:  snippet.TrimOptional(input.FolderID),
		Name:      input.Name,
		Shortcut:  input.Shortcut,
		Body:      input.Body,
		IsActive:  active,
		MatchType: matchType,
	})
	if err != nil {
		return nil, err
	}

	e.persist.SaveSnippets(sn)
	e.logger.Info("snippet created",
		slog.String("owner", owner),
		slog.String("id", sn.ID),
		slog.String("shortcut", sn.Shortcut),
	)
	view := snippetView(sn)
	return &view, nil
}

// UpdateSnippetInput contains parameters for the UpdateSnippet operation.
// Nil fields are left unchanged.
type UpdateSnippetInput struct {
	Owner       string
	ID          string
	Name        *string
	Shortcut    *string
	Body        *string
	FolderID    *string
	ClearFolder bool // unfile; FolderID must be nil
	IsActive    *bool
	MatchType   *string
}

// UpdateSnippet applies a partial update. Either every given field is
// applied or none is.
func (e *Engine) UpdateSnippet(input UpdateSnippetInput) (*SnippetView, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	id, err := requireID("id", input.ID)
	if err != nil {
		return nil, err
	}
	if input.ClearFolder && input.FolderID != nil {
		return nil, invalidCombo("folder_id", "clear_folder")
	}
	var matchType snippet.MatchType
	if input.MatchType != nil {
		if matchType, err = parseMatchType(*input.MatchType); err != nil {
			return nil, err
		}
	}

	sn, err := e.store.UpdateSnippet(owner, id, func(sn *snippet.Snippet) error {
		if input.Name != nil {
			sn.Name = *input.Name
		}
		if input.Shortcut != nil {
			sn.Shortcut = *input.Shortcut
		}
		if input.Body != nil {
			sn.Body = *input.Body
		}
		if input.FolderID != nil {
			sn.FolderID = snippet.TrimOptional(input.FolderID)
		}
		if input.ClearFolder {
			sn.FolderID = nil
		}
		if input.IsActive != nil {
			sn.IsActive = *input.IsActive
		}
		if input.MatchType != nil {
			sn.MatchType = matchType
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.persist.SaveSnippets(sn)
	e.logger.Info("snippet updated", slog.String("owner", owner), slog.String("id", sn.ID))
	view := snippetView(sn)
	return &view, nil
}

// DeleteSnippetInput contains parameters for the DeleteSnippet operation.
type DeleteSnippetInput struct {
	Owner string
	ID    string
}

// DeleteSnippetOutput contains the result of the DeleteSnippet operation.
type DeleteSnippetOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteSnippet removes a snippet.
func (e *Engine) DeleteSnippet(input DeleteSnippetInput) (*DeleteSnippetOutput, error) {
	owner, err := normalizeOwner(input.Owner)
	if err != nil {
		return nil, err
	}
	id, err := requireID("id", input.ID)
	if err != nil {
		return nil, err
	}

	sn, err := e.store.DeleteSnippet(owner, id)
	if err != nil {
		return nil, err
	}

	e.persist.DeleteSnippet(sn)
	e.logger.Info("snippet deleted", slog.String("owner", owner), slog.String("id", id))
	return &DeleteSnippetOutput{Deleted: true, ID: id}, nil
}

// parseMatchType wraps snippet.ParseMatchType in a validation error.
func parseMatchType(s string) (snippet.MatchType, error) {
	mt, err := snippet.ParseMatchType(s)
	if err != nil {
		return "", errors.NewValidation("match_type", err.Error())
	}
	return mt, nil
}
