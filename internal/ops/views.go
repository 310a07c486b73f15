package ops

import "github.com/hpungsan/spark/internal/snippet"

// FolderView is the wire shape of a folder.
type FolderView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// SnippetView is the wire shape of a snippet.
type SnippetView struct {
	ID        string            `json:"id"`
	FolderID  *string           `json:"folder_id"`
	Name      string            `json:"name"`
	Shortcut  string            `json:"shortcut"`
	Body      string            `json:"body"`
	MatchType snippet.MatchType `json:"match_type"`
	IsActive  bool              `json:"is_active"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
}

func folderView(f *snippet.Folder) FolderView {
	return FolderView{
		ID:       f.ID,
		Name:     f.Name,
		ParentID: f.ParentID,
	}
}

func snippetView(sn *snippet.Snippet) SnippetView {
	return SnippetView{
		ID:        sn.ID,
		FolderID:  sn.FolderID,
		Name:      sn.Name,
		Shortcut:  sn.Shortcut,
		Body:      sn.Body,
		MatchType: sn.MatchType,
		IsActive:  sn.IsActive,
		CreatedAt: sn.CreatedAt,
		UpdatedAt: sn.UpdatedAt,
	}
}

func snippetViews(snippets []*snippet.Snippet) []SnippetView {
	out := make([]SnippetView, 0, len(snippets))
	for _, sn := range snippets {
		out = append(out, snippetView(sn))
	}
	return out
}
