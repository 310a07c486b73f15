package snippet

// MatchType controls how a shortcut is compared against the typed tail.
type MatchType string

const (
	// MatchExact fires only when the shortcut is typed as a whole token.
	MatchExact MatchType = "exact"
	// MatchPrefix fires whenever the typed tail ends with the shortcut.
	MatchPrefix MatchType = "prefix"
)

// Folder groups snippets. Folders may nest via ParentID.
type Folder struct {
	// ID is a ULID that uniquely identifies this folder
	ID string

	// Owner is the user the folder belongs to
	Owner string

	// Name is the display name (trimmed, non-empty)
	Name string

	// ParentID is the enclosing folder (nil for a root folder)
	ParentID *string
}

// Snippet is a named text block with a shortcut that expands into Body.
type Snippet struct {
	// ID is a ULID that uniquely identifies this snippet
	ID string

	// Owner is the user the snippet belongs to
	Owner string

	// FolderID is the containing folder (nil when unfiled)
	FolderID *string

	// Name is the display name (trimmed, non-empty)
	Name string

	// Shortcut is the trigger text (trimmed, non-empty, case-sensitive)
	Shortcut string

	// Body is the replacement text; may be empty and may contain placeholders
	Body string

	// CreatedAt is the Unix timestamp in milliseconds when the snippet was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp in milliseconds of the last mutation
	UpdatedAt int64

	// IsActive reports whether the matcher considers this snippet
	IsActive bool

	// MatchType is the comparison policy for Shortcut
	MatchType MatchType
}

// Candidate is a normalized import record, before an ID and timestamps are assigned.
type Candidate struct {
	Name      string
	Shortcut  string
	Body      string
	MatchType MatchType
	FolderID  *string
}

// Clone returns a copy of s that shares no pointers with it.
func (s *Snippet) Clone() *Snippet {
	c := *s
	c.FolderID = cloneString(s.FolderID)
	return &c
}

// Clone returns a copy of f that shares no pointers with it.
func (f *Folder) Clone() *Folder {
	c := *f
	c.ParentID = cloneString(f.ParentID)
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
