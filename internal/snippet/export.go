package snippet

// ExportDocument is the JSON shape written by export. The importer accepts it
// back (object with a "snippets" array), so exports round-trip.
type ExportDocument struct {
	SparkExport   bool           `json:"_spark_export"`
	SchemaVersion string         `json:"schema_version"`
	ExportedAt    int64          `json:"exported_at"`
	Folders       []ExportFolder `json:"folders_index,omitempty"`
	Snippets      []ExportRecord `json:"snippets"`
}

// ExportFolder lists a folder so exported folder ids can be resolved by name.
type ExportFolder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ExportRecord is one snippet in an export document.
type ExportRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Shortcut  string    `json:"shortcut"`
	Body      string    `json:"body"`
	MatchType MatchType `json:"match_type"`
	FolderID  *string   `json:"folder_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// ToExportRecord converts a Snippet to an ExportRecord.
func ToExportRecord(s *Snippet) ExportRecord {
	return ExportRecord{
		ID:        s.ID,
		Name:      s.Name,
		Shortcut:  s.Shortcut,
		Body:      s.Body,
		MatchType: s.MatchType,
		FolderID:  cloneString(s.FolderID),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
