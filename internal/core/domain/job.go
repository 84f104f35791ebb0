package domain

// MigrationRequest selects what a migration run does.
type MigrationRequest struct {
	// SourcePath is the local database; empty means the configured one.
	SourcePath        string   `json:"source_path"`
	Tables            []string `json:"tables"`
	DryRun            bool     `json:"dry_run"`
	UploadAttachments bool     `json:"upload_attachments"`
}
