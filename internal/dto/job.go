package dto

import (
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// MigrateJobRequest starts a migration.
type MigrateJobRequest struct {
	SourcePath        string   `json:"sourcePath"`
	Tables            []string `json:"tables"`
	DryRun            bool     `json:"dryRun"`
	UploadAttachments bool     `json:"uploadAttachments"`
}

// ToDomain trims table names and drops empty ones.
func (r MigrateJobRequest) ToDomain() domain.MigrationRequest {
	var tables []string
	for _, t := range r.Tables {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return domain.MigrationRequest{
		SourcePath:        r.SourcePath,
		Tables:            tables,
		DryRun:            r.DryRun,
		UploadAttachments: r.UploadAttachments,
	}
}

// BackupJobRequest starts a backup. An empty folder uses the configured one.
type BackupJobRequest struct {
	Folder string `json:"folder"`
}

// JobAcceptedResponse acknowledges a submitted job.
type JobAcceptedResponse struct {
	Job     string `json:"job"`
	Message string `json:"message"`
}
