package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/parts-catalog/constants"
)

// DocumentRun is one processing attempt of a source PDF, stored in the documents table.
type DocumentRun struct {
	ID           int64                    `json:"id"`
	RunID        uuid.UUID                `json:"run_id"`
	Path         string                   `json:"path"`
	Kind         constants.DocumentKind   `json:"kind"`
	ContentHash  string                   `json:"content_hash,omitempty"`
	Status       constants.DocumentStatus `json:"status"`
	Pages        int                      `json:"pages"`
	Parts        int                      `json:"parts"`
	Images       int                      `json:"images"`
	ErrorMessage *string                  `json:"error_message,omitempty"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   *time.Time               `json:"finished_at,omitempty"`
}
