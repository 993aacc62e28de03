// Package resultsevents defines the topics and payloads exchanged over the event bus.
package resultsevents

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ReportSubmittedV1 carries a raw report to be parsed and stored.
	ReportSubmittedV1 = "results.report.submitted.v1"

	// ReportImportedV1 is emitted after a report has been stored.
	ReportImportedV1 = "results.report.imported.v1"

	// ReportImportFailedV1 is emitted when a submitted report could not be imported.
	ReportImportFailedV1 = "results.report.import_failed.v1"
)

// ReportSubmittedPayloadV1 is the body of ReportSubmittedV1.
type ReportSubmittedPayloadV1 struct {
	Source string `json:"source"`
	Text   string `json:"text"`

	// FirstPageOnly is left nil to use the service default.
	FirstPageOnly *bool `json:"first_page_only,omitempty"`
}

// ReportImportedPayloadV1 is the body of ReportImportedV1.
type ReportImportedPayloadV1 struct {
	ReportID    uuid.UUID `json:"report_id"`
	Source      string    `json:"source"`
	Year        string    `json:"year"`
	Region      string    `json:"region"`
	Location    string    `json:"location"`
	RecordCount int       `json:"record_count"`
	DNFCount    int       `json:"dnf_count"`
	ImportedAt  time.Time `json:"imported_at"`
}

// ReportImportFailedPayloadV1 is the body of ReportImportFailedV1.
type ReportImportFailedPayloadV1 struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}
