package resultsservice

import (
	"time"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	"github.com/google/uuid"
)

// ParseRequest is the input of ParseReport and ImportReport.
type ParseRequest struct {
	Source string
	Data   []byte

	// FirstPageOnly falls back to the service default when nil.
	FirstPageOnly *bool

	// PageSize overrides the service default when positive.
	PageSize int
}

// ImportResult summarizes a stored report.
type ImportResult struct {
	ReportID     uuid.UUID                 `json:"report_id"`
	Source       string                    `json:"source"`
	Header       resultstypes.ReportHeader `json:"header"`
	RecordCount  int                       `json:"record_count"`
	DNFCount     int                       `json:"dnf_count"`
	SkippedLines int                       `json:"skipped_lines"`
	Truncated    bool                      `json:"truncated"`
	Checksum     string                    `json:"checksum"`
	ImportedAt   time.Time                 `json:"imported_at"`
}

// ReportSummary is the read model of a stored report.
type ReportSummary struct {
	ID            uuid.UUID                 `json:"id"`
	Source        string                    `json:"source"`
	Header        resultstypes.ReportHeader `json:"header"`
	FirstPageOnly bool                      `json:"first_page_only"`
	RecordCount   int                       `json:"record_count"`
	DNFCount      int                       `json:"dnf_count"`
	SkippedLines  int                       `json:"skipped_lines"`
	Checksum      string                    `json:"checksum,omitempty"`
	ImportedAt    time.Time                 `json:"imported_at"`
	Categories    []string                  `json:"categories,omitempty"`
}

// ReportQuery narrows ListReports.
type ReportQuery struct {
	Year   string
	Region string
	Limit  int
	Offset int
}

// ResultQuery narrows ListResults and ExportReport.
type ResultQuery struct {
	Category string
	Team     string
}

func newReportSummary(r *resultsdb.RaceReport) ReportSummary {
	return ReportSummary{
		ID:            r.ID,
		Source:        r.Source,
		Header:        r.Header(),
		FirstPageOnly: r.FirstPageOnly,
		RecordCount:   r.RecordCount,
		DNFCount:      r.DNFCount,
		SkippedLines:  r.SkippedLines,
		Checksum:      r.Checksum,
		ImportedAt:    r.ImportedAt,
	}
}
