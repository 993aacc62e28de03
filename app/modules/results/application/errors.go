package resultsservice

import (
	"errors"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/exporters"
)

var (
	// ErrEmptyReport is returned when the submitted document has no text.
	ErrEmptyReport = errors.New("report is empty")

	// ErrReportNotFound is returned when no report exists for the given id.
	ErrReportNotFound = errors.New("report not found")

	// ErrNoResults is returned when a document parses to zero records.
	ErrNoResults = errors.New("no result rows found in report")

	// ErrDuplicateReport is returned when the same text was already imported with the same
	// first-page setting. The wrapped message carries the existing report id.
	ErrDuplicateReport = errors.New("report already imported")

	// ErrUnsupportedFormat is returned for export formats without an exporter.
	ErrUnsupportedFormat = exporters.ErrUnsupportedFormat
)

// IsRejection reports whether err means the document itself was refused.
// Retrying a rejected document cannot succeed.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmptyReport) ||
		errors.Is(err, ErrNoResults) ||
		errors.Is(err, ErrDuplicateReport)
}
