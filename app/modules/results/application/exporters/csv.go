package exporters

import (
	"encoding/csv"
	"fmt"
	"io"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

// CSVExporter writes records as comma-separated values with a header row.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) ContentType() string { return "text/csv" }

func (e *CSVExporter) Extension() string { return ".csv" }

// Export writes the header and one line per record.
func (e *CSVExporter) Export(w io.Writer, records []resultstypes.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
