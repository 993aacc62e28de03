package exporters

import (
	"encoding/json"
	"fmt"
	"io"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

// JSONExporter writes records as an indented JSON array.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (e *JSONExporter) ContentType() string { return "application/json" }

func (e *JSONExporter) Extension() string { return ".json" }

// Export writes "[]" rather than "null" for an empty slice.
func (e *JSONExporter) Export(w io.Writer, records []resultstypes.ResultRecord) error {
	if records == nil {
		records = []resultstypes.ResultRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
