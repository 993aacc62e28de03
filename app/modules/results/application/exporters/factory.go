package exporters

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for formats without an exporter.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExporterFactory defines the interface for choosing an exporter
type ExporterFactory interface {
	GetExporter(format string) (Exporter, error)
}

// Factory creates the appropriate exporter based on format or file extension
type Factory struct{}

// NewFactory creates a new exporter factory
func NewFactory() *Factory {
	return &Factory{}
}

// GetExporter accepts a bare format ("csv"), an extension (".csv") or a file name ("out.csv").
func (f *Factory) GetExporter(format string) (Exporter, error) {
	switch normalizeFormat(format) {
	case "csv":
		return NewCSVExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	case "json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if ext := filepath.Ext(format); ext != "" {
		format = ext
	}
	return strings.TrimPrefix(format, ".")
}
