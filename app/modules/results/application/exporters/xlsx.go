package exporters

import (
	"fmt"
	"io"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the XLSX exporter writes to.
const SheetName = "Results"

// XLSXExporter writes records to a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSX exporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string { return ".xlsx" }

// Export writes every cell as text so placements and plate numbers keep their form.
func (e *XLSXExporter) Export(w io.Writer, records []resultstypes.ResultRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, Row(r)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to resolve cell for row %d: %w", rowNum, err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
