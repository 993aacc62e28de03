package exporters

import (
	"io"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

// Columns is the header row shared by the tabular exporters.
var Columns = []string{
	"Year", "Region", "Location", "Race Category", "Placement", "Plate#", "Name", "Team",
	"Points", "LAP1", "LAP2", "LAP3", "LAP4", "Penalty", "Total Time",
}

// Exporter writes result records in one output format.
type Exporter interface {
	Export(w io.Writer, records []resultstypes.ResultRecord) error
	ContentType() string
	Extension() string
}

// Row flattens a record into Columns order.
func Row(r resultstypes.ResultRecord) []string {
	return []string{
		r.Year, r.Region, r.Location, r.RaceCategory, r.Placement, r.PlateNumber, r.Name, r.Team,
		r.Points, r.Lap1, r.Lap2, r.Lap3, r.Lap4, r.Penalty, r.TotalTime,
	}
}
