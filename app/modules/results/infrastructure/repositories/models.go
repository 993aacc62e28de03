package resultsdb

import (
	"time"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RaceReport is one imported report document.
type RaceReport struct {
	bun.BaseModel `bun:"table:race_reports,alias:rr"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Source        string    `bun:"source,notnull"`
	Year          string    `bun:"year"`
	Region        string    `bun:"region"`
	Location      string    `bun:"location"`
	FirstPageOnly bool      `bun:"first_page_only,notnull"`
	RecordCount   int       `bun:"record_count,notnull"`
	DNFCount      int       `bun:"dnf_count,notnull"`
	SkippedLines  int       `bun:"skipped_lines,notnull"`
	Checksum      string    `bun:"checksum"`
	ImportedAt    time.Time `bun:"imported_at,notnull"`
}

// Header returns the report-level fields stamped on every record.
func (r *RaceReport) Header() resultstypes.ReportHeader {
	return resultstypes.ReportHeader{
		Year:     r.Year,
		Region:   r.Region,
		Location: r.Location,
	}
}

// RaceResult is one stored result row. Seq keeps document order within a report.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:res"`

	ID           int64     `bun:"id,pk,autoincrement"`
	ReportID     uuid.UUID `bun:"report_id,type:uuid,notnull"`
	Seq          int       `bun:"seq,notnull"`
	RaceCategory string    `bun:"race_category"`
	Placement    string    `bun:"placement"`
	PlateNumber  string    `bun:"plate_number"`
	Name         string    `bun:"name"`
	Team         string    `bun:"team"`
	Points       string    `bun:"points"`
	Lap1         string    `bun:"lap1"`
	Lap2         string    `bun:"lap2"`
	Lap3         string    `bun:"lap3"`
	Lap4         string    `bun:"lap4"`
	Penalty      string    `bun:"penalty"`
	TotalTime    string    `bun:"total_time"`
	DNF          bool      `bun:"dnf,notnull"`
}

// ReportFilter narrows ListReports. Zero fields match everything.
type ReportFilter struct {
	Year   string
	Region string
	Limit  int
	Offset int
}

// ResultFilter narrows ListResults to one report and optionally a category and team.
type ResultFilter struct {
	ReportID uuid.UUID
	Category string
	Team     string
}

// NewRaceResults converts parsed records into rows for reportID, numbered in order.
func NewRaceResults(reportID uuid.UUID, records []resultstypes.ResultRecord) []RaceResult {
	rows := make([]RaceResult, len(records))
	for i, rec := range records {
		rows[i] = RaceResult{
			ReportID:     reportID,
			Seq:          i + 1,
			RaceCategory: rec.RaceCategory,
			Placement:    rec.Placement,
			PlateNumber:  rec.PlateNumber,
			Name:         rec.Name,
			Team:         rec.Team,
			Points:       rec.Points,
			Lap1:         rec.Lap1,
			Lap2:         rec.Lap2,
			Lap3:         rec.Lap3,
			Lap4:         rec.Lap4,
			Penalty:      rec.Penalty,
			TotalTime:    rec.TotalTime,
			DNF:          rec.IsDNF(),
		}
	}
	return rows
}

// Record rebuilds the domain record, stamped with the report header.
func (r *RaceResult) Record(header resultstypes.ReportHeader) resultstypes.ResultRecord {
	return resultstypes.ResultRecord{
		RaceCategory: r.RaceCategory,
		Placement:    r.Placement,
		PlateNumber:  r.PlateNumber,
		Name:         r.Name,
		Team:         r.Team,
		Points:       r.Points,
		Lap1:         r.Lap1,
		Lap2:         r.Lap2,
		Lap3:         r.Lap3,
		Lap4:         r.Lap4,
		Penalty:      r.Penalty,
		TotalTime:    r.TotalTime,
	}.WithHeader(header)
}
