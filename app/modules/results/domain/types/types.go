package resultstypes

// DNF is the literal marker used by the report generator for riders that did not finish.
const DNF = "DNF"

// ReportHeader holds the document-level metadata found in the report banner.
// Every field is empty when the banner is missing.
type ReportHeader struct {
	Year     string `json:"year"`
	Region   string `json:"region"`
	Location string `json:"location"`
}

// ResultRecord is one normalized result row.
type ResultRecord struct {
	Year         string `json:"year"`
	Region       string `json:"region"`
	Location     string `json:"location"`
	RaceCategory string `json:"race_category"`
	Placement    string `json:"placement"`
	PlateNumber  string `json:"plate_number"`
	Name         string `json:"name"`
	Team         string `json:"team"`
	Points       string `json:"points"`
	Lap1         string `json:"lap1"`
	Lap2         string `json:"lap2"`
	Lap3         string `json:"lap3"`
	Lap4         string `json:"lap4"`
	Penalty      string `json:"penalty"`
	TotalTime    string `json:"total_time"`
}

// IsDNF reports whether the record is the did-not-finish variant.
func (r ResultRecord) IsDNF() bool {
	return r.TotalTime == DNF
}

// Laps returns the four lap columns in order.
func (r ResultRecord) Laps() [4]string {
	return [4]string{r.Lap1, r.Lap2, r.Lap3, r.Lap4}
}

// WithHeader returns a copy of the record stamped with the report header fields.
func (r ResultRecord) WithHeader(h ReportHeader) ResultRecord {
	r.Year = h.Year
	r.Region = h.Region
	r.Location = h.Location
	return r
}

// LineKind is the classification of one report line.
type LineKind int

const (
	// LineNoise is a blank line or a banner/column-header line.
	LineNoise LineKind = iota
	// LineCategory is a category header such as "Varsity Boys".
	LineCategory
	// LineRow is a result-row candidate; the row grammar makes the final call.
	LineRow
)

func (k LineKind) String() string {
	switch k {
	case LineNoise:
		return "noise"
	case LineCategory:
		return "category"
	case LineRow:
		return "row"
	default:
		return "unknown"
	}
}

// ParseStats is the diagnostics side channel of a parse. It never affects the records.
type ParseStats struct {
	Lines        int      `json:"lines"`
	NoiseLines   int      `json:"noise_lines"`
	Categories   []string `json:"categories"`
	RowsParsed   int      `json:"rows_parsed"`
	DNFRows      int      `json:"dnf_rows"`
	SkippedLines int      `json:"skipped_lines"`
	Truncated    bool     `json:"truncated"`
}

// ParsedReport is the full output of parsing one document.
type ParsedReport struct {
	Header  ReportHeader   `json:"header"`
	Records []ResultRecord `json:"records"`
	Stats   ParseStats     `json:"stats"`
}
