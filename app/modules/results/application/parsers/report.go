package parsers

import (
	"log/slog"
	"regexp"
	"strings"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

// DefaultPageSize is the number of records on the first page of a report.
const DefaultPageSize = 20

var headerPattern = regexp.MustCompile(`UTAH HS MTB (\d+)\s*-\s*REGION (\d+)\s*-\s*(\w+)`)

// ReportParser walks a report line by line and builds result records.
type ReportParser struct {
	// FirstPageOnly stops the walk as soon as PageSize records have been collected.
	FirstPageOnly bool

	// PageSize defaults to DefaultPageSize when zero.
	PageSize int

	// Logger receives per-line diagnostics at debug level. Nil discards them.
	Logger *slog.Logger

	classify func(line string) LineClass
}

// NewReportParser creates a report parser.
func NewReportParser(firstPageOnly bool, logger *slog.Logger) *ReportParser {
	return &ReportParser{
		FirstPageOnly: firstPageOnly,
		Logger:        logger,
	}
}

// ParseReport parses a whole report and returns only its records.
func ParseReport(text string, firstPageOnly bool) []resultstypes.ResultRecord {
	return NewReportParser(firstPageOnly, nil).Parse(text).Records
}

// ParseHeader extracts year, region and location from the report banner.
func ParseHeader(text string) resultstypes.ReportHeader {
	m := headerPattern.FindStringSubmatch(text)
	if m == nil {
		return resultstypes.ReportHeader{}
	}
	return resultstypes.ReportHeader{
		Year:     m[1],
		Region:   m[2],
		Location: m[3],
	}
}

// ParseBytes preprocesses raw bytes and parses them.
func (p *ReportParser) ParseBytes(data []byte) resultstypes.ParsedReport {
	return p.Parse(Preprocess(data))
}

// Parse walks text in document order. The current category is threaded through the
// loop and handed to the row grammar, so each row is parsed from (tokens, category) only.
func (p *ReportParser) Parse(text string) resultstypes.ParsedReport {
	logger := p.logger()
	classify := p.classify
	if classify == nil {
		classify = ClassifyLine
	}
	limit := p.pageSize()

	header := ParseHeader(text)
	report := resultstypes.ParsedReport{
		Header:  header,
		Records: []resultstypes.ResultRecord{},
		Stats:   resultstypes.ParseStats{Categories: []string{}},
	}

	category := ""
	for _, line := range strings.Split(text, "\n") {
		report.Stats.Lines++

		class := classify(line)
		switch class.Kind {
		case resultstypes.LineNoise:
			report.Stats.NoiseLines++
			continue
		case resultstypes.LineCategory:
			category = class.Category
			report.Stats.Categories = append(report.Stats.Categories, category)
			logger.Debug("Found category", slog.String("category", category))
			continue
		}

		record, ok := ParseRow(Tokenize(line), category)
		if !ok {
			report.Stats.SkippedLines++
			continue
		}

		record = record.WithHeader(header)
		report.Records = append(report.Records, record)
		report.Stats.RowsParsed++

		if record.IsDNF() {
			report.Stats.DNFRows++
			logger.Debug("Parsed DNF row",
				slog.String("placement", record.Placement),
				slog.String("plate", record.PlateNumber),
				slog.String("name", record.Name),
				slog.String("team", record.Team),
				slog.String("points", record.Points),
			)
		} else {
			logger.Debug("Parsed result row",
				slog.String("placement", record.Placement),
				slog.String("plate", record.PlateNumber),
				slog.String("name", record.Name),
				slog.String("team", record.Team),
				slog.String("points", record.Points),
			)
		}

		if p.FirstPageOnly && len(report.Records) >= limit {
			report.Stats.Truncated = true
			break
		}
	}

	logger.Debug("Total results parsed",
		slog.Int("count", len(report.Records)),
		slog.Int("skipped", report.Stats.SkippedLines),
	)

	return report
}

func (p *ReportParser) pageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

func (p *ReportParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
