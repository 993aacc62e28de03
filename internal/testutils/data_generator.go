package testutils

import (
	"fmt"
	"strings"
	"time"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/brianvoe/gofakeit/v7"
)

// teams are raw team names as the report generator prints them, with the
// normalized form the parser is expected to produce.
var teams = []struct {
	Raw        string
	Normalized string
}{
	{"Park City High School", "Park City"},
	{"Summit HS", "Summit"},
	{"Wasatch", "Wasatch"},
	{"Bear River Mountain Bike Team", "Bear River"},
	{"Sky View Jr Devo", "Sky View"},
	{"Timpanogos", "Timpanogos"},
	{"Uintah Basin Junior Devo", "Uintah Basin"},
}

var categories = []string{
	"Varsity Boys",
	"Varsity Girls",
	"JV Boys",
	"Sophomore Girls",
	"Freshman Boys",
	"Intermediate 8th Grade",
	"Beginner 7th Grade",
}

// GeneratedRow is a synthetic report line with the record the parser should produce for it.
type GeneratedRow struct {
	Line     string
	Expected resultstypes.ResultRecord
}

// TestDataGenerator builds synthetic race reports for tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed the generator was created with.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// Header returns a random report header and its banner line.
func (g *TestDataGenerator) Header() (resultstypes.ReportHeader, string) {
	h := resultstypes.ReportHeader{
		Year:     fmt.Sprintf("%d", g.faker.Number(2015, 2030)),
		Region:   fmt.Sprintf("%d", g.faker.Number(1, 6)),
		Location: g.word(),
	}
	return h, fmt.Sprintf("UTAH HS MTB %s - REGION %s - %s", h.Year, h.Region, h.Location)
}

// Category returns a random category label that matches the category header pattern.
func (g *TestDataGenerator) Category() string {
	return categories[g.faker.Number(0, len(categories)-1)]
}

// FinisherRow generates a finisher line with points, four laps, a "-" penalty column and a total.
func (g *TestDataGenerator) FinisherRow(placement int, category string) GeneratedRow {
	team := teams[g.faker.Number(0, len(teams)-1)]
	first, last := g.word(), g.word()
	plate := fmt.Sprintf("%d", g.faker.Number(1, 9999))
	points := fmt.Sprintf("%d", g.faker.Number(100, 999))

	var laps [4]string
	total := 0
	for i := range laps {
		secs := g.faker.Number(600, 1500)
		total += secs
		laps[i] = clock(secs, g.faker.Number(0, 99))
	}
	frac := g.faker.Number(0, 99)

	line := strings.Join([]string{
		fmt.Sprintf("%d", placement), plate, first, last, team.Raw, points,
		laps[0], laps[1], laps[2], laps[3], "-", longClock(total, frac),
	}, " ")

	return GeneratedRow{
		Line: line,
		Expected: resultstypes.ResultRecord{
			RaceCategory: category,
			Placement:    fmt.Sprintf("%d", placement),
			PlateNumber:  plate,
			Name:         first + " " + last,
			Team:         team.Normalized,
			Points:       points,
			Lap1:         laps[0],
			Lap2:         laps[1],
			Lap3:         laps[2],
			Lap4:         laps[3],
			TotalTime:    clock(total, frac),
		},
	}
}

// DNFRow generates a did-not-finish line with points.
func (g *TestDataGenerator) DNFRow(category string) GeneratedRow {
	team := teams[g.faker.Number(0, len(teams)-1)]
	first, last := g.word(), g.word()
	plate := fmt.Sprintf("%d", g.faker.Number(1, 9999))
	points := fmt.Sprintf("%d", g.faker.Number(100, 999))

	line := strings.Join([]string{"*", plate, first, last, team.Raw, points, "-", "-", resultstypes.DNF}, " ")

	return GeneratedRow{
		Line: line,
		Expected: resultstypes.ResultRecord{
			RaceCategory: category,
			Placement:    "*",
			PlateNumber:  plate,
			Name:         first + " " + last,
			Team:         team.Normalized,
			Points:       points,
			TotalTime:    resultstypes.DNF,
		},
	}
}

// Report renders a full document with rowsPerCategory finisher rows in each of the
// given categories, and returns it with the expected records in document order.
func (g *TestDataGenerator) Report(categoryCount, rowsPerCategory int) (string, []resultstypes.ResultRecord) {
	header, banner := g.Header()

	var b strings.Builder
	var expected []resultstypes.ResultRecord

	b.WriteString(banner + "\n")
	b.WriteString("Individual Results\n\n")

	for c := 0; c < categoryCount; c++ {
		category := categories[c%len(categories)]
		b.WriteString(category + "\n")
		b.WriteString("PLC NO NAME TEAM PTS LAP1 LAP2 LAP3 LAP4 PENALTY TIME\n")
		for i := 1; i <= rowsPerCategory; i++ {
			row := g.FinisherRow(i, category)
			b.WriteString(row.Line + "\n")
			expected = append(expected, row.Expected.WithHeader(header))
		}
		b.WriteString("\n")
	}

	return b.String(), expected
}

// word returns a single capitalized alphabetic token.
func (g *TestDataGenerator) word() string {
	for {
		w := strings.Fields(g.faker.LastName())
		if len(w) > 0 && isAlpha(w[0]) {
			return w[0]
		}
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

// clock formats seconds as minutes:seconds.fraction, folding hours into minutes.
func clock(secs, frac int) string {
	return fmt.Sprintf("%d:%02d.%02d", secs/60, secs%60, frac)
}

// longClock formats seconds as the generator prints totals over an hour (H:MM:SS.FF).
func longClock(secs, frac int) string {
	if secs < 3600 {
		return clock(secs, frac)
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", secs/3600, (secs%3600)/60, secs%60, frac)
}
