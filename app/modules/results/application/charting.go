package resultsservice

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/parsers"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	"github.com/Black-And-White-Club/mtb-results/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxChartBars = 30

// ChartPalette holds the colors used by the rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	TextColor  drawing.Color
}

// DefaultChartPalette is a light palette suitable for embedding in web pages.
var DefaultChartPalette = ChartPalette{
	Background: drawing.ColorFromHex("ffffff"),
	Bar:        drawing.ColorFromHex("2f6b3f"),
	TextColor:  drawing.ColorFromHex("222222"),
}

// FinisherTime is one bar of a category chart.
type FinisherTime struct {
	Name    string
	Seconds float64
}

// RenderCategoryChart draws the total times of a category's finishers as a PNG bar chart.
// DNF rows and rows without a readable total are left out; an empty category yields a placeholder image.
func (s *ResultsService) RenderCategoryChart(ctx context.Context, id uuid.UUID, category string) ([]byte, error) {
	return unwrap(withTelemetry(s, ctx, "RenderCategoryChart", id.String(), func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		listed, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]resultstypes.ResultRecord, error], error) {
			return s.listResultsLogic(ctx, db, id, ResultQuery{Category: category})
		})
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		if listed.IsFailure() {
			return results.FailureResult[[]byte, error](*listed.Failure), nil
		}

		png, err := GenerateCategoryChart(category, FinisherTimes(*listed.Success), s.palette)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	}))
}

// FinisherTimes extracts the finishers with a readable total time, fastest first.
func FinisherTimes(records []resultstypes.ResultRecord) []FinisherTime {
	out := make([]FinisherTime, 0, len(records))
	for _, r := range records {
		if r.IsDNF() {
			continue
		}
		secs, ok := parsers.ClockSeconds(r.TotalTime)
		if !ok {
			continue
		}
		out = append(out, FinisherTime{Name: r.Name, Seconds: secs})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	return out
}

// GenerateCategoryChart produces a PNG bar chart of finish times in minutes.
func GenerateCategoryChart(title string, finishers []FinisherTime, palette ChartPalette) ([]byte, error) {
	if len(finishers) == 0 {
		return renderNoDataPlaceholder(palette, "No finishers found")
	}
	if len(finishers) > maxChartBars {
		finishers = finishers[:maxChartBars]
	}

	bars := make([]chart.Value, len(finishers))
	for i, f := range finishers {
		bars[i] = chart.Value{
			Label: f.Name,
			Value: f.Seconds / 60,
			Style: chart.Style{
				FillColor:   palette.Bar,
				StrokeColor: palette.Bar,
			},
		}
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  max(400, 40*len(bars)+160),
		Height: 400,
		TitleStyle: chart.Style{
			FontColor: palette.TextColor,
		},
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor:           palette.TextColor,
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			Name: "Minutes",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		BarWidth:   30,
		BarSpacing: 10,
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws msg centered on a blank canvas. Charts need at least one
// series, so it draws on the renderer directly.
func renderNoDataPlaceholder(palette ChartPalette, msg string) ([]byte, error) {
	const (
		width  = 400
		height = 200
	)

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	r.SetFillColor(palette.Background)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(palette.TextColor)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
