package resultsservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
	resultsdb "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/repositories"
	resultsmetrics "github.com/Black-And-White-Club/mtb-results/app/observability/metrics/results"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

const sampleReport = `UTAH HS MTB 2024 - REGION 4 - Vernal
Individual Results
PLC NO NAME TEAM PTS LAP1 LAP2 LAP3 LAP4 PEN TIME
Varsity Boys
1 45 Jane Doe Summit HS 210 15:20 15:45 16:02 15:58 - 1:03:05.10
2 102 John Smith Park City 205 15:30 15:50 16:10 16:00 - 1:03:30.00
* 88 Sam Hill Wasatch - - - - DNF
`

var pngSignature = []byte{0x89, 'P', 'N', 'G'}

func newTestService(repo *FakeResultsRepo, opts ...Option) *ResultsService {
	return NewResultsService(
		repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		resultsmetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		opts...,
	)
}

func storedReport(id uuid.UUID) *resultsdb.RaceReport {
	return &resultsdb.RaceReport{
		ID:          id,
		Source:      "region4.txt",
		Year:        "2024",
		Region:      "4",
		Location:    "Vernal",
		RecordCount: 3,
		DNFCount:    1,
	}
}

func storedRows(id uuid.UUID) []resultsdb.RaceResult {
	return []resultsdb.RaceResult{
		{ReportID: id, Seq: 1, RaceCategory: "Varsity Boys", Placement: "1", PlateNumber: "45", Name: "Jane Doe", Team: "Summit", Points: "210", TotalTime: "63:05.10"},
		{ReportID: id, Seq: 2, RaceCategory: "Varsity Boys", Placement: "2", PlateNumber: "102", Name: "John Smith", Team: "Park City", Points: "205", TotalTime: "63:30.00"},
		{ReportID: id, Seq: 3, RaceCategory: "Varsity Boys", Placement: "*", PlateNumber: "88", Name: "Sam Hill", Team: "Wasatch", TotalTime: "DNF", DNF: true},
	}
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantRecords int
		wantErr     error
	}{
		{name: "parses sample report", data: sampleReport, wantRecords: 3},
		{name: "empty input", data: "", wantErr: ErrEmptyReport},
		{name: "whitespace input", data: " \n\t\n", wantErr: ErrEmptyReport},
		{name: "noise only", data: "Individual Results\n\n", wantRecords: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeResultsRepo()
			svc := newTestService(repo)

			parsed, err := svc.ParseReport(context.Background(), ParseRequest{Source: "test", Data: []byte(tt.data)})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, parsed)
				return
			}
			require.NoError(t, err)
			assert.Len(t, parsed.Records, tt.wantRecords)
			assert.Empty(t, repo.Trace())
		})
	}
}

func TestParseReport_RequestPageSize(t *testing.T) {
	svc := newTestService(NewFakeResultsRepo(), WithPageSize(1))

	parsed, err := svc.ParseReport(context.Background(), ParseRequest{Data: []byte(sampleReport), FirstPageOnly: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 1)
	assert.True(t, parsed.Stats.Truncated)

	parsed, err = svc.ParseReport(context.Background(), ParseRequest{Data: []byte(sampleReport), FirstPageOnly: boolPtr(true), PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 2)
}

func TestParseReport_FirstPageDefault(t *testing.T) {
	tests := []struct {
		name         string
		serviceFirst bool
		request      *bool
		wantRecords  int
	}{
		{name: "unset uses service default off", serviceFirst: false, request: nil, wantRecords: 3},
		{name: "unset uses service default on", serviceFirst: true, request: nil, wantRecords: 1},
		{name: "request overrides default on", serviceFirst: true, request: boolPtr(false), wantRecords: 3},
		{name: "request overrides default off", serviceFirst: false, request: boolPtr(true), wantRecords: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(NewFakeResultsRepo(), WithPageSize(1), WithFirstPageOnly(tt.serviceFirst))

			parsed, err := svc.ParseReport(context.Background(), ParseRequest{Data: []byte(sampleReport), FirstPageOnly: tt.request})
			require.NoError(t, err)
			assert.Len(t, parsed.Records, tt.wantRecords)
		})
	}
}

func TestImportReport(t *testing.T) {
	fixedNow := time.Date(2024, 5, 4, 18, 30, 0, 0, time.UTC)

	t.Run("stores report and rows then notifies", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		var created *resultsdb.RaceReport
		var inserted []resultsdb.RaceResult
		repo.CreateReportFunc = func(ctx context.Context, db bun.IDB, report *resultsdb.RaceReport) error {
			report.ID = uuid.New()
			created = report
			return nil
		}
		repo.InsertResultsFunc = func(ctx context.Context, db bun.IDB, rows []resultsdb.RaceResult) error {
			inserted = rows
			return nil
		}
		notifier := &FakeNotifier{}

		svc := newTestService(repo, WithNotifier(notifier))
		svc.now = func() time.Time { return fixedNow }

		got, err := svc.ImportReport(context.Background(), ParseRequest{Source: "region4.txt", Data: []byte(sampleReport)})
		require.NoError(t, err)

		assert.Equal(t, []string{"FindReportByChecksum", "CreateReport", "InsertResults"}, repo.Trace())
		assert.Equal(t, ReportChecksum([]byte(sampleReport)), got.Checksum)
		assert.Equal(t, got.Checksum, created.Checksum)
		require.NotNil(t, created)
		assert.Equal(t, created.ID, got.ReportID)
		assert.Equal(t, resultstypes.ReportHeader{Year: "2024", Region: "4", Location: "Vernal"}, got.Header)
		assert.Equal(t, 3, got.RecordCount)
		assert.Equal(t, 1, got.DNFCount)
		assert.Equal(t, fixedNow, got.ImportedAt)
		assert.Equal(t, "Vernal", created.Location)

		require.Len(t, inserted, 3)
		assert.Equal(t, created.ID, inserted[0].ReportID)
		assert.Equal(t, "Jane Doe", inserted[0].Name)
		assert.Equal(t, "Summit", inserted[0].Team)
		assert.Equal(t, "63:05.10", inserted[0].TotalTime)
		assert.True(t, inserted[2].DNF)

		require.Len(t, notifier.Payloads, 1)
		assert.Equal(t, resultsevents.ReportImportedPayloadV1{
			ReportID:    created.ID,
			Source:      "region4.txt",
			Year:        "2024",
			Region:      "4",
			Location:    "Vernal",
			RecordCount: 3,
			DNFCount:    1,
			ImportedAt:  fixedNow,
		}, notifier.Payloads[0])
	})

	t.Run("no rows is a domain failure", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		notifier := &FakeNotifier{}
		svc := newTestService(repo, WithNotifier(notifier))

		got, err := svc.ImportReport(context.Background(), ParseRequest{Source: "banner.txt", Data: []byte("UTAH HS MTB 2024 - REGION 4 - Vernal\n")})
		require.ErrorIs(t, err, ErrNoResults)
		assert.Nil(t, got)
		assert.Empty(t, repo.Trace())
		assert.Empty(t, notifier.Payloads)
	})

	t.Run("same text and page setting is a duplicate", func(t *testing.T) {
		existingID := uuid.New()
		repo := NewFakeResultsRepo()
		var gotFirstPage bool
		repo.FindByChecksumFunc = func(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*resultsdb.RaceReport, error) {
			gotFirstPage = firstPageOnly
			return storedReport(existingID), nil
		}
		notifier := &FakeNotifier{}
		svc := newTestService(repo, WithNotifier(notifier))

		_, err := svc.ImportReport(context.Background(), ParseRequest{Source: "again.txt", Data: []byte(sampleReport), FirstPageOnly: boolPtr(true)})
		require.ErrorIs(t, err, ErrDuplicateReport)
		assert.Contains(t, err.Error(), existingID.String())
		assert.True(t, IsRejection(err))
		assert.True(t, gotFirstPage)
		assert.Equal(t, []string{"FindReportByChecksum"}, repo.Trace())
		assert.Empty(t, notifier.Payloads)
	})

	t.Run("service default page setting is stored and checked", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		var lookedUp bool
		var created *resultsdb.RaceReport
		repo.FindByChecksumFunc = func(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*resultsdb.RaceReport, error) {
			lookedUp = firstPageOnly
			return nil, resultsdb.ErrNotFound
		}
		repo.CreateReportFunc = func(ctx context.Context, db bun.IDB, report *resultsdb.RaceReport) error {
			created = report
			return nil
		}
		svc := newTestService(repo, WithFirstPageOnly(true))

		_, err := svc.ImportReport(context.Background(), ParseRequest{Source: "a.txt", Data: []byte(sampleReport)})
		require.NoError(t, err)
		assert.True(t, lookedUp)
		require.NotNil(t, created)
		assert.True(t, created.FirstPageOnly)
	})

	t.Run("unique index conflict is a duplicate", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		repo.CreateReportFunc = func(ctx context.Context, db bun.IDB, report *resultsdb.RaceReport) error {
			return fmt.Errorf("failed to insert report: %w", resultsdb.ErrDuplicateChecksum)
		}
		notifier := &FakeNotifier{}
		svc := newTestService(repo, WithNotifier(notifier))

		got, err := svc.ImportReport(context.Background(), ParseRequest{Source: "race.txt", Data: []byte(sampleReport)})
		require.ErrorIs(t, err, ErrDuplicateReport)
		assert.Nil(t, got)
		assert.True(t, IsRejection(err))
		assert.Contains(t, err.Error(), ReportChecksum([]byte(sampleReport)))
		assert.Equal(t, []string{"FindReportByChecksum", "CreateReport"}, repo.Trace())
		assert.Empty(t, notifier.Payloads)
	})

	t.Run("checksum lookup failure is an infrastructure error", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		repo.FindByChecksumFunc = func(ctx context.Context, db bun.IDB, checksum string, firstPageOnly bool) (*resultsdb.RaceReport, error) {
			return nil, errors.New("connection reset")
		}
		svc := newTestService(repo)

		_, err := svc.ImportReport(context.Background(), ParseRequest{Source: "a.txt", Data: []byte(sampleReport)})
		require.Error(t, err)
		assert.False(t, IsRejection(err))
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("empty input", func(t *testing.T) {
		svc := newTestService(NewFakeResultsRepo())
		_, err := svc.ImportReport(context.Background(), ParseRequest{})
		require.ErrorIs(t, err, ErrEmptyReport)
	})

	t.Run("insert failure is an infrastructure error", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		repo.InsertResultsFunc = func(ctx context.Context, db bun.IDB, rows []resultsdb.RaceResult) error {
			return errors.New("disk full")
		}
		notifier := &FakeNotifier{}
		svc := newTestService(repo, WithNotifier(notifier))

		_, err := svc.ImportReport(context.Background(), ParseRequest{Source: "a.txt", Data: []byte(sampleReport)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ImportReport")
		assert.Contains(t, err.Error(), "disk full")
		assert.Empty(t, notifier.Payloads)
	})

	t.Run("notifier failure does not fail the import", func(t *testing.T) {
		notifier := &FakeNotifier{
			ReportImportedFunc: func(ctx context.Context, payload resultsevents.ReportImportedPayloadV1) error {
				return errors.New("nats down")
			},
		}
		svc := newTestService(NewFakeResultsRepo(), WithNotifier(notifier))

		got, err := svc.ImportReport(context.Background(), ParseRequest{Source: "a.txt", Data: []byte(sampleReport)})
		require.NoError(t, err)
		assert.Equal(t, 3, got.RecordCount)
		assert.Len(t, notifier.Payloads, 1)
	})
}

func TestGetReport(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		setupRepo  func(*FakeResultsRepo)
		wantErr    error
		wantAnyErr bool
		wantCats   []string
	}{
		{
			name: "found with categories",
			setupRepo: func(f *FakeResultsRepo) {
				f.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
					return storedReport(got), nil
				}
				f.ListCategoriesFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) ([]string, error) {
					return []string{"Varsity Boys", "JV Girls"}, nil
				}
			},
			wantCats: []string{"Varsity Boys", "JV Girls"},
		},
		{
			name:      "not found",
			setupRepo: func(f *FakeResultsRepo) {},
			wantErr:   ErrReportNotFound,
		},
		{
			name: "database error",
			setupRepo: func(f *FakeResultsRepo) {
				f.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
					return nil, errors.New("connection refused")
				}
			},
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeResultsRepo()
			tt.setupRepo(repo)
			svc := newTestService(repo)

			got, err := svc.GetReport(context.Background(), id)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.wantAnyErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrReportNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "Vernal", got.Header.Location)
				assert.Equal(t, tt.wantCats, got.Categories)
			}
		})
	}
}

func TestListReports(t *testing.T) {
	repo := NewFakeResultsRepo()
	var gotFilter resultsdb.ReportFilter
	repo.ListReportsFunc = func(ctx context.Context, db bun.IDB, filter resultsdb.ReportFilter) ([]resultsdb.RaceReport, error) {
		gotFilter = filter
		return []resultsdb.RaceReport{*storedReport(uuid.New()), *storedReport(uuid.New())}, nil
	}
	svc := newTestService(repo)

	got, err := svc.ListReports(context.Background(), ReportQuery{Year: "2024", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, resultsdb.ReportFilter{Year: "2024", Limit: 10}, gotFilter)
	assert.Equal(t, "region4.txt", got[0].Source)
}

func TestListResults(t *testing.T) {
	id := uuid.New()
	repo := NewFakeResultsRepo()
	repo.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
		return storedReport(got), nil
	}
	var gotFilter resultsdb.ResultFilter
	repo.ListResultsFunc = func(ctx context.Context, db bun.IDB, filter resultsdb.ResultFilter) ([]resultsdb.RaceResult, error) {
		gotFilter = filter
		return storedRows(id), nil
	}
	svc := newTestService(repo)

	records, err := svc.ListResults(context.Background(), id, ResultQuery{Category: "Varsity Boys", Team: "summit"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, resultsdb.ResultFilter{ReportID: id, Category: "Varsity Boys", Team: "summit"}, gotFilter)
	for _, r := range records {
		assert.Equal(t, "2024", r.Year)
		assert.Equal(t, "4", r.Region)
		assert.Equal(t, "Vernal", r.Location)
	}
	assert.True(t, records[2].IsDNF())

	_, err = newTestService(NewFakeResultsRepo()).ListResults(context.Background(), id, ResultQuery{})
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestDeleteReport(t *testing.T) {
	repo := NewFakeResultsRepo()
	svc := newTestService(repo)
	require.NoError(t, svc.DeleteReport(context.Background(), uuid.New()))
	assert.Equal(t, []string{"DeleteReport"}, repo.Trace())

	repo.DeleteReportFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) error {
		return resultsdb.ErrNotFound
	}
	require.ErrorIs(t, svc.DeleteReport(context.Background(), uuid.New()), ErrReportNotFound)
}

func TestExportReport(t *testing.T) {
	id := uuid.New()
	newRepo := func() *FakeResultsRepo {
		repo := NewFakeResultsRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
			return storedReport(got), nil
		}
		repo.ListResultsFunc = func(ctx context.Context, db bun.IDB, filter resultsdb.ResultFilter) ([]resultsdb.RaceResult, error) {
			return storedRows(id), nil
		}
		return repo
	}

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		contentType, err := newTestService(newRepo()).ExportReport(context.Background(), id, ResultQuery{}, "csv", &buf)
		require.NoError(t, err)
		assert.Equal(t, "text/csv", contentType)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "Year,Region,Location,Race Category"))
		assert.True(t, strings.HasPrefix(lines[1], "2024,4,Vernal,Varsity Boys,1,45,Jane Doe,Summit,210"))
	})

	t.Run("unsupported format writes nothing", func(t *testing.T) {
		repo := newRepo()
		var buf bytes.Buffer
		_, err := newTestService(repo).ExportReport(context.Background(), id, ResultQuery{}, "pdf", &buf)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Zero(t, buf.Len())
		assert.Empty(t, repo.Trace())
	})

	t.Run("missing report", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := newTestService(NewFakeResultsRepo()).ExportReport(context.Background(), id, ResultQuery{}, "json", &buf)
		require.ErrorIs(t, err, ErrReportNotFound)
		assert.Zero(t, buf.Len())
	})
}

func TestRenderCategoryChart(t *testing.T) {
	id := uuid.New()

	t.Run("bar chart for finishers", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
			return storedReport(got), nil
		}
		var gotFilter resultsdb.ResultFilter
		repo.ListResultsFunc = func(ctx context.Context, db bun.IDB, filter resultsdb.ResultFilter) ([]resultsdb.RaceResult, error) {
			gotFilter = filter
			return storedRows(id), nil
		}

		png, err := newTestService(repo).RenderCategoryChart(context.Background(), id, "Varsity Boys")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngSignature))
		assert.Equal(t, "Varsity Boys", gotFilter.Category)
	})

	t.Run("placeholder when nobody finished", func(t *testing.T) {
		repo := NewFakeResultsRepo()
		repo.GetReportFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*resultsdb.RaceReport, error) {
			return storedReport(got), nil
		}

		png, err := newTestService(repo).RenderCategoryChart(context.Background(), id, "JV Girls")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngSignature))
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := newTestService(NewFakeResultsRepo()).RenderCategoryChart(context.Background(), id, "")
		require.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestFinisherTimes(t *testing.T) {
	records := []resultstypes.ResultRecord{
		{Name: "Slow", TotalTime: "70:00"},
		{Name: "Out", TotalTime: resultstypes.DNF},
		{Name: "Fast", TotalTime: "1:00:00"},
		{Name: "Blank", TotalTime: ""},
		{Name: "Mid", TotalTime: "65:30.5"},
	}

	got := FinisherTimes(records)
	assert.Equal(t, []FinisherTime{
		{Name: "Fast", Seconds: 3600},
		{Name: "Mid", Seconds: 3930.5},
		{Name: "Slow", Seconds: 4200},
	}, got)
}

func TestWithTelemetry_RecoversPanic(t *testing.T) {
	repo := NewFakeResultsRepo()
	repo.GetReportFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*resultsdb.RaceReport, error) {
		panic("boom")
	}

	got, err := newTestService(repo).GetReport(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in GetReport")
	assert.Nil(t, got)
}

func TestReportChecksum(t *testing.T) {
	lf := ReportChecksum([]byte("UTAH HS MTB 2024 - REGION 4 - Vernal\nVarsity Boys\n"))
	crlf := ReportChecksum([]byte("\xEF\xBB\xBFUTAH HS MTB 2024 - REGION 4 - Vernal\r\nVarsity Boys\r\n"))
	other := ReportChecksum([]byte("UTAH HS MTB 2024 - REGION 5 - Moab\n"))

	assert.Len(t, lf, 64)
	assert.Equal(t, lf, crlf)
	assert.NotEqual(t, lf, other)
}
