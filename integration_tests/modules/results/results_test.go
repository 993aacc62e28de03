//go:build integration

package results_integration_tests

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/mtb-results/app/modules/results"
	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability"
	"github.com/Black-And-White-Club/mtb-results/integration_tests/testutils"
)

const report = `UTAH HS MTB 2024 - REGION 4 - Vernal
Individual Results
PLC NO NAME TEAM PTS LAP1 LAP2 LAP3 LAP4 PEN TIME
Varsity Boys
1 45 Jane Doe Summit HS 210 15:20 15:45 16:02 15:58 - 1:03:05.10
2 102 John Smith Park City 205 15:30 15:50 16:10 16:00 - 1:03:30.00
JV Girls
1 12 Ada Lane Wasatch Mountain Bike Team 180 20:01 20:15 - - 0:30 41:46.00
* 88 Sam Hill Wasatch - - - - DNF
`

func newModule(t *testing.T, env *testutils.TestEnvironment) *results.Module {
	t.Helper()

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(env.Logger))
	require.NoError(t, err)

	obs := observability.NewNoop()
	m, err := results.NewResultsModule(env.Ctx, env.Config, obs, env.DBService, env.EventBus, router, chi.NewRouter())
	require.NoError(t, err)
	require.NotNil(t, m.Queue)
	return m
}

func TestResultsIntegration(t *testing.T) {
	env := testutils.NewTestEnvironment(t)
	m := newModule(t, env)

	t.Run("import publishes base and region events", func(t *testing.T) {
		env.Reset(t)
		ctx, cancel := context.WithTimeout(env.Ctx, 20*time.Second)
		defer cancel()

		base, err := env.EventBus.Subscribe(ctx, resultsevents.ReportImportedV1)
		require.NoError(t, err)
		scoped, err := env.EventBus.Subscribe(ctx, resultsevents.ReportImportedV1+".region.4")
		require.NoError(t, err)

		imported, err := m.ResultsService.ImportReport(ctx, resultsservice.ParseRequest{Source: "r4.txt", Data: []byte(report)})
		require.NoError(t, err)
		assert.Equal(t, 4, imported.RecordCount)
		assert.Equal(t, 1, imported.DNFCount)

		for _, ch := range []<-chan *message.Message{base, scoped} {
			select {
			case msg := <-ch:
				msg.Ack()
				var payload resultsevents.ReportImportedPayloadV1
				require.NoError(t, json.Unmarshal(msg.Payload, &payload))
				assert.Equal(t, imported.ReportID, payload.ReportID)
			case <-ctx.Done():
				t.Fatal("report imported event not received")
			}
		}

		records, err := m.ResultsService.ListResults(ctx, imported.ReportID, resultsservice.ResultQuery{Category: "JV Girls"})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Wasatch", records[0].Team)
		assert.Equal(t, "0:30", records[0].Penalty)

		summary, err := m.ResultsService.GetReport(ctx, imported.ReportID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Varsity Boys", "JV Girls"}, summary.Categories)
		assert.Equal(t, imported.Checksum, summary.Checksum)

		_, err = m.ResultsService.ImportReport(ctx, resultsservice.ParseRequest{Source: "r4-again.txt", Data: []byte(report)})
		require.ErrorIs(t, err, resultsservice.ErrDuplicateReport)
	})

	t.Run("queued import is worked", func(t *testing.T) {
		env.Reset(t)
		ctx, cancel := context.WithTimeout(env.Ctx, 30*time.Second)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go m.Run(ctx, &wg)
		t.Cleanup(func() {
			_ = m.Close()
			wg.Wait()
		})

		jobID, err := m.Queue.EnqueueImport(ctx, resultsevents.ReportSubmittedPayloadV1{Source: "queued.txt", Text: report})
		require.NoError(t, err)
		assert.Positive(t, jobID)

		require.Eventually(t, func() bool {
			reports, err := m.ResultsService.ListReports(ctx, resultsservice.ReportQuery{})
			return err == nil && len(reports) == 1 && reports[0].Source == "queued.txt"
		}, 20*time.Second, 200*time.Millisecond)

		require.NoError(t, m.HealthCheck(ctx))
	})
}
