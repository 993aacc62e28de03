package resultshandlers

import (
	"context"
	"net/http"

	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
)

// Handlers defines the HTTP endpoints of the results API.
type Handlers interface {
	HandleParse(w http.ResponseWriter, r *http.Request)
	HandleImport(w http.ResponseWriter, r *http.Request)
	HandleListReports(w http.ResponseWriter, r *http.Request)
	HandleGetReport(w http.ResponseWriter, r *http.Request)
	HandleDeleteReport(w http.ResponseWriter, r *http.Request)
	HandleListResults(w http.ResponseWriter, r *http.Request)
	HandleExport(w http.ResponseWriter, r *http.Request)
	HandleChart(w http.ResponseWriter, r *http.Request)
}

// ImportEnqueuer queues a report for background import and returns the job id.
type ImportEnqueuer interface {
	EnqueueImport(ctx context.Context, payload resultsevents.ReportSubmittedPayloadV1) (int64, error)
}
