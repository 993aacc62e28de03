package resultshandlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	resultsevents "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/events"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const defaultSource = "upload"

// ResultsHandlers implements the Handlers interface.
type ResultsHandlers struct {
	service  resultsservice.Service
	enqueuer ImportEnqueuer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewResultsHandlers creates a new ResultsHandlers instance. enqueuer may be nil, which
// disables ?async=true imports.
func NewResultsHandlers(
	service resultsservice.Service,
	enqueuer ImportEnqueuer,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ResultsHandlers{
		service:  service,
		enqueuer: enqueuer,
		logger:   logger,
		tracer:   tracer,
	}
}

// HandleParse parses the request body and returns the records without storing them.
func (h *ResultsHandlers) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleParse")
	defer span.End()

	firstPageOnly, err := optionalBoolQuery(r, "first_page_only")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	parsed, err := h.service.ParseReport(ctx, resultsservice.ParseRequest{
		Source:        sourceOf(r),
		Data:          body,
		FirstPageOnly: firstPageOnly,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, parsed)
}

// HandleImport stores a report. With ?async=true the report is queued instead.
func (h *ResultsHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleImport")
	defer span.End()

	firstPageOnly, err := optionalBoolQuery(r, "first_page_only")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	async, err := boolQuery(r, "async")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		http.Error(w, resultsservice.ErrEmptyReport.Error(), http.StatusBadRequest)
		return
	}

	if async {
		if h.enqueuer == nil {
			http.Error(w, "async import is not enabled", http.StatusServiceUnavailable)
			return
		}
		jobID, err := h.enqueuer.EnqueueImport(ctx, resultsevents.ReportSubmittedPayloadV1{
			Source:        sourceOf(r),
			Text:          string(body),
			FirstPageOnly: firstPageOnly,
		})
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to enqueue import",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			http.Error(w, "failed to enqueue import", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID})
		return
	}

	imported, err := h.service.ImportReport(ctx, resultsservice.ParseRequest{
		Source:        sourceOf(r),
		Data:          body,
		FirstPageOnly: firstPageOnly,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/reports/"+imported.ReportID.String())
	writeJSON(w, http.StatusCreated, imported)
}

// HandleListReports lists stored reports, newest first.
func (h *ResultsHandlers) HandleListReports(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleListReports")
	defer span.End()

	limit, err := intQuery(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reports, err := h.service.ListReports(ctx, resultsservice.ReportQuery{
		Year:   r.URL.Query().Get("year"),
		Region: r.URL.Query().Get("region"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// HandleGetReport returns one report summary.
func (h *ResultsHandlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleGetReport")
	defer span.End()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	report, err := h.service.GetReport(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleDeleteReport removes a report and its rows.
func (h *ResultsHandlers) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleDeleteReport")
	defer span.End()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReport(ctx, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListResults returns a report's records, optionally narrowed by category and team.
func (h *ResultsHandlers) HandleListResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleListResults")
	defer span.End()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListResults(ctx, id, resultQuery(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// HandleExport downloads a report as csv, xlsx or json.
func (h *ResultsHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleExport")
	defer span.End()

	id, ok := reportID(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")

	var buf bytes.Buffer
	contentType, err := h.service.ExportReport(ctx, id, resultQuery(r), format, &buf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.%s"`, id, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleChart returns a PNG chart of a category's finish times.
func (h *ResultsHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HandleChart")
	defer span.End()

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	png, err := h.service.RenderCategoryChart(ctx, id, r.URL.Query().Get("category"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// readBody reads the whole request body, answering 413 when MaxBytesMiddleware cut it off.
func (h *ResultsHandlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// writeServiceError maps service errors onto status codes; anything unknown is a 500.
func (h *ResultsHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resultsservice.ErrReportNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, resultsservice.ErrEmptyReport), errors.Is(err, resultsservice.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resultsservice.ErrNoResults):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, resultsservice.ErrDuplicateReport):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func reportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func sourceOf(r *http.Request) string {
	if s := r.URL.Query().Get("source"); s != "" {
		return s
	}
	return defaultSource
}

func resultQuery(r *http.Request) resultsservice.ResultQuery {
	return resultsservice.ResultQuery{
		Category: r.URL.Query().Get("category"),
		Team:     r.URL.Query().Get("team"),
	}
}

func boolQuery(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

// optionalBoolQuery returns nil when key is absent so the service default applies.
func optionalBoolQuery(r *http.Request, key string) (*bool, error) {
	if r.URL.Query().Get(key) == "" {
		return nil, nil
	}
	b, err := boolQuery(r, key)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func intQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
