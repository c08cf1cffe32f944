package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/scriptureforge/draft-audit/internal/metrics"
	"github.com/scriptureforge/draft-audit/internal/report"
	"github.com/scriptureforge/draft-audit/internal/service"
)

// Runner executes one reconstruction pass.
type Runner interface {
	Run(ctx context.Context, window service.Window) (service.Result, error)
}

// HealthChecker provides database health status for the /health endpoint.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	runner Runner
	sink   metrics.Sink
	db     HealthChecker
}

func NewHandler(runner Runner, sink metrics.Sink) *Handler {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	return &Handler{runner: runner, sink: sink}
}

// WithHealthChecker sets the database health checker for verbose /health responses.
func (h *Handler) WithHealthChecker(db HealthChecker) *Handler {
	h.db = db
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/draft-jobs" && r.Method == http.MethodGet:
		h.listDraftJobs(w, r)

	case path == "/draft-jobs/export" && r.Method == http.MethodGet:
		h.exportDraftJobs(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || h.db == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["database"] = "unhealthy: " + err.Error()
	} else {
		resp.Components["database"] = "healthy"
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, resp)
}

func (h *Handler) listDraftJobs(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), window)
	if err != nil {
		// Never serve a partially reconstructed table; the client
		// renders an explicit unavailable state instead.
		log.Printf("api: list draft jobs error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "event data unavailable")
		return
	}

	writeJSON(w, http.StatusOK, buildListResponse(result))
}

func (h *Handler) exportDraftJobs(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := parseFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), window)
	if err != nil {
		log.Printf("api: export draft jobs error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "event data unavailable")
		return
	}

	var buf bytes.Buffer
	switch format {
	case report.FormatCSV:
		err = report.WriteCSV(&buf, result.Rows, result.Stats)
	case report.FormatRSV:
		err = report.WriteRSV(&buf, result.Rows, result.Stats)
	}
	if err != nil {
		log.Printf("api: serialize export error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to serialize export")
		return
	}

	filename := report.ExportFilename(window.Start, window.End, format)
	contentType := "text/csv"
	if format == report.FormatRSV {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("api: write export error: %v", err)
		return
	}

	h.sink.ExportCompleted(format, len(result.Rows))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
