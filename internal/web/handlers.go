package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/history"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
)

// TriggerResponse acknowledges an admitted run.
type TriggerResponse struct {
	RunID  string         `json:"run_id"`
	Status history.Status `json:"status"`
}

// RunListResponse is returned by GET /api/runs.
type RunListResponse struct {
	Runs    []*history.Run            `json:"runs"`
	Limiter pipeline.RunLimiterStatus `json:"limiter"`
}

// ValidateResponse is returned by POST /api/validate.
type ValidateResponse struct {
	HasHeader bool                  `json:"has_header"`
	Stats     core.ValidationStats  `json:"stats"`
	Rejected  []core.RejectedRecord `json:"rejected"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string                    `json:"status"`
	Time    time.Time                 `json:"time"`
	Limiter pipeline.RunLimiterStatus `json:"limiter"`
}

// handleHealth reports liveness and whether a run is active.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC(),
		Limiter: s.limiter.Status(),
	})
}

// handleTriggerRun starts a pipeline run in the background.
// Returns 409 while another run holds the staging area.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	runID, err := s.startRun()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Location", "/api/runs/"+runID)
	writeJSON(w, http.StatusAccepted, TriggerResponse{RunID: runID, Status: history.StatusRunning})
}

// handleListRuns returns the most recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", history.DefaultListLimit)

	runs, err := s.ledger.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}

	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs, Limiter: s.limiter.Status()})
}

// handleGetRun returns one run from the ledger.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.ledger.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunReport renders the HTML report of one run.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.ledger.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RunReport(run).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleValidate validates the request body as a dataset without touching
// storage or the staging area.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodySize)

	res, err := s.validator.Validate(r.Body)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	rejected := res.Rejected
	if rejected == nil {
		rejected = []core.RejectedRecord{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		HasHeader: res.HasHeader,
		Stats:     res.Stats,
		Rejected:  rejected,
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
