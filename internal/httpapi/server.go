package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

const (
	maxBatch = 10000

	// Request body caps. A batch allows maxBatch records of generous size.
	maxEvaluateBody int64 = 1 << 20
	maxBatchBody    int64 = 16 << 20
)

// #region server
// Server is the HTTP surface over one gate. The store is optional: without
// it decisions are not logged and the run endpoints return 404.
type Server struct {
	gate   *gate.Gate
	store  *store.Store
	logger *bolt.Logger
	router *chi.Mux

	maxEvaluateBody int64
	maxBatchBody    int64
}

// NewServer wires routes and middleware.
func NewServer(g *gate.Gate, st *store.Store, logger *bolt.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		gate:            g,
		store:           st,
		logger:          logger,
		router:          chi.NewRouter(),
		maxEvaluateBody: maxEvaluateBody,
		maxBatchBody:    maxBatchBody,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLog)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/evaluate/batch", s.handleEvaluateBatch)
		r.Get("/thresholds", s.handleThresholds)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// #endregion server

// #region handlers
type evaluateRequest struct {
	R string `json:"r"`
	C string `json:"c"`
	P string `json:"p"`
}

type batchRequest struct {
	Records []evaluateRequest `json:"records"`
}

type batchResponse struct {
	Results []logging.EvaluationRecord `json:"results"`
}

type thresholdsResponse struct {
	Low  float64 `json:"tau_low"`
	High float64 `json:"tau_high"`
}

type runResponse struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	TauLow      float64         `json:"tau_low"`
	TauHigh     float64         `json:"tau_high"`
	RecordCount int             `json:"record_count"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	cfg := s.gate.Config()
	writeJSON(w, http.StatusOK, thresholdsResponse{Low: cfg.Low, High: cfg.High})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decode(w, r, s.maxEvaluateBody, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.evaluate(req))
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, s.maxBatchBody, &req) {
		return
	}
	if len(req.Records) > maxBatch {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "at most " + strconv.Itoa(maxBatch) + " records per batch"})
		return
	}
	resp := batchResponse{Results: make([]logging.EvaluationRecord, len(req.Records))}
	for i, rec := range req.Records {
		resp.Results[i] = s.evaluate(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) evaluate(req evaluateRequest) logging.EvaluationRecord {
	ev := pipeline.Evaluate(canon.Record{R: req.R, C: req.C, P: req.P}, s.gate)
	out := logging.NewEvaluationRecord("", ev, s.gate.Config())
	if s.store != nil {
		if err := logging.LogEvaluation(s.store.DB(), "", "http", out); err != nil {
			s.logger.Error().Err(err).Msg("provenance write failed")
		}
	}
	return out
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no store configured"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list runs")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "list runs failed"})
		return
	}
	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no store configured"})
		return
	}
	run, err := s.store.GetRun(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "run not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("get run")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "get run failed"})
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// #endregion handlers

// #region helpers
// decode reads at most limit bytes of JSON into v and writes the error
// response itself when that fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body exceeds " + strconv.FormatInt(limit, 10) + " bytes"})
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
	return false
}

func toRunResponse(run store.RunRecord) runResponse {
	out := runResponse{
		RunID:       run.RunID,
		Source:      run.Source,
		TauLow:      run.Thresholds.Low,
		TauHigh:     run.Thresholds.High,
		RecordCount: run.RecordCount,
		CreatedAt:   run.CreatedAt,
	}
	if run.SummaryJSON != "" && json.Valid([]byte(run.SummaryJSON)) {
		out.Summary = json.RawMessage(run.SummaryJSON)
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// #endregion helpers
