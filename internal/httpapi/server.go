package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
	"github.com/gatehouse-project/gatehouse/internal/metrics"
)

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	Engine  *service.Engine
	Metrics *metrics.Metrics
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	engine     *service.Engine
	metrics    *metrics.Metrics
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:  d.Logger,
		mux:     mux,
		engine:  d.Engine,
		metrics: d.Metrics,
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("POST /v1/visitor", s.handleVisitor)
	mux.HandleFunc("POST /v1/justified", s.handleJustified)
	mux.HandleFunc("GET /v1/inside", s.handleInside)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("POST /v1/evacuation", s.handleEvacuation)
	mux.HandleFunc("POST /v1/shift_close", s.handleShiftClose)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := loggingMiddleware(d.Logger, requestIDMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeEngineError maps engine sentinels to HTTP statuses. Unmatched
// errors are logged and reported as a generic 500.
func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingID):
		writeError(w, http.StatusBadRequest, "missing_id", err.Error())
	case errors.Is(err, service.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, service.ErrMissingInput):
		writeError(w, http.StatusBadRequest, "missing_input", err.Error())
	case errors.Is(err, service.ErrUnknownPerson):
		writeError(w, http.StatusNotFound, "unknown_person", err.Error())
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusServiceUnavailable, "busy", "system busy, retry shortly")
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.engine.Scan(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, "scan", err)
		return
	}

	s.metrics.ScansTotal.WithLabelValues(req.Action, resp.Flow).Inc()
	if resp.Duplicate {
		s.metrics.DuplicateScansTotal.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVisitor(w http.ResponseWriter, r *http.Request) {
	var req types.VisitorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.engine.CompleteVisitor(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, "visitor", err)
		return
	}

	s.metrics.ScansTotal.WithLabelValues(req.Action, resp.Flow).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJustified(w http.ResponseWriter, r *http.Request) {
	var req types.JustifiedRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.engine.CompleteJustified(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, "justified", err)
		return
	}

	s.metrics.ScansTotal.WithLabelValues(service.ActionCheckOut, resp.Flow).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInside(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.SnapshotInside(r.Context())
	if err != nil {
		s.writeEngineError(w, "inside", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeEngineError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvacuation(w http.ResponseWriter, r *http.Request) {
	var req types.EvacuationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.engine.BulkCloseOut(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrBusy) || errors.Is(err, service.ErrMissingID) {
			s.writeEngineError(w, "evacuation", err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}

	s.metrics.EvacuationsTotal.WithLabelValues(resp.Mode).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShiftClose(w http.ResponseWriter, r *http.Request) {
	var req types.ShiftCloseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.engine.CloseShift(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, "shift_close", err)
		return
	}

	s.metrics.ShiftClosesTotal.Inc()
	writeJSON(w, http.StatusOK, resp)
}
