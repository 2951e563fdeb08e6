package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"RiskSentinel/internal/collector"
	"RiskSentinel/internal/model"
)

// maxHorizonDays bounds the days parameter.
const maxHorizonDays = 1000

type healthResponse struct {
	Status  string                   `json:"status"`
	Sources []collector.SourceStatus `json:"sources"`
}

// GET /healthz
// 200 while at least one source answers, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	statuses := s.prices.Ping(ctx)
	status, code := "down", http.StatusServiceUnavailable
	for _, st := range statuses {
		if st.Reachable {
			status, code = "ok", http.StatusOK
			break
		}
	}
	if code == http.StatusOK {
		for _, st := range statuses {
			if !st.Reachable {
				status = "degraded"
			}
		}
	}
	writeJSON(w, code, healthResponse{Status: status, Sources: statuses})
}

// GET /api/v1/analysis?symbols=BTC,ETH&benchmark=BTC&days=90
// An explicitly empty benchmark disables beta.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := s.cfg.Defaults
	req.Symbols = append([]string(nil), req.Symbols...)

	if v := q.Get("symbols"); v != "" {
		req.Symbols = splitSymbols(v)
	}
	if _, ok := q["benchmark"]; ok {
		req.Benchmark = q.Get("benchmark")
	}
	days, err := parseDays(q.Get("days"), req.HorizonDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.HorizonDays = days

	report, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/v1/prices/{symbol}?days=30
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	days, err := parseDays(r.URL.Query().Get("days"), 30)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.prices.FetchOutcome(r.Context(), symbol, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Data-Source", out.Source)
	w.Header().Set("X-Cache", strconv.FormatBool(out.Cached))
	writeJSON(w, http.StatusOK, out.Series)
}

func parseDays(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxHorizonDays {
		return 0, fmt.Errorf("days must be an integer in [1, %d], got %q: %w", maxHorizonDays, v, model.ErrInvalidConfiguration)
	}
	return n, nil
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// statusFor maps error kinds to HTTP statuses. Unsupported symbols are
// checked before data availability since they match both.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		return http.StatusBadRequest, "INVALID_PARAMETER"
	case errors.Is(err, model.ErrUnsupportedSymbol):
		return http.StatusBadRequest, "UNSUPPORTED_SYMBOL"
	case errors.Is(err, model.ErrInsufficientData), errors.Is(err, model.ErrAlignmentFailure):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusBadGateway, "DATA_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, name := statusFor(err)
	reqID := middleware.GetReqID(r.Context())
	ev := log.Warn()
	if code >= 500 {
		ev = log.Error()
	}
	ev.Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Int("status", code).Msg("request failed")
	writeJSON(w, code, errorResponse{Error: errorDetail{
		Code:      name,
		Message:   err.Error(),
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
	}})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
