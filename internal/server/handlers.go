package server

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/cache"
	"github.com/piwi3910/cutplan/internal/engine"
	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

// OptimizeRequest is the body of /api/optimize and /api/compare.
type OptimizeRequest struct {
	Sheets   []model.SheetSpec `json:"sheets"`
	Pieces   []model.PieceSpec `json:"pieces"`
	Settings model.Settings    `json:"settings"`
	// Modes restricts /api/compare; empty means all modes.
	Modes []model.Mode `json:"modes,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   apperrors.Code `json:"code"`
	Detail string         `json:"detail"`
}

// ComparisonEntry summarizes one mode in a /api/compare response.
type ComparisonEntry struct {
	Mode         model.Mode      `json:"optimization_mode"`
	SheetsUsed   int             `json:"sheets_used"`
	TotalCuts    int             `json:"total_cuts"`
	WastePercent decimal.Decimal `json:"waste_percentage"`
	Error        *ErrorResponse  `json:"error,omitempty"`
}

// CompareResponse lists every mode and names the best one.
type CompareResponse struct {
	Results []ComparisonEntry `json:"results"`
	Best    model.Mode        `json:"best,omitempty"`
}

// sizer is implemented by caches that can report their entry count.
type sizer interface {
	Len() int
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if c, ok := s.cache.(sizer); ok {
		body["cache_entries"] = c.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	key, err := cache.Key("plan", req.Sheets, req.Pieces, req.Settings)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "build cache key"))
		return
	}
	if data, hit, err := s.cache.Get(r.Context(), key); err != nil {
		s.logger.Warn("cache get failed", "err", err)
	} else if hit {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	plan, err := engine.New(req.Settings).WithLogger(s.logger).Plan(req.Sheets, req.Pieces)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := json.Marshal(plan)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode plan"))
		return
	}
	if err := s.cache.Set(r.Context(), key, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results, err := engine.CompareModes(req.Settings, req.Modes, req.Sheets, req.Pieces, s.logger)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := CompareResponse{Results: make([]ComparisonEntry, 0, len(results))}
	for _, res := range results {
		entry := ComparisonEntry{
			Mode:         res.Mode,
			SheetsUsed:   res.SheetsUsed,
			TotalCuts:    res.TotalCuts,
			WastePercent: res.WastePercent,
		}
		if res.Failed() {
			entry.Error = &ErrorResponse{Code: codeOf(res.Err), Detail: apperrors.UserMessage(res.Err)}
		}
		resp.Results = append(resp.Results, entry)
	}
	if best, ok := engine.Best(results); ok {
		resp.Best = best.Mode
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads and normalizes a request. Settings default to the server
// defaults; grain strings are normalized.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (OptimizeRequest, error) {
	req := OptimizeRequest{Settings: s.defaults}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return req, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "malformed request body")
	}
	for i := range req.Pieces {
		req.Pieces[i].Grain = model.ParseGrain(string(req.Pieces[i].Grain))
	}
	if req.Settings.Units == "" {
		req.Settings.Units = model.UnitsImperial
	}
	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if apperrors.IsClientError(err) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: codeOf(err), Detail: apperrors.UserMessage(err)})
}

func codeOf(err error) apperrors.Code {
	if code := apperrors.GetCode(err); code != "" {
		return code
	}
	return apperrors.ErrCodeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
