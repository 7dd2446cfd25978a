package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/extract-cli/internal/extract"
	"github.com/sells-group/extract-cli/internal/model"
	"github.com/sells-group/extract-cli/internal/store"
)

type extractRequest struct {
	Text         string   `json:"text"`
	Context      string   `json:"context"`
	Source       string   `json:"source"`
	PatternTypes []string `json:"pattern_types"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBodyBytes))

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	var cfg *extract.Config
	if len(req.PatternTypes) > 0 {
		types := make([]model.PatternType, 0, len(req.PatternTypes))
		for _, name := range req.PatternTypes {
			pt, ok := model.ParsePatternType(name)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown pattern type: "+name)
				return
			}
			types = append(types, pt)
		}
		cfg = &extract.Config{PatternTypes: types}
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	ctx := r.Context()
	run, err := s.store.CreateRun(ctx, source, req.Context)
	if err != nil {
		zap.L().Error("server: create run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create run")
		return
	}
	if err := s.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		zap.L().Error("server: mark run running", zap.String("run_id", run.ID), zap.Error(err))
	}

	results := s.proc.ProcessText(ctx, req.Text, req.Context, cfg)

	if err := s.store.CompleteRun(ctx, run.ID, results.ToDict(), results.Confidence); err != nil {
		zap.L().Error("server: complete run", zap.String("run_id", run.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist run")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  run.ID,
		"results": results,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Source: q.Get("source"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		zap.L().Error("server: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
