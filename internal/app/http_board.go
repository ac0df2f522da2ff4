package app

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"jobtrack/api/internal/board"
	"jobtrack/api/internal/export"
	"jobtrack/api/internal/jobs"
	"jobtrack/api/internal/search"
)

// handleBoard serves /api/board/...
func (s *HTTPServer) handleBoard(w http.ResponseWriter, r *http.Request, ctrl *board.Controller, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, ctrl.Snapshot())

	case len(parts) == 1 && parts[0] == "refresh" && r.Method == http.MethodPost:
		if err := ctrl.Load(r.Context()); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())

	case len(parts) == 1 && parts[0] == "delete-request" && r.Method == http.MethodPost:
		var body struct {
			JobID string `json:"jobId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if strings.TrimSpace(body.JobID) == "" {
			s.fail(w, r, &jobs.ValidationError{Fields: map[string]string{"jobId": "jobId is required"}})
			return
		}
		job, err := ctrl.RequestDelete(strings.TrimSpace(body.JobID))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pendingDelete": job, "board": ctrl.Snapshot()})

	case len(parts) == 1 && parts[0] == "delete-request" && r.Method == http.MethodDelete:
		ctrl.CancelDelete()
		writeJSON(w, http.StatusOK, ctrl.Snapshot())

	case len(parts) == 2 && parts[0] == "delete-request" && parts[1] == "confirm" && r.Method == http.MethodPost:
		var body struct {
			JobID string `json:"jobId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := ctrl.ConfirmDelete(r.Context(), strings.TrimSpace(body.JobID)); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())

	case len(parts) == 1 && parts[0] == "seed" && r.Method == http.MethodPost:
		result, err := ctrl.Seed(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		payload := map[string]any{
			"seeded":   result.Seeded,
			"inserted": result.Inserted,
			"existing": result.Existing,
			"board":    ctrl.Snapshot(),
		}
		if !result.Seeded {
			payload["reason"] = board.NoticeAlreadyHasJobs
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && parts[0] == "error" && r.Method == http.MethodDelete:
		ctrl.DismissError()
		writeJSON(w, http.StatusOK, ctrl.Snapshot())

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// handleJobs serves /api/jobs and /api/jobs/{id}/...
func (s *HTTPServer) handleJobs(w http.ResponseWriter, r *http.Request, ctrl *board.Controller, parts []string) {
	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"jobs": ctrl.Jobs()})
		case http.MethodPost:
			var input jobs.NewJob
			if err := decodeBody(r, &input); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			job, err := ctrl.Add(r.Context(), input)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"job": job, "board": ctrl.Snapshot()})
		case http.MethodDelete:
			if r.URL.Query().Get("confirm") != "true" {
				s.fail(w, r, domainError(http.StatusBadRequest, "CONFIRMATION_REQUIRED", "Deleting every application requires confirm=true", nil))
				return
			}
			if err := ctrl.DeleteAll(r.Context()); err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, ctrl.Snapshot())
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	jobID := parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		job, ok := ctrl.Snapshot().Job(jobID)
		if !ok {
			s.fail(w, r, board.ErrJobNotFound)
			return
		}
		writeJSON(w, http.StatusOK, job)

	case len(parts) == 1 && r.Method == http.MethodPatch:
		var patch jobs.Patch
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		job, err := ctrl.Edit(r.Context(), jobID, patch)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job": job, "board": ctrl.Snapshot()})

	case len(parts) == 2 && parts[1] == "move" && r.Method == http.MethodPost:
		var body struct {
			Stage string `json:"stage"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		to := jobs.Stage(strings.ToLower(strings.TrimSpace(body.Stage)))
		job, err := ctrl.Move(r.Context(), jobID, to)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job": job, "board": ctrl.Snapshot()})

	case len(parts) == 2 && parts[1] == "restore" && r.Method == http.MethodPost:
		job, err := ctrl.Restore(r.Context(), jobID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job": job, "board": ctrl.Snapshot()})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, session Session) {
	query := r.URL.Query()
	q := search.Query{
		Text:  strings.TrimSpace(query.Get("q")),
		Limit: 20,
	}
	if stage := strings.TrimSpace(query.Get("stage")); stage != "" {
		if !jobs.IsValidStage(stage) {
			s.fail(w, r, domainError(http.StatusBadRequest, "INVALID_STAGE", fmt.Sprintf("unknown stage %q", stage), map[string]any{"stages": jobs.Stages()}))
			return
		}
		q.Stage = jobs.Stage(stage)
	}
	if raw := query.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Limit = n
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Offset = n
		}
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), session, q))
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, session Session) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	archive := r.URL.Query().Get("archive") == "1" || r.URL.Query().Get("archive") == "true"

	out, err := s.service.Export(r.Context(), session, format, archive)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if archive {
		writeJSON(w, http.StatusOK, map[string]any{
			"url":      out.URL,
			"filename": out.Result.Filename,
			"format":   format,
		})
		return
	}

	w.Header().Set("Content-Type", out.Result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Result.Data)
}
