package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobtrack/api/internal/auth"
	"jobtrack/api/internal/authpw"
	"jobtrack/api/internal/board"
	"jobtrack/api/internal/export"
	"jobtrack/api/internal/jobs"
	"jobtrack/api/internal/logging"
	"jobtrack/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	logger     *slog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	logger := slog.Default()
	if service != nil && service.logger != nil {
		logger = service.logger
	}
	return &HTTPServer{service: service, corsOrigin: corsOrigin, logger: logger.With(slog.String("component", "http"))}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/guest" {
		s.handleAuthGuest(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userName":      session.UserName,
			"userId":        session.UserID,
			"isGuest":       session.IsGuest,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/profile" {
		user, err := s.service.Profile(r.Context(), session)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":    user.ID,
			"userName":  user.UserName,
			"email":     user.Email,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"isGuest":   user.IsGuest,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/jobs/search" {
		s.handleSearch(w, r, session)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/board/export" {
		s.handleExport(w, r, session)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && (parts[1] == "board" || parts[1] == "jobs") {
		ctrl, err := s.service.Board(r.Context(), session)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if parts[1] == "board" {
			s.handleBoard(w, r, ctrl, parts[2:])
			return
		}
		s.handleJobs(w, r, ctrl, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		logging.FromContext(r.Context()).Error("session lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

// fail maps err and writes it, logging anything that is not a client error.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.logger.Info("request",
			slog.String(logging.FieldRequestID, requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", writer.status),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validation *jobs.ValidationError
	if errors.As(err, &validation) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", validation.Error(), validation.Fields
	}
	// Rule violations and missing jobs are the caller's problem even when
	// the store is the one that noticed.
	switch {
	case jobs.IsTransitionError(err):
		return http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, board.ErrJobNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	var actionErr *board.ActionError
	if errors.As(err, &actionErr) {
		return http.StatusBadGateway, "PERSISTENCE_FAILED", actionErr.Message, map[string]any{
			"action": actionErr.Action,
			"jobId":  actionErr.JobID,
		}
	}
	var busy *board.BusyError
	if errors.As(err, &busy) {
		return http.StatusConflict, "JOB_BUSY", busy.Error(), map[string]any{
			"jobId":  busy.JobID,
			"holder": busy.Holder,
		}
	}
	switch {
	case errors.Is(err, board.ErrNoSession):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, board.ErrNoPendingDelete), errors.Is(err, board.ErrDeleteNotPending):
		return http.StatusConflict, "DELETE_NOT_PENDING", err.Error(), nil
	case errors.Is(err, authpw.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, authpw.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil
	case errors.Is(err, authpw.ErrUserNameTaken):
		return http.StatusConflict, "USERNAME_EXISTS", "Username already taken", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Format must be csv or pdf", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF export is not available on this server", nil
	case errors.Is(err, export.ErrArchiveDisabled):
		return http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Export archive is not configured", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"email":        session.Email,
		"isGuest":      session.IsGuest,
		"expiresAt":    session.ExpiresAt.Unix(),
	}
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		UserName  string `json:"userName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	session, err := s.service.SignUp(r.Context(), authpw.SignUpRequest{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		UserName:  body.UserName,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(session))
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	session, err := s.service.SignIn(r.Context(), authpw.SignInRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleAuthGuest(w http.ResponseWriter, r *http.Request) {
	account, session, err := s.service.Guest(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payload := sessionPayload(session)
	payload["guest"] = map[string]any{
		"email":    account.Email,
		"password": account.Password,
		"userName": account.User.UserName,
	}
	writeJSON(w, http.StatusCreated, payload)
}
