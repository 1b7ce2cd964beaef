package server

import (
	"context"
	"net/http"
	"time"

	"curachain/core/auth"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxIdentity
)

const requestIDHeader = "X-Request-ID"

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxRequestID).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID(r),
		)
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panic", "panic", v, "path", r.URL.Path, "request_id", requestID(r))
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: codeInternal, Message: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireIdentity verifies the bearer token and stores its subject.
func (s *Server) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		res := s.authorizer.Authorize(token, r.Method+" "+r.URL.Path)
		if !res.Authorized {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: codeUnauthenticated, Kind: "authorization", Message: res.Reason})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxIdentity, res.Identity)))
	}
}

func identity(r *http.Request) string {
	id, _ := r.Context().Value(ctxIdentity).(string)
	return id
}
