package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"curachain/core/auth"
	"curachain/core/crowdfund"
	"curachain/core/validation"
)

const maxBodyBytes = 1 << 20

// Options configure a Server.
type Options struct {
	ListenAddr  string
	DataDir     string // used for the disk-free metric
	EnableHTTPS bool
	TLSCertPath string
	TLSKeyPath  string
	Logger      *slog.Logger
}

type Server struct {
	engine     *crowdfund.Engine
	authorizer *auth.Authorizer
	validator  *validation.Validator
	logger     *slog.Logger
	opts       Options
	startedAt  time.Time
	httpServer *http.Server
}

func NewServer(engine *crowdfund.Engine, authorizer *auth.Authorizer, validator *validation.Validator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:     engine,
		authorizer: authorizer,
		validator:  validator,
		logger:     logger.With("module", "api"),
		opts:       opts,
		startedAt:  time.Now(),
	}
}

// Handler returns the full route table wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// health and status
	mux.HandleFunc("GET /nodehealth", s.HandleNodeHealth)
	mux.HandleFunc("GET /health/liveness", s.HandleLiveness)
	mux.HandleFunc("GET /health/readiness", s.HandleReadiness)
	mux.HandleFunc("GET /status", s.HandleStatus)

	// cases
	mux.HandleFunc("POST /api/v1/cases", s.requireIdentity(s.handleSubmitCase))
	mux.HandleFunc("GET /api/v1/cases", s.handleListCases)
	mux.HandleFunc("GET /api/v1/cases/{caseId}", s.handleGetCase)
	mux.HandleFunc("GET /api/v1/cases/{caseId}/verification", s.handleVerification)
	mux.HandleFunc("GET /api/v1/cases/{caseId}/funding", s.handleFunding)
	mux.HandleFunc("POST /api/v1/cases/{caseId}/votes", s.requireIdentity(s.handleCastVote))
	mux.HandleFunc("POST /api/v1/cases/{caseId}/donations", s.requireIdentity(s.handleDonate))
	mux.HandleFunc("POST /api/v1/cases/{caseId}/release", s.requireIdentity(s.handleRelease))
	mux.HandleFunc("POST /api/v1/cases/{caseId}/close", s.requireIdentity(s.handleCloseCase))
	mux.HandleFunc("GET /api/v1/patients/{identity}/cases", s.handlePatientCases)

	// registry and accounts
	mux.HandleFunc("POST /api/v1/verifiers", s.requireIdentity(s.handleVerifierOp))
	mux.HandleFunc("GET /api/v1/verifiers", s.handleListVerifiers)
	mux.HandleFunc("GET /api/v1/verifiers/{identity}", s.handleGetVerifier)
	mux.HandleFunc("GET /api/v1/donors", s.handleListDonors)
	mux.HandleFunc("GET /api/v1/donors/{identity}", s.handleGetDonor)
	mux.HandleFunc("GET /api/v1/facilities/{identity}", s.handleGetFacility)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)

	// ledger
	mux.HandleFunc("GET /api/v1/ledger/head", s.handleLedgerHead)
	mux.HandleFunc("GET /api/v1/ledger/entries", s.handleLedgerEntries)

	return s.withRequestID(s.withRecovery(s.withAccessLog(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.opts.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.opts.ListenAddr, "https", s.opts.EnableHTTPS)
		var err error
		if s.opts.EnableHTTPS {
			err = s.httpServer.ListenAndServeTLS(s.opts.TLSCertPath, s.opts.TLSKeyPath)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("api shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
