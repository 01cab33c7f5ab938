// Package server provides the HTTP REST API for storing templates, checking
// and filling documents against them, and rendering the results.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-template/internal/config"
	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/fetch"
	"github.com/jonathan/resume-template/internal/llm"
	"github.com/jonathan/resume-template/internal/rendering"
	"github.com/jonathan/resume-template/internal/server/middleware"
	"github.com/jonathan/resume-template/internal/server/ratelimit"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string

	ModelTier        llm.ModelTier
	Concurrency      int
	UseBrowser       bool
	AllowUnknownKeys bool
	LatexTemplate    string
	RenderFormat     string

	JWT       *config.JWTConfig
	Password  *config.PasswordConfig
	RateLimit *ratelimit.Config
	Logger    zerolog.Logger
}

// ConfigFrom builds a server Config from loaded settings.
func ConfigFrom(cfg *config.Config, logger zerolog.Logger) (Config, error) {
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return Config{}, fmt.Errorf("failed to create JWT config: %w", err)
	}
	passwordConfig, err := cfg.Password()
	if err != nil {
		return Config{}, fmt.Errorf("failed to create password config: %w", err)
	}
	tier, err := llm.ParseTier(cfg.ModelTier)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Port:             cfg.Port,
		DatabaseURL:      cfg.DatabaseURL,
		APIKey:           cfg.APIKey,
		ModelTier:        tier,
		Concurrency:      cfg.Concurrency,
		UseBrowser:       cfg.UseBrowser,
		AllowUnknownKeys: cfg.AllowUnknownKeys,
		LatexTemplate:    cfg.LatexTemplate,
		RenderFormat:     cfg.RenderFormat,
		JWT:              jwtConfig,
		Password:         passwordConfig,
		RateLimit:        ratelimit.LoadConfig(),
		Logger:           logger,
	}, nil
}

// Deps are the collaborators NewWithDeps wires together. LLM may be nil,
// in which case fill requests are refused.
type Deps struct {
	Store Store
	LLM   llm.Client
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	llm         llm.Client
	logger      zerolog.Logger
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	filler      *llm.Filler
	fetcher     *fetch.CachedFetcher

	checkOptions conformance.Options
	latex        *rendering.LaTeXOptions
	renderFormat string
}

// New connects to the database, applies the schema and creates the Gemini
// client when an API key is configured.
func New(ctx context.Context, cfg Config) (*Server, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	var client llm.Client
	if cfg.APIKey != "" {
		client, err = llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	} else {
		cfg.Logger.Warn().Msg("no API key configured; template filling is disabled")
	}

	s, err := NewWithDeps(cfg, Deps{Store: database, LLM: client})
	if err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDeps builds a server around an existing store and LLM client.
func NewWithDeps(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server requires a store")
	}
	if cfg.JWT == nil {
		return nil, errors.New("server requires a JWT config")
	}
	if cfg.Password == nil {
		return nil, errors.New("server requires a password config")
	}
	if cfg.RenderFormat == "" {
		cfg.RenderFormat = "latex"
	}

	s := &Server{
		store:        deps.Store,
		llm:          deps.LLM,
		logger:       cfg.Logger,
		rateLimiter:  ratelimit.NewLimiter(cfg.RateLimit),
		jwtService:   NewJWTService(cfg.JWT),
		checkOptions: conformance.Options{AllowUnknownKeys: cfg.AllowUnknownKeys},
		renderFormat: cfg.RenderFormat,
	}
	if cfg.LatexTemplate != "" {
		s.latex = &rendering.LaTeXOptions{TemplatePath: cfg.LatexTemplate}
	}

	s.authHandler = NewAuthHandler(NewUserService(deps.Store, cfg.Password), s.jwtService, cfg.Logger)

	sourceOpts := fetch.DefaultSourceOptions()
	sourceOpts.UseBrowser = cfg.UseBrowser
	sourceOpts.Logger = cfg.Logger
	s.fetcher = fetch.NewCachedFetcher(deps.Store, &fetch.CachedFetcherConfig{Options: sourceOpts})

	if deps.LLM != nil {
		s.filler = llm.NewFiller(deps.LLM, cfg.Logger)
		if cfg.ModelTier != "" {
			s.filler.Tier = cfg.ModelTier
		}
		if cfg.Concurrency > 0 {
			s.filler.Concurrency = cfg.Concurrency
		}
		s.filler.Options = s.checkOptions
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // fills and PDF prints are slow
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("PUT /auth/password", protected(s.authHandler.UpdatePassword))

	// Linting needs no stored state, so it is public.
	mux.HandleFunc("POST /templates/lint", s.handleLintTemplate)

	mux.Handle("POST /templates", protected(s.handleCreateTemplate))
	mux.Handle("GET /templates", protected(s.handleListTemplates))
	mux.Handle("GET /templates/{id}", protected(s.handleGetTemplate))
	mux.Handle("PUT /templates/{id}", protected(s.handleUpdateTemplate))
	mux.Handle("DELETE /templates/{id}", protected(s.handleDeleteTemplate))
	mux.Handle("GET /templates/{id}/jsonschema", protected(s.handleTemplateJSONSchema))
	mux.Handle("POST /templates/{id}/check", protected(s.handleCheckDocument))
	mux.Handle("POST /templates/{id}/fill", protected(s.handleFillTemplate))

	mux.Handle("POST /templates/{id}/documents", protected(s.handleCreateDocument))
	mux.Handle("GET /templates/{id}/documents", protected(s.handleListDocuments))
	mux.Handle("GET /documents/{id}", protected(s.handleGetDocument))
	mux.Handle("DELETE /documents/{id}", protected(s.handleDeleteDocument))
	mux.Handle("GET /documents/{id}/render", protected(s.handleRenderDocument))

	return mux
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	s.logger.Info().Msg("server stopped")
	return nil
}

// Close releases the rate limiter, LLM client and store.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llm != nil {
		if err := s.llm.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close LLM client")
		}
	}
	s.store.Close()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		ev := s.logger.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = s.logger.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "fill_enabled": s.filler != nil})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps err to a response. Conformance issues are returned in full;
// server errors are logged and hidden from the client.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	switch {
	case status == http.StatusUnprocessableEntity:
		iss, _ := conformance.AsIssues(err)
		writeJSON(w, status, map[string]any{
			"error":  "document does not conform to template",
			"issues": iss,
		})
	case status >= http.StatusInternalServerError:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, status, "internal error")
	default:
		writeError(w, status, err.Error())
	}
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds())
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.logger.Warn().
		Int("limit", info.Limit).
		Time("reset", info.ResetTime).
		Msg("rate limit exceeded")

	writeJSON(w, http.StatusTooManyRequests, response)
}
