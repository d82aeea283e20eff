// Package server provides the HTTP REST API for README generation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/repo-expounder/internal/config"
	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/pipeline"
	"github.com/jonathan/repo-expounder/internal/server/middleware"
	"github.com/jonathan/repo-expounder/internal/server/ratelimit"
	"github.com/jonathan/repo-expounder/internal/storage"
	"github.com/jonathan/repo-expounder/internal/types"
)

// Generator runs the generation pipeline with one request's GitHub
// credential.
type Generator interface {
	Generate(ctx context.Context, githubToken string, opts pipeline.RunOptions) (*pipeline.Result, error)
}

// DocumentStore is the slice of the storage layer the document handlers use.
type DocumentStore interface {
	Download(ctx context.Context, key types.DocumentKey) (string, error)
	Delete(ctx context.Context, key types.DocumentKey) error
	List(ctx context.Context, userID string) ([]types.DocumentEntry, error)
}

// RepoBrowser lists repositories and trees visible to a GitHub token.
type RepoBrowser interface {
	ListRepos(ctx context.Context, token string) ([]github.Repo, error)
	Tree(ctx context.Context, token, owner, repo, ref string) ([]*github.Node, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	validator   *validator.Validate

	generator Generator
	store     DocumentStore // nil when persistence is unconfigured
	browser   RepoBrowser
}

// Config holds server configuration
type Config struct {
	Port int
	App  *config.Config
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		jwtService: NewJWTService(jwtConfig),
		validator:  validator.New(),
		browser:    &githubBrowser{},
	}

	var store *storage.Store
	if cfg.App.StorageConfigured() {
		store = storage.New(cfg.App.DropboxAppKey, cfg.App.DropboxAppSecret, cfg.App.DropboxRefreshToken)
		s.store = store
	} else {
		log.Println("Dropbox credentials not configured; document persistence disabled")
	}
	s.generator = newPipelineGenerator(cfg.App, store)

	// Initialize rate limiter
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for generation runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the API router.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.withAuth(s.handleGenerate))
	mux.HandleFunc("GET /documents", s.withAuth(s.handleListDocuments))
	mux.HandleFunc("GET /documents/{owner}/{repo}/{timestamp}", s.withAuth(s.handleGetDocument))
	mux.HandleFunc("DELETE /documents/{owner}/{repo}/{timestamp}", s.withAuth(s.handleDeleteDocument))
	mux.HandleFunc("GET /repos", s.withAuth(s.handleListRepos))
	mux.HandleFunc("GET /repos/{owner}/{repo}/tree", s.withAuth(s.handleRepoTree))
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("Server stopped")
	return nil
}

// withAuth requires a valid bearer token and places the user ID in the
// request context.
func (s *Server) withAuth(h http.HandlerFunc) http.HandlerFunc {
	wrapped := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
	return wrapped.ServeHTTP
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-GitHub-Token")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
