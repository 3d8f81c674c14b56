// Package server provides the HTTP REST API for the fact archiver.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
)

// Store is the slice of storage the API reads and writes.
type Store interface {
	CountEventsByDateRange(ctx context.Context, start, end string) (map[string]int, error)
	ListEventsByDateKeyDesc(ctx context.Context, dateKey string) ([]db.Event, error)
	ListReviewQueue(ctx context.Context, dateKey string, statuses []string) ([]db.ClaimStatus, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*db.Event, error)
	ListSourceItemsByEvent(ctx context.Context, eventID uuid.UUID) ([]db.SourceItem, error)
	ListClaimStatusesByEvent(ctx context.Context, eventID uuid.UUID) ([]db.ClaimStatus, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*db.Claim, error)
	InsertAssessment(ctx context.Context, a *db.Assessment) (*db.Assessment, error)
	ListTransparencyEntries(ctx context.Context) ([]db.TransparencyLogEntry, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	validate    *validator.Validate
	corsOrigins []string
	closeStore  func()
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	CORSOrigins []string
}

// New creates a new server instance connected to Postgres.
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := newServer(database, cfg.CORSOrigins)
	s.closeStore = database.Close
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// newServer wires the handlers around any Store; tests pass a fake.
func newServer(store Store, corsOrigins []string) *Server {
	return &Server{
		store:       store,
		validate:    validator.New(),
		corsOrigins: corsOrigins,
	}
}

// Handler builds the route table wrapped in the middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /verification", s.handleVerification)
	mux.HandleFunc("GET /api/days", s.handleDays)
	mux.HandleFunc("GET /api/days/{date}", s.handleDay)
	mux.HandleFunc("GET /api/events/{id}", s.handleEvent)
	mux.HandleFunc("POST /api/claims/{id}/override", s.handleOverride)
	return s.withLogging(s.withCORS(mux))
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
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

	if s.closeStore != nil {
		s.closeStore()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers for configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.corsOrigins {
			if allowed == origin || allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				break
			}
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

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

// errorResponse maps err to its HTTP status and writes an error JSON body.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		s.jsonResponse(w, status, map[string]string{"error": "internal server error"})
		return
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}
