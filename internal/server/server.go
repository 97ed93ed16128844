// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/session"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where "folio serve" listens.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize bounds the chat request body.
	MaxRequestBodySize = 64 * 1024

	// RequestTimeout bounds one request including the completion call.
	RequestTimeout = 60 * time.Second

	// maintenanceInterval is how often idle sessions and buckets are swept.
	maintenanceInterval = time.Hour
)

// Routes served by the backend.
const (
	ChatPath   = "/api/v1/chat"
	HealthPath = "/api/v1/chat/health"
	StatsPath  = "/api/v1/chat/stats"
)

// SupportedLanguages are the language hints the backend understands.
var SupportedLanguages = []string{assistant.LanguageEnglish, assistant.LanguageUrdu}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string

	// ImageDir is served under the gallery image path when set.
	ImageDir string

	RatePerMinute int
	MaxTurns      int
	Version       string

	// Answerer produces replies. Nil uses CannedAnswerer.
	Answerer Answerer
}

// Server is the development chat backend.
type Server struct {
	opts     Options
	router   *chi.Mux
	http     *http.Server
	memory   *Memory
	limiter  *RateLimiter
	answerer Answerer
	started  time.Time

	requests  atomic.Int64
	rejected  atomic.Int64
	limited   atomic.Int64
	fallbacks atomic.Int64
}

// New creates a server for opts and builds its routes.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Answerer == nil {
		opts.Answerer = CannedAnswerer{}
	}

	s := &Server{
		opts:     opts,
		router:   chi.NewRouter(),
		memory:   NewMemory(opts.MaxTurns),
		limiter:  NewRateLimiter(opts.RatePerMinute),
		answerer: opts.Answerer,
		started:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler { return s.router }

// Memory returns the session memory.
func (s *Server) Memory() *Memory { return s.memory }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.opts.Addr }

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(SecurityHeaders)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(CORS(s.opts.AllowedOrigins))
	}

	r.Post(ChatPath, s.handleChat)
	r.Get(HealthPath, s.handleHealth)
	r.Get(StatsPath, s.handleStats)

	if s.opts.ImageDir != "" {
		files := http.StripPrefix(model.ImagePathPrefix, http.FileServer(http.Dir(s.opts.ImageDir)))
		r.Handle(model.ImagePathPrefix+"*", files)
	}
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.requests.Add(1)

	var req assistant.Request
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, http.StatusUnprocessableEntity, "Invalid request body.")
		return
	}

	query := strings.TrimSpace(req.Query)
	switch {
	case query == "":
		s.reject(w, http.StatusUnprocessableEntity, "Query cannot be empty.")
		return
	case utf8.RuneCountInString(query) > MaxQueryLength:
		s.reject(w, http.StatusUnprocessableEntity, ReasonTooLong)
		return
	case !session.Valid(req.SessionID):
		s.reject(w, http.StatusUnprocessableEntity, "Invalid session identifier.")
		return
	}
	language := req.Language
	if language != assistant.LanguageUrdu {
		language = assistant.LanguageEnglish
	}

	if !s.limiter.Allow(req.SessionID) {
		s.limited.Add(1)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(s.limiter.RetryAfter().Seconds())+1))
		log.Printf("RATE_LIMITED | session=%s", req.SessionID)
		s.writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
		return
	}

	if res := Check(query); !res.Safe {
		log.Printf("QUERY_REFUSED | session=%s reason=%q", req.SessionID, res.Reason)
		s.reject(w, http.StatusBadRequest, res.Reason)
		return
	}

	s.memory.Update(req.SessionID, req.ConversationHistory)

	answer, err := s.answerer.Answer(r.Context(), query, language, s.memory.Turns(req.SessionID))
	if err != nil {
		log.Printf("ANSWER_FAILED | session=%s answerer=%s err=%v", req.SessionID, s.answerer.Name(), err)
		s.fallbacks.Add(1)
		answer, _ = CannedAnswerer{}.Answer(r.Context(), query, language, nil)
	}
	s.memory.Add(req.SessionID, query, answer.Text)

	confidence := answer.Confidence
	reply := assistant.Reply{
		Answer:            answer.Text,
		Sources:           answer.Sources,
		QueryType:         answer.QueryType,
		Confidence:        &confidence,
		ProcessingTime:    float64(time.Since(start).Microseconds()) / 1000,
		SessionID:         req.SessionID,
		Images:            answer.Images,
		ShowImagesAfterMs: answer.ShowImagesAfterMs,
	}
	log.Printf("CHAT_ANSWERED | session=%s request=%s type=%s ms=%.1f",
		req.SessionID, RequestIDFrom(r.Context()), reply.QueryType, reply.ProcessingTime)
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) reject(w http.ResponseWriter, status int, reason string) {
	s.rejected.Add(1)
	s.writeError(w, status, reason)
}

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// HealthResponse is the body of the health route.
type HealthResponse struct {
	Status         string            `json:"status"`
	Version        string            `json:"version,omitempty"`
	Timestamp      string            `json:"timestamp"`
	Services       map[string]string `json:"services"`
	LLMConfigured  bool              `json:"groq_configured"`
	ActiveSessions int               `json:"active_sessions"`
	Features       []string          `json:"features"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, canned := s.answerer.(CannedAnswerer)
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   s.opts.Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Services: map[string]string{
			"safety_checker":      "active",
			"conversation_memory": "active",
			"answerer":            s.answerer.Name(),
		},
		LLMConfigured:  !canned,
		ActiveSessions: s.memory.Active(),
		Features:       []string{"image_support", "conversation_memory", "rate_limiting"},
	})
}

// StatsResponse is the body of the stats route.
type StatsResponse struct {
	Memory             MemoryStats      `json:"memory_stats"`
	SupportedLanguages []string         `json:"supported_languages"`
	MaxQueryLength     int              `json:"max_query_length"`
	Requests           map[string]int64 `json:"requests"`
	UptimeSeconds      int64            `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Memory:             s.memory.Stats(),
		SupportedLanguages: SupportedLanguages,
		MaxQueryLength:     MaxQueryLength,
		Requests: map[string]int64{
			"total":     s.requests.Load(),
			"rejected":  s.rejected.Load(),
			"limited":   s.limited.Load(),
			"fallbacks": s.fallbacks.Load(),
		},
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.maintain(ctx)

	errc := make(chan error, 1)
	go func() {
		log.Printf("SERVER_START | addr=%s answerer=%s", s.opts.Addr, s.answerer.Name())
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("SERVER_SHUTDOWN | addr=%s", s.opts.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.memory.Sweep(SessionIdle)
			s.limiter.Forget(SessionIdle)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_WRITE_FAILED | err=%v", err)
	}
}

// writeError writes the {"detail": ...} body clients show to users.
func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
