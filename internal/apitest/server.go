// Package apitest runs an in-process stub of the marketplace backend for
// package tests: the routes the client talks to, bearer-token auth, a real
// rate limiter producing 429s with Retry-After, and failure injection.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/golang-jwt/jwt/v5"
)

// JWTSecret signs the stub's bearer tokens.
const JWTSecret = "apitest-secret"

// Failure describes an injected failure for a route.
type Failure struct {
	Status     int
	Body       string
	RetryAfter string
	// Times limits how many requests fail; 0 means every request.
	Times int
}

// Server is the stub backend. Zero-value fields are seeded with small
// fixtures; tests override them through the Seed methods.
type Server struct {
	*httptest.Server

	// RateLimit and RateWindow configure the httprate limiter. Defaults are
	// high enough to stay invisible; set RateLimit low to exercise 429s.
	RateLimit  int
	RateWindow time.Duration
	// Latency delays every handled request, used to hold requests in flight.
	Latency time.Duration

	mu          sync.Mutex
	requests    map[string]int
	failures    map[string]*Failure
	suggestions []map[string]any
	profile     map[string]any
	messages    map[string][]map[string]any
	updates     map[string][]map[string]any
	updateState map[string]string
}

// Option configures the stub before it starts.
type Option func(*Server)

// WithRateLimit tightens the httprate limiter so tests can trigger real 429s.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.RateLimit = limit
		s.RateWindow = window
	}
}

// New starts a stub server. Close it with Server.Close.
func New(opts ...Option) *Server {
	s := &Server{
		RateLimit:   1000,
		RateWindow:  time.Minute,
		requests:    make(map[string]int),
		failures:    make(map[string]*Failure),
		messages:    make(map[string][]map[string]any),
		updates:     make(map[string][]map[string]any),
		updateState: make(map[string]string),
		suggestions: []map[string]any{
			{"id": "sg-1", "company_name": "Verrerie Lyon", "status": "new", "match_score": 0.82, "reasons": []any{"matière compatible"}},
			{"id": "sg-2", "companyName": "Compost Massif", "status": "saved", "score": 64},
		},
		profile: map[string]any{
			"id": "co-1", "name": "Atelier Circulaire", "sector": "textile",
			"email": "contact@atelier.fr", "avatar_url": "/media/co-1.png",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// SetLatency delays every subsequent request, used to hold requests in flight.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Latency = d
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		// Cookie-authenticated; a bearer header here is a client bug.
		if r.Header.Get("Authorization") != "" {
			writeError(w, http.StatusBadRequest, "unexpected bearer token on logout")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Use(httprate.Limit(
			s.RateLimit,
			s.RateWindow,
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded","retry_after":60}`))
			}),
		))

		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/", s.listSuggestions)
			r.Get("/stats", s.suggestionStats)
			r.Post("/{id}/ignore", s.suggestionAction("ignored"))
			r.Post("/{id}/save", s.suggestionAction("saved"))
			r.Post("/{id}/contact", s.suggestionAction("contacted"))
		})

		r.Route("/assistant/conversations", func(r chi.Router) {
			r.Get("/", s.listConversations)
			r.Post("/", s.createConversation)
			r.Get("/{id}/messages", s.listMessages)
			r.Post("/{id}/messages", s.sendMessage)
			r.Get("/{id}/messages/updates", s.messageUpdates)
		})

		r.Route("/companies/profile", func(r chi.Router) {
			r.Get("/", s.getProfile)
			r.Put("/", s.updateProfile)
			r.Get("/completion", s.profileCompletion)
			r.Post("/avatar", s.uploadAvatar)
			r.Delete("/avatar", s.deleteAvatar)
		})

		r.Get("/admin/companies", s.adminCompanies)
		r.Get("/admin/metrics", s.adminMetrics)
		r.Get("/dashboard/stats", s.adminMetrics)

		r.Route("/import", func(r chi.Router) {
			r.Post("/", s.uploadImport)
			r.Get("/template", s.importTemplate)
			r.Get("/history", s.importHistory)
			r.Get("/summary", s.importSummary)
			r.Get("/{fileID}/analyze", s.analyzeImport)
			r.Post("/{fileID}/sync", s.syncImport)
		})
	})

	return r
}

// Token signs a bearer token for sub, valid for an hour.
func (s *Server) Token(sub string) string {
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return token
}

// ExpiredToken signs a token whose exp is already in the past.
func (s *Server) ExpiredToken(sub string) string {
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	return token
}

// Count returns how many requests hit "METHOD /path".
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Fail injects a failure for "METHOD /path".
func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &f
}

// SeedSuggestions replaces the suggestion fixtures.
func (s *Server) SeedSuggestions(items []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = items
}

// SeedUpdates queues messages to deliver on the next updates poll for a
// conversation.
func (s *Server) SeedUpdates(conversationID string, msgs []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[conversationID] = msgs
}

// SeedUpdateStatus sets the status the updates endpoint reports while no
// messages are queued.
func (s *Server) SeedUpdateStatus(conversationID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateState[conversationID] = status
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		latency := s.Latency
		s.mu.Unlock()
		if latency > 0 {
			time.Sleep(latency)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f := s.failures[route]
		if f != nil && f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				delete(s.failures, route)
			}
		}
		s.mu.Unlock()

		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if f.RetryAfter != "" {
			w.Header().Set("Retry-After", f.RetryAfter)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.Status)
		body := f.Body
		if body == "" {
			body = `{"error":"injected failure"}`
		}
		w.Write([]byte(body))
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if len(header) < 8 || header[:7] != "Bearer " {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(header[7:], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
