package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"gastos/internal/cache"
	"gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/services"
	"gastos/internal/store"
)

const dashboardCacheKey = "dashboard"

type Server struct {
	http.Server
	store        store.Store
	transactions *services.TransactionService
	dashboard    *services.DashboardService
	rateLimiter  *ratelimit.Limiter
	logger       *log.Logger

	// Dashboard snapshots are cheap to cache and invalidated on every write
	dashboardCache *cache.LRUCache[services.Dashboard]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st store.Store, tx *services.TransactionService, dash *services.DashboardService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:          st,
		transactions:   tx,
		dashboard:      dash,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:         logger.WithComponent(log.ComponentHTTP),
		dashboardCache: cache.NewLRUCache[services.Dashboard](10, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /api/account-groups", s.handleListAccountGroups)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/installments/{id}/sub-transactions", s.handleCategorize)

	mux.HandleFunc("GET /api/transaction-types", s.handleListTransactionTypes)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.withMiddleware(mux),
	}
	return s
}

// withMiddleware adds security headers, request logging, and rate
// limiting on mutating methods.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientIP(r)
		requestID := generateRequestID()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if isMutating(r.Method) && !s.rateLimiter.Allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// clientIP extracts the client address, honoring proxy headers. Only
// the first X-Forwarded-For hop counts; anything after it is
// client-controlled and would let a caller rotate rate-limit keys.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) invalidateDashboard() {
	s.dashboardCache.Delete(dashboardCacheKey)
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
