package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/logger"
	"github.com/nahidhasan98/autocommit/internal/models"
)

// clientIdleTTL is how long an idle client's limiter is kept
const clientIdleTTL = 10 * time.Minute

// publicPaths skip API key authentication
var publicPaths = map[string]bool{
	"/health":         true,
	"/webhook/gitea":  true,
	"/webhook/github": true,
}

// Middleware represents the middleware dependencies
type Middleware struct {
	log            *logger.Logger
	rateLimiter    *RateLimiter
	apiKeys        map[string]bool // Valid API keys
	allowedOrigins map[string]bool
}

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	clients map[string]*client
	mutex   sync.Mutex

	limit rate.Limit
	burst int
	now   func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// New creates a new middleware instance
func New(log *logger.Logger, limiter *RateLimiter) *Middleware {
	return &Middleware{
		log:            log.Component("http"),
		rateLimiter:    limiter,
		apiKeys:        make(map[string]bool),
		allowedOrigins: make(map[string]bool),
	}
}

// SetAPIKeys sets the valid API keys for authentication
func (m *Middleware) SetAPIKeys(keys []string) {
	m.apiKeys = make(map[string]bool)
	for _, key := range keys {
		m.apiKeys[key] = true
	}
}

// SetAllowedOrigins restricts CORS to origins. "*" or an empty list allows any origin.
func (m *Middleware) SetAllowedOrigins(origins []string) {
	m.allowedOrigins = make(map[string]bool)
	for _, o := range origins {
		m.allowedOrigins[o] = true
	}
}

// Logging logs HTTP requests with detailed information
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a custom response writer to capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.log.With("method", r.Method).
			With("path", r.URL.Path).
			With("status", rw.statusCode).
			With("duration", time.Since(start).String()).
			With("remote_addr", r.RemoteAddr).
			With("user_agent", r.UserAgent()).
			Infof("HTTP request completed")
	})
}

// CORS adds CORS headers for allowed origins
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(m.allowedOrigins) == 0 || m.allowedOrigins["*"]:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && m.allowedOrigins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Recovery handles panics and returns a 500 error
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.log.Errorf("Panic in HTTP handler: %v", err)
				writeError(w, errors.InternalError(fmt.Errorf("panic: %v", err)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RateLimit applies rate limiting based on client IP address
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r)
		if ok, wait := m.rateLimiter.Allow(clientIP); !ok {
			m.log.Warnf("Rate limit exceeded for client: %s", clientIP)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(wait.Seconds()))))
			writeError(w, errors.New(errors.ErrCodeTooManyRequests, "Rate limit exceeded. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow reports whether clientIP may make a request now, and if not how
// long it should wait
func (rl *RateLimiter) Allow(clientIP string) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	rl.evict(now)

	c, exists := rl.clients[clientIP]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evict drops limiters of clients idle for longer than clientIdleTTL.
// Must be called with mutex held.
func (rl *RateLimiter) evict(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(rl.clients, ip)
		}
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Take the first IP in the comma-separated list
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr without the port
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// APIKeyAuth validates API key authentication
func (m *Middleware) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health and webhooks authenticate differently
		if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			m.log.Warnf("Missing API key from %s", getClientIP(r))
			writeError(w, errors.New(errors.ErrCodeUnauthorized, "Missing API key"))
			return
		}

		if !m.isValidAPIKey(apiKey) {
			m.log.Warnf("Invalid API key from %s", getClientIP(r))
			writeError(w, errors.New(errors.ErrCodeUnauthorized, "Invalid API key"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isValidAPIKey validates API key using constant-time comparison
func (m *Middleware) isValidAPIKey(providedKey string) bool {
	valid := false
	for validKey := range m.apiKeys {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(validKey)) == 1 {
			valid = true
		}
	}
	return valid
}

// Security adds basic security headers
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Disable caching for everything but health
		if r.URL.Path != "/health" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(&models.ErrorResponse{
		Error: appErr.Message,
		Code:  string(appErr.Code),
	})
}

// responseWriter is a wrapper for http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
