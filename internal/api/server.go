package api

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"navalha/internal/availability"
	"navalha/internal/cache"
	"navalha/internal/store"
	"navalha/internal/timeutil"
)

// Server exposes the availability engine and the booking writes over
// HTTP. The cache is optional; a nil cache just computes every request.
type Server struct {
	engine  *availability.Engine
	db      *store.DB
	cache   *cache.Cache
	tz      timeutil.Converter
	logger  zerolog.Logger
	router  *httprouter.Router
	limiter *visitorLimiter

	allowedOrigins []string
}

// Options carries the tunables main reads from config.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewServer wires the routes.
func NewServer(engine *availability.Engine, db *store.DB, c *cache.Cache, tz timeutil.Converter, logger zerolog.Logger, opts Options) *Server {
	rps := opts.RateLimitRPS
	if rps <= 0 {
		rps = 20
	}
	burst := opts.RateLimitBurst
	if burst <= 0 {
		burst = 40
	}

	s := &Server{
		engine:         engine,
		db:             db,
		cache:          c,
		tz:             tz,
		logger:         logger,
		router:         httprouter.New(),
		limiter:        newVisitorLimiter(rate.Limit(rps), burst),
		allowedOrigins: opts.AllowedOrigins,
	}

	s.router.GET("/api/v1/slots", s.limit(s.handleSlots))
	s.router.GET("/api/v1/available-now", s.limit(s.handleAvailableNow))
	s.router.POST("/api/v1/bookable", s.limit(s.handleBookable))
	s.router.GET("/api/v1/agenda/:date/export", s.limit(s.handleAgendaExport))

	s.router.POST("/api/v1/appointments", s.limit(s.handleCreateAppointment))
	s.router.DELETE("/api/v1/appointments/:id", s.limit(s.handleCancelAppointment))
	s.router.POST("/api/v1/blocks", s.limit(s.handleCreateBlock))
	s.router.DELETE("/api/v1/blocks/:id", s.limit(s.handleDeleteBlock))

	return s
}

// Handler returns the full middleware chain: CORS, request id, logging.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.router)

	return s.withRequestID(s.withLogging(corsHandler))
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", w.Header().Get("X-Request-ID")).
			Dur("elapsed", time.Since(started)).
			Msg("http request")
	})
}

// limit enforces per-IP rate limiting on a route.
func (s *Server) limit(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r, ps)
	}
}

// visitorLimiter keeps one token bucket per client IP.
type visitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newVisitorLimiter(limit rate.Limit, burst int) *visitorLimiter {
	return &visitorLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (v *visitorLimiter) allow(ip string) bool {
	v.mu.Lock()
	limiter, ok := v.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(v.limit, v.burst)
		v.visitors[ip] = limiter
	}
	v.mu.Unlock()
	return limiter.Allow()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
