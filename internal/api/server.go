package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"vrpsearch/internal/config"
	"vrpsearch/internal/events"
	"vrpsearch/internal/metrics"
	"vrpsearch/internal/store"
)

type Server struct {
	Store    store.Store
	Broker   events.Broker
	Registry *prometheus.Registry
	Metrics  *metrics.Solver
	// Algorithm is the base configuration for /v1/solve requests.
	Algorithm config.Algorithm
	Logger    log.FieldLogger
	// SolveLimiter throttles /v1/solve. Nil disables throttling.
	SolveLimiter *rate.Limiter
	// Heartbeat is the idle interval of the event stream. Zero means 15s.
	Heartbeat time.Duration
}

// NewServer creates a Server from the environment. Without DATABASE_URL
// results are kept in memory; without REDIS_URL events stay in process.
func NewServer(ctx context.Context, l log.FieldLogger) (*Server, error) {
	if l == nil {
		l = log.StandardLogger()
	}
	var st store.Store
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		st = pg
	}
	var broker events.Broker = events.NewMemoryBroker()
	if url := os.Getenv("REDIS_URL"); url != "" {
		if rb, err := events.NewRedisBroker(url); err == nil {
			broker = rb
		} else {
			l.WithError(err).Warn("redis broker unavailable, using in-process events")
		}
	}
	return &Server{
		Store:        st,
		Broker:       broker,
		Registry:     metrics.Registry,
		Metrics:      metrics.Default,
		Algorithm:    config.Default(),
		Logger:       l,
		SolveLimiter: limiterFromEnv(),
	}, nil
}

// limiterFromEnv reads RATE_RPS and RATE_BURST. An unset or non-positive rate
// disables limiting.
func limiterFromEnv() *rate.Limiter {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_RPS"), 64)
	if err != nil || rps <= 0 {
		return nil
	}
	burst, err := strconv.Atoi(os.Getenv("RATE_BURST"))
	if err != nil || burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Handler mounts every endpoint on a fresh mux.
func (s *Server) Handler() http.Handler {
	reg := s.Registry
	if reg == nil {
		reg = metrics.Registry
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/results", s.ResultsHandler)
	mux.HandleFunc("/v1/results/", s.ResultByIDHandler)
	mux.HandleFunc("/v1/events", s.EventsHandler)
	mux.Handle("/v1/solve", s.limit(http.HandlerFunc(s.SolveHandler)))
	mux.HandleFunc("/debug/build", s.DebugJSON)
	return mux
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.SolveLimiter != nil && !s.SolveLimiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logger() log.FieldLogger {
	if s.Logger == nil {
		return log.StandardLogger()
	}
	return s.Logger
}

// Close releases the store and broker connections when they hold any.
func (s *Server) Close() error {
	type closer interface{ Close() error }
	var first error
	for _, c := range []any{s.Store, s.Broker} {
		if cl, ok := c.(closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
