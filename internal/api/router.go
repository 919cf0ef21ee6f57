package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/charleschow/bankroll-calc/internal/config"
	"github.com/charleschow/bankroll-calc/internal/core/session"
	"github.com/charleschow/bankroll-calc/internal/events"
)

const requestTimeout = 30 * time.Second

// Deps wires the router to the rest of the process.
type Deps struct {
	Sessions *session.Manager
	Bus      *events.Bus
	Limits   config.Limits

	// Watch serves the websocket fanout; nil leaves /ws unmounted.
	Watch http.Handler

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP surface: health and metrics at the root, the
// calculator under /api/v1 and the event stream at /ws.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d.Sessions, d.Bus, d.Limits)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)
	if d.Watch != nil {
		r.Handle("/ws", d.Watch)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		if d.RateLimitRPS > 0 {
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(d.RateLimitRPS), max(d.RateLimitBurst, 1))))
		}
		r.Use(recordLatency)

		r.Route("/staking/plans", func(r chi.Router) {
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
			r.Delete("/{id}", h.DeletePlan)
			r.Post("/{id}/resolve", h.ResolveStep)
			r.Put("/{id}/steps/{index}/odd", h.UpdateOdd)
		})

		r.Post("/match/outcome", h.MatchOutcome)
		r.Post("/match/implied", h.MatchImplied)
	})

	return r
}
