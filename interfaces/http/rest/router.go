// Package rest wires the HTTP surface of the engine.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meetmap-backend/interfaces/http/rest/handlers"
	"meetmap-backend/interfaces/http/rest/middleware"
	"meetmap-backend/pkg/common"
	"meetmap-backend/pkg/observability"
)

// Router creates and configures the HTTP router.
type Router struct {
	meetings   *handlers.MeetingHandler
	logger     *zap.Logger
	metrics    *observability.Collector
	enableCORS bool
}

// NewRouter creates a new router instance. metrics may be nil to
// disable the /metrics endpoint.
func NewRouter(meetings *handlers.MeetingHandler, logger *zap.Logger, metrics *observability.Collector, enableCORS bool) *Router {
	return &Router{
		meetings:   meetings,
		logger:     logger,
		metrics:    metrics,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readyCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/meetings/{meetingID}", func(r chi.Router) {
			r.Post("/transcript", rt.meetings.ProcessTranscript)
			r.Get("/graph", rt.meetings.GetGraph)
			r.Delete("/", rt.meetings.ResetMeeting)

			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/path", rt.meetings.GetPath)
				r.Get("/downward-paths", rt.meetings.GetDownwardPaths)
				r.Get("/maturity", rt.meetings.GetMaturity)
				r.Get("/influence", rt.meetings.GetInfluence)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) readyCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
