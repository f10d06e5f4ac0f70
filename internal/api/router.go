package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yegors/appgate/internal/approach"
	"github.com/yegors/appgate/internal/config"
	"github.com/yegors/appgate/internal/metrics"
	"github.com/yegors/appgate/internal/websocket"
	"github.com/yegors/appgate/pkg/logger"
)

// Router wires the API handlers, the WebSocket hub and the metrics endpoint
type Router struct {
	handler  *Handler
	config   *config.Config
	metrics  *metrics.Collector
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates a new router. collector and wsServer may be nil when the
// corresponding surface is disabled.
func NewRouter(approachService *approach.Service, cfg *config.Config, log *logger.Logger, collector *metrics.Collector, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(approachService, cfg, log),
		config:   cfg,
		metrics:  collector,
		wsServer: wsServer,
		logger:   log.Named("router"),
	}
}

// Routes returns the HTTP handler serving every route
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// An empty origin list leaves CORS headers off
	if origins := rt.config.Server.CORSAllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	r.Get("/health", rt.handler.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", rt.handler.GetConfig)

		r.Route("/runways", func(r chi.Router) {
			r.Get("/", rt.handler.GetAllRunways)
			r.Get("/{id}", rt.handler.GetRunwayByID)
		})

		r.Route("/glidepath", func(r chi.Router) {
			r.Post("/altitude", rt.handler.Altitude)
			r.Post("/distance", rt.handler.DistanceOnGlide)
			r.Post("/appgate", rt.handler.AppGate)
			r.Post("/compute", rt.handler.Compute)
			r.Post("/profile", rt.handler.Profile)
			r.Post("/readout", rt.handler.Readout)
			r.Post("/rate-of-descent", rt.handler.RateOfDescent)
		})
	})

	if rt.wsServer != nil && rt.config.WebSocket.Enabled {
		r.Get(rt.config.WebSocket.Path, rt.wsServer.HandleConnection)
	}
	if rt.metrics != nil && rt.config.Metrics.Enabled {
		r.Handle(rt.config.Metrics.Path, rt.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	rt.logger.Debug("Routes registered",
		logger.Bool("websocket", rt.wsServer != nil && rt.config.WebSocket.Enabled),
		logger.Bool("metrics", rt.metrics != nil && rt.config.Metrics.Enabled))

	return r
}
