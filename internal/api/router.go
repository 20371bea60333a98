// Package api provides the HTTP API layer for the vector database server.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vectorbase/internal/api/handlers"
	"vectorbase/internal/api/middleware"
	"vectorbase/internal/config"
	"vectorbase/internal/logging"
	"vectorbase/internal/openapi"
	"vectorbase/internal/service"
)

// Router represents the main API router.
type Router struct {
	config  *config.Config
	logger  logging.Logger
	mux     *chi.Mux
	version string
}

// NewRouter builds the chi router wiring every library/document/chunk/search
// handler to the given service facade, plus health and documentation routes.
func NewRouter(cfg *config.Config, svc *service.Facade, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	r := &Router{
		config:  cfg,
		logger:  logger,
		mux:     chi.NewRouter(),
		version: "1.0.0",
	}

	r.setupMiddleware()
	r.setupRoutes(svc)

	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(chimiddleware.Timeout(30 * time.Second))

	loggingMiddleware := middleware.NewLoggingMiddleware(r.logger)
	r.mux.Use(loggingMiddleware.Handler())

	corsMiddleware := r.createCORSMiddleware()
	r.mux.Use(corsMiddleware.Handler())

	securityHeaders := r.createSecurityHeadersMiddleware()
	r.mux.Use(securityHeaders.Handler())

	versionMiddleware := middleware.NewVersionChecker()
	r.mux.Use(versionMiddleware.Handler())

	circuitBreakerManager := r.createCircuitBreakerMiddleware()
	r.mux.Use(circuitBreakerManager.Middleware("api"))

	r.mux.Use(chimiddleware.RequestSize(10 * 1024 * 1024))
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

func (r *Router) createCORSMiddleware() *middleware.CORSMiddleware {
	if r.isDevEnvironment() {
		return middleware.NewDefaultCORSMiddleware()
	}
	return middleware.NewProductionCORSMiddleware(r.config.Server.CORSAllowedOrigins)
}

func (r *Router) createSecurityHeadersMiddleware() *middleware.SecurityHeadersMiddleware {
	if r.isDevEnvironment() {
		return middleware.NewDevelopmentSecurityHeadersMiddleware()
	}
	return middleware.NewDefaultSecurityHeadersMiddleware()
}

func (r *Router) isDevEnvironment() bool {
	return r.config.Server.Host == "localhost" || r.config.Server.Host == "127.0.0.1"
}

func (r *Router) createCircuitBreakerMiddleware() *middleware.CircuitBreakerManager {
	cbConfig := middleware.CircuitBreakerConfig{
		Enabled: true,
		DefaultSettings: middleware.BreakerConfig{
			FailureThreshold:  5,
			SuccessThreshold:  3,
			Timeout:           60 * time.Second,
			MaxRequests:       100,
			ResetTimeout:      30 * time.Second,
			BackoffStrategy:   middleware.BackoffConstant,
			BackoffMultiplier: 1.5,
			MaxBackoffTime:    5 * time.Minute,
		},
		ServiceConfigs: map[string]middleware.BreakerConfig{
			"api": {
				FailureThreshold:  10,
				SuccessThreshold:  2,
				Timeout:           30 * time.Second,
				MaxRequests:       200,
				ResetTimeout:      15 * time.Second,
				BackoffStrategy:   middleware.BackoffLinear,
				BackoffMultiplier: 1.2,
				MaxBackoffTime:    2 * time.Minute,
			},
			"health": {
				FailureThreshold:  20,
				SuccessThreshold:  1,
				Timeout:           10 * time.Second,
				MaxRequests:       500,
				ResetTimeout:      5 * time.Second,
				BackoffStrategy:   middleware.BackoffConstant,
				BackoffMultiplier: 1.0,
				MaxBackoffTime:    30 * time.Second,
			},
		},
		MonitorInterval: 10 * time.Second,
		EnableMetrics:   true,
	}

	return middleware.NewCircuitBreakerManager(cbConfig)
}

func (r *Router) setupRoutes(svc *service.Facade) {
	healthHandler := handlers.NewHealthHandler(r.config)
	r.mux.Get("/health", healthHandler.Handle)
	r.mux.Get("/readiness", healthHandler.HandleReadiness)
	r.mux.Get("/liveness", healthHandler.HandleLiveness)

	libraryHandler := handlers.NewLibraryHandler(svc)
	documentHandler := handlers.NewDocumentHandler(svc)
	chunkHandler := handlers.NewChunkHandler(svc)
	searchHandler := handlers.NewSearchHandler(svc)
	indexHandler := handlers.NewIndexHandler(svc)
	openapiHandler := openapi.NewHandler()

	r.mux.Route("/api", func(rtr chi.Router) {
		rtr.Get("/health", healthHandler.Handle)
		rtr.Get("/readiness", healthHandler.HandleReadiness)
		rtr.Get("/liveness", healthHandler.HandleLiveness)
		rtr.Get("/openapi.json", openapiHandler.ServeHTTP)

		rtr.Route("/libraries", func(lr chi.Router) {
			lr.Post("/", libraryHandler.Create)
			lr.Get("/", libraryHandler.List)
			lr.Get("/{id}", libraryHandler.Get)
			lr.Patch("/{id}", libraryHandler.Update)
			lr.Delete("/{id}", libraryHandler.Delete)

			lr.Post("/{id}/index", indexHandler.Start)
			lr.Get("/{id}/index/status", indexHandler.Status)
			lr.Post("/{id}/search", searchHandler.Search)
		})

		rtr.Route("/documents", func(dr chi.Router) {
			dr.Post("/", documentHandler.Create)
			dr.Get("/library/{id}", documentHandler.ListByLibrary)
			dr.Get("/{id}", documentHandler.Get)
			dr.Patch("/{id}", documentHandler.Update)
			dr.Delete("/{id}", documentHandler.Delete)
		})

		rtr.Route("/chunks", func(cr chi.Router) {
			cr.Post("/", chunkHandler.Create)
			cr.Post("/batch", chunkHandler.CreateBatch)
			cr.Get("/document/{id}", chunkHandler.ListByDocument)
			cr.Get("/{id}", chunkHandler.Get)
			cr.Patch("/{id}", chunkHandler.Update)
			cr.Delete("/{id}", chunkHandler.Delete)
		})
	})

	r.mux.Get("/", r.handleRoot)
	r.mux.NotFound(r.handleNotFound)
	r.mux.MethodNotAllowed(r.handleMethodNotAllowed)
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	serverInfo := map[string]interface{}{
		"server":      "vectorbase",
		"version":     r.version,
		"api_version": "v1",
		"endpoints": map[string]string{
			"health":    "/health",
			"readiness": "/readiness",
			"liveness":  "/liveness",
			"libraries": "/api/libraries",
			"documents": "/api/documents",
			"chunks":    "/api/chunks",
			"openapi":   "/api/openapi.json",
		},
		"status": "running",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := writeJSON(w, serverInfo); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	errorResp := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "NOT_FOUND",
			"message": "Endpoint not found",
			"details": "The requested resource does not exist",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSON(w, errorResp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (r *Router) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)

	errorResp := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "METHOD_NOT_ALLOWED",
			"message": "Method not allowed",
			"details": "The HTTP method is not supported for this endpoint",
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSON(w, errorResp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// GetServerConfig returns the server configuration for external access.
func (r *Router) GetServerConfig() *config.Config {
	return r.config
}
