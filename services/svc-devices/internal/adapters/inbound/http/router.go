package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/services/svc-devices/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/filterspec/services/svc-devices/internal/config"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases"
)

const baseURL = "/v1"

type RouterConfig struct {
	App    *usecases.Application
	Logger logger.Logger
	Config *config.ServiceConfig
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestTracking())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(cfg.Logger))

	if cfg.Config.HTTPServer.WriteTimeout > 0 {
		router.Use(chimiddleware.Timeout(cfg.Config.HTTPServer.WriteTimeout))
	}

	if cfg.Config.Logging.AccessLog.Enabled {
		router.Use(middleware.AccessLogger(cfg.Logger, cfg.Config.Logging.AccessLog.LogHealthChecks))
	}

	handler := NewDevicesHandler(cfg.App, cfg.Logger, cfg.Config.HTTPServer.MaxBodyBytes)

	router.Get("/healthz", handler.Liveness)
	router.Get("/readyz", handler.Readiness)

	router.Route(baseURL+"/devices", func(r chi.Router) {
		r.Get("/", handler.ListDevices)
		r.Post("/search", handler.SearchDevices)
		r.Get("/{id}", handler.GetDevice)
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, "route not found")
	})

	return router
}
