package httpin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jademcosta/syncbatcher/pkg/adapters/httpin/httpmiddleware"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	APIComponentType = "api"
	apiVersion       = "v1"
	shutdownGrace    = 5 * time.Second
)

type API struct {
	mux  *chi.Mux
	log  *slog.Logger
	srv  *http.Server
	port int
}

func NewAPI(
	l *slog.Logger, conf config.Config, metricRegistry *prometheus.Registry, tracer trace.Tracer,
	appVersion string, submitter Submitter, inspector ManifestInspector,
) (*API, error) {

	router := chi.NewRouter()
	logg := l.With(logger.ComponentKey, APIComponentType)

	sizeLimit, err := conf.API.PayloadSizeLimitInBytes()
	if err != nil {
		return nil, fmt.Errorf("payload size limit could not be extracted: %w", err)
	}

	api := &API{
		mux:  router,
		log:  logg,
		srv:  &http.Server{Addr: fmt.Sprintf(":%d", conf.API.Port), Handler: router, ReadHeaderTimeout: 10 * time.Second},
		port: conf.API.Port,
	}

	initializeMetrics(metricRegistry)
	registerDefaultMiddlewares(api, conf, sizeLimit, logg, metricRegistry, tracer)

	RegisterInvocationRoutes(api, apiVersion, conf.API, sizeLimit, submitter, inspector)
	RegisterOperationalRoutes(api, appVersion, metricRegistry)
	api.mux.Mount("/debug", middleware.Profiler())

	return api, nil
}

func (api *API) ListenAndServe() error {
	api.log.Info(fmt.Sprintf("Starting HTTP server on port %d", api.port))
	err := api.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("when serving HTTP: %w", err)
	}

	return nil
}

func (api *API) Shutdown() error {
	shutdownCtx, shutdownCtxRelease := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCtxRelease()

	return api.srv.Shutdown(shutdownCtx)
}

func registerDefaultMiddlewares(
	api *API,
	conf config.Config,
	sizeLimit int64,
	l *slog.Logger,
	metricRegistry *prometheus.Registry,
	tracer trace.Tracer,
) {

	//Middlewares on the top wrap the ones in the bottom
	api.mux.Use(httpmiddleware.NewLoggingMiddleware(l))
	if conf.O11y.TracingEnabled {
		api.mux.Use(httpmiddleware.NewTracingMiddleware(tracer))
	}
	api.mux.Use(httpmiddleware.NewMetricsMiddleware(metricRegistry))
	api.mux.Use(httpmiddleware.NewRecoverer(l))

	if sizeLimit > 0 {
		api.mux.Use(middleware.RequestSize(sizeLimit))
	}
}
