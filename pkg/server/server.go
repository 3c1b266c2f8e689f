// Package server exposes the dashboard aggregates as a JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/codeoc/dashboard/pkg/api"
	"github.com/codeoc/dashboard/pkg/apis/cache"
	"github.com/codeoc/dashboard/pkg/dataloader"
	"github.com/codeoc/dashboard/pkg/db"
)

type Server struct {
	listenAddr string
	store      *dataloader.Store
	cache      cache.Cache
	db         *db.DB
	defaults   api.ReportOptions

	// registry receives the request metrics. Nil disables them.
	registry   prometheus.Registerer
	httpServer *http.Server
}

// NewServer returns a server answering from the store. The cache and the
// database are optional: without a cache every report is computed on demand,
// and without a database the snapshot endpoints answer 404.
func NewServer(
	listenAddr string,
	store *dataloader.Store,
	cacheClient cache.Cache,
	dbClient *db.DB,
	defaults api.ReportOptions,
	registry prometheus.Registerer,
) *Server {
	s := &Server{
		listenAddr: listenAddr,
		store:      store,
		cache:      cacheClient,
		db:         dbClient,
		defaults:   defaults,
		registry:   registry,
	}
	s.httpServer = &http.Server{
		Addr:              listenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router with every API route.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", s.jsonHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.jsonGlobalStats).Methods(http.MethodGet)
	router.HandleFunc("/api/feedback", s.jsonSatisfaction).Methods(http.MethodGet)
	router.HandleFunc("/api/errorcodes/dtcs", s.jsonDTCs).Methods(http.MethodGet)
	router.HandleFunc("/api/errorcodes/internal", s.jsonInternalErrorCodes).Methods(http.MethodGet)
	router.HandleFunc("/api/cars/manufacturers", s.jsonManufacturers).Methods(http.MethodGet)
	router.HandleFunc("/api/cars/models", s.jsonModels).Methods(http.MethodGet)
	router.HandleFunc("/api/users/active", s.jsonMostActiveUsers).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}/logins", s.jsonLoginHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/workshops", s.jsonWorkshops).Methods(http.MethodGet)
	router.HandleFunc("/api/report", s.jsonReport).Methods(http.MethodGet)
	router.HandleFunc("/api/companies", s.jsonCompanies).Methods(http.MethodGet)
	router.HandleFunc("/api/drilldown", s.jsonDrillDown).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshots", s.jsonSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/api/snapshots/{name}", s.jsonSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)

	if s.registry != nil {
		router.Use(s.requestMetrics())
	}
	return router
}

// requestMetrics records request durations and sizes labelled by route
// template rather than the raw path.
func (s *Server) requestMetrics() mux.MiddlewareFunc {
	mdlw := middleware.New(middleware.Config{
		Recorder: metricsprom.NewRecorder(metricsprom.Config{
			Prefix:   "codeoc_dashboard",
			Registry: s.registry,
		}),
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			handlerID := req.URL.Path
			if route := mux.CurrentRoute(req); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					handlerID = tmpl
				}
			}
			std.Handler(handlerID, mdlw, next).ServeHTTP(w, req)
		})
	}
}

// Serve listens until the server is shut down.
func (s *Server) Serve() error {
	log.Infof("Serving dashboard API on %s", s.listenAddr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
