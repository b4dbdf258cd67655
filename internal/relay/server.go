// Package relay forwards webhook test messages to Discord on behalf of
// browser origins that cannot post cross-origin themselves.
package relay

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	LogFieldRequestID   = "requestId"
	LogFieldHTTPRequest = "httpRequest"
)

type Server struct {
	router   chi.Router
	log      *logrus.Logger
	config   *config.RelayConfig
	upstream *retryablehttp.Client
	forwards *semaphore.Weighted
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONError(w, r, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) preflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func newUpstreamClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 0
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.HTTPClient.Timeout = 15 * time.Second
	return c
}

func New(log *logrus.Logger, relayCfg *config.RelayConfig) *Server {
	router := chi.NewRouter()
	maxForwards := relayCfg.MaxConcurrentForwards
	if maxForwards < 1 {
		maxForwards = 1
	}
	server := &Server{
		router:   router,
		log:      log,
		config:   relayCfg,
		upstream: newUpstreamClient(),
		forwards: semaphore.NewWeighted(maxForwards),
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(server.logMiddleware)
	router.Use(server.recoverMiddleware)
	router.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return relayCfg.IsAllowedOrigin(origin)
		},
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		MaxAge:             86400,
		OptionsPassthrough: true,
	}))

	router.Use(middleware.Timeout(30 * time.Second))

	// every other route or method is a plain 404
	router.NotFound(server.notFoundHandler)
	router.MethodNotAllowed(server.notFoundHandler)

	router.Options("/*", server.preflightHandler)
	router.With(server.originMiddleware).Post("/relay", server.relayHandler)

	return server
}
