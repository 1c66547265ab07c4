package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	public       *http.Server
	publicRouter *chi.Mux

	handler  *Handler
	gatherer prometheus.Gatherer
}

func New(handler *Handler, gatherer prometheus.Gatherer) *Server {
	return &Server{
		publicRouter: chi.NewRouter(),

		handler:  handler,
		gatherer: gatherer,
	}
}

// Router returns the public router with all routes registered.
func (s *Server) Router(mws ...func(http.Handler) http.Handler) http.Handler {
	s.registerPublicRoutes(mws...)
	return s.publicRouter
}

func (s *Server) ServePublic(addr string, mws ...func(http.Handler) http.Handler) error {
	s.public = &http.Server{
		Addr:         addr,
		Handler:      s.Router(mws...),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	return s.public.ListenAndServe()
}

func (s *Server) ShutdownPublic(ctx context.Context) error {
	if s.public == nil {
		return nil
	}
	if err := s.public.Shutdown(ctx); err != nil {
		return s.public.Close()
	}
	return nil
}

func (s *Server) registerPublicRoutes(middlewares ...func(http.Handler) http.Handler) {
	s.publicRouter.Use(middlewares...)
	s.publicRouter.Get("/_/ready", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	s.publicRouter.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.publicRouter.Route("/v1", func(r chi.Router) {
		r.Post("/interactions", s.handler.Interaction)
		r.Post("/dimensions", s.handler.Dimensions)
	})
}
