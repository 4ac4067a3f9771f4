package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kter/serverless-sample/internal/http/handler"
	"github.com/kter/serverless-sample/internal/middleware"
	"github.com/kter/serverless-sample/internal/service"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerDeps extends RouterDeps with the request metrics sink.
type ServerDeps struct {
	RouterDeps
	Requests middleware.RequestObserver
}

func NewServer(port string, logger *slog.Logger, todoSvc *service.TodoService, deps ServerDeps) *Server {
	var h http.Handler = NewRouter(todoSvc, deps.RouterDeps)

	// Applied inside out: recovery -> request id -> logging -> metrics -> cors -> router
	h = middleware.CORS()(h)
	if deps.Requests != nil {
		h = middleware.Metrics(deps.Requests, handler.Route)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.Recovery(logger)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      h,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the full middleware chain for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
