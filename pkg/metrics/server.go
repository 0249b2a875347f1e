package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang-dividend-forecaster/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics and /healthz for scraping.
type Server struct {
	echo   *echo.Echo
	port   int
	logger *logger.Logger
}

// NewServer builds the metrics endpoint on port.
func NewServer(port int, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return &Server{echo: e, port: port, logger: log}
}

// Start listens in the background.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	go func() {
		s.logger.Info("Metrics server listening", logger.StringField("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server error", logger.ErrorField(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler {
	return s.echo
}
