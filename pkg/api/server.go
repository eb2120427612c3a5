package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/coordinator"
	"github.com/ChenxingM/RenderQ/pkg/log"
)

// Server wraps a gin router bound to a coordinator.Coordinator.
type Server struct {
	coordinator *coordinator.Coordinator
	router      *gin.Engine
	http        *http.Server
}

// NewServer builds the router and registers every route. The server is
// not listening until Start is called.
func NewServer(coord *coordinator.Coordinator, addr string) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		coordinator: coord,
		router:      router,
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // event stream connections are long-lived
			IdleTimeout:  120 * time.Second,
		},
	}

	registerRoutes(router, coord)
	return s
}

// Start begins serving and blocks until the server stops or errors.
func (s *Server) Start() error {
	log.WithComponent("api").Info().Str("addr", s.http.Addr).Msg("api server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
