package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/config"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/scanner"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/store"
)

// Server is the read API over the store plus the scan trigger. It serves
// share links to front ends; it never mutates scan state itself beyond
// handing triggers to the scanner.
type Server struct {
	store   *store.Store
	scanner *scanner.Scanner
	cfg     *config.Config
	http    *http.Server
}

func New(st *store.Store, sc *scanner.Scanner, cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{store: st, scanner: sc, cfg: cfg}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.health)
	engine.GET("/c/:id", s.configText)

	api := engine.Group("/api")
	api.GET("/status", s.status)
	api.GET("/servers", s.listServers)
	api.GET("/servers/:id/config", s.serverConfig)
	api.POST("/servers/:id/dislike", s.dislike)
	api.POST("/scan", s.triggerScan)

	s.http = &http.Server{Addr: cfg.WebAddr, Handler: engine}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Shutdown. A clean shutdown is not an error.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
