package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
	"github.com/killallgit/delivery-api/api/version"
	"github.com/killallgit/delivery-api/pkg/config"
)

// Server represents the HTTP server
type Server struct {
	engine             *gin.Engine
	httpServer         *http.Server
	rateLimiters       *sync.Map
	cleanupInitialized sync.Once
	cleanupStop        chan struct{}
	stopOnce           sync.Once

	dependencies *types.Dependencies
	info         version.Info
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps *types.Dependencies, info version.Info) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if deps == nil {
		deps = &types.Dependencies{}
	}
	if deps.MaxUploadSize <= 0 {
		deps.MaxUploadSize = cfg.MaxUploadSize
	}

	return &Server{
		engine:       engine,
		rateLimiters: &sync.Map{},
		cleanupStop:  make(chan struct{}),
		dependencies: deps,
		info:         info,
		httpServer: &http.Server{
			Addr:           cfg.Address(),
			Handler:        engine,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() {
	s.engine.Use(gin.Logger())
	s.engine.Use(CORS())

	limit := s.dependencies.MaxUploadSize
	if limit <= 0 {
		limit = 1 << 30
	}
	s.engine.Use(RequestSizeLimitWithSize(limit))
	s.engine.MaxMultipartMemory = 32 << 20

	RegisterRoutes(s.engine, s.dependencies, s.info, s.rateLimiters, s.cleanupStop, &s.cleanupInitialized)
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.cleanupStop) })
	return s.httpServer.Shutdown(ctx)
}
