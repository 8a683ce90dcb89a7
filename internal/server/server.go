// Package server assembles the gin HTTP server over the V1 API.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	v1 "mmrhub/internal/api/v1"
	"mmrhub/internal/config"
	"mmrhub/internal/jobs"
	"mmrhub/internal/store"
)

// Server is the HTTP front of the service.
type Server struct {
	router *gin.Engine
	cfg    *config.AppConfig
}

// New builds the server and registers all routes.
func New(cfg *config.AppConfig, svc *jobs.Service, archive *store.Store, uploadsDir string, log zerolog.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(cors())
	router.MaxMultipartMemory = 32 << 20

	handler := v1.NewHandler(svc, archive, uploadsDir, log)
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return &Server{router: router, cfg: cfg}
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%d", s.cfg.Server.Port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
