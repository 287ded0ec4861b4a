package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var releaseMode sync.Once

// NewRouter creates the gin engine with all routes configured.
func NewRouter(handler *Handler, logger *slog.Logger) *gin.Engine {
	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })

	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/health", handler.Health)
	r.GET("/status", handler.Status)

	return r
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
