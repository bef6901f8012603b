package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRouter собирает gin-движок с маршрутами API.
func NewRouter(h *Handler) *gin.Engine {
	e := gin.New()
	e.Use(requestLogger(), gin.Recovery())
	e.MaxMultipartMemory = maxUploadSize

	e.GET("/health", h.Health)

	v1 := e.Group("/api").
		Group("/v1")
	v1.POST("/inference", h.Infer)

	return e
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
