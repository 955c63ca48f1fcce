package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"captioner/internal/logging"
	"captioner/internal/services"
)

const headerRequestID = "X-Request-ID"

// requestID tags each request with an id, reusing a sane client-supplied one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// corsConfig builds the cross-origin policy for the configured origins. A "*"
// entry opens the API to every origin without credentials; an empty list
// disables cross-origin access.
func corsConfig(origins []string) (cors.Config, bool) {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", headerRequestID},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length", headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			cfg.AllowAllOrigins = true
		default:
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if cfg.AllowAllOrigins {
		cfg.AllowOrigins = nil
		cfg.AllowCredentials = false
	}
	return cfg, cfg.AllowAllOrigins || len(cfg.AllowOrigins) > 0
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger := logging.WithContext(c.Request.Context(), s.logger)
		logger.Info("http request",
			logging.String(logging.FieldEventType, "http_request"),
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Int("bytes", c.Writer.Size()),
			logging.Int64("elapsed_ms", time.Since(started).Milliseconds()),
			logging.String("client_ip", c.ClientIP()),
		)
	}
}

// recovery turns handler panics into a JSON 500 and a structured log entry.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger := logging.WithContext(c.Request.Context(), s.logger)
		logging.ErrorWithContext(logger, "handler panic", "http_panic",
			logging.String("panic", fmt.Sprint(recovered)),
			logging.String("path", c.Request.URL.Path),
			logging.String(logging.FieldErrorHint, "report the request that triggered it"),
			logging.String(logging.FieldImpact, "request failed"),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   true,
			Kind:    string(services.KindInternal),
			Message: "Internal server error",
		})
	})
}
