package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"captioner/internal/logging"
	"captioner/internal/services"
)

// errUploadTooLarge marks uploads over the configured size limit.
var errUploadTooLarge = errors.New("upload exceeds size limit")

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindEngineFailure, services.KindRenderFailure:
		return http.StatusBadGateway
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns text safe to show a client. Engine internals only
// ever reach the logs.
func publicMessage(kind services.Kind, err error) string {
	switch kind {
	case services.KindInvalidInput:
		return strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	case services.KindEngineFailure:
		return "Speech recognition failed"
	case services.KindRenderFailure:
		return "Failed to render video with captions"
	case services.KindTimeout:
		return "Processing timed out"
	case services.KindNotFound:
		return "Not found"
	default:
		return "Internal server error"
	}
}

// writeError reports err to the client unless a response is already on the
// wire, and logs it with its diagnostic.
func (s *Server) writeError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	if errors.Is(err, errUploadTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	logger := logging.WithContext(c.Request.Context(), s.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.Int("status", status),
		logging.Error(err),
	}
	if diag := services.DiagnosticOf(err); diag != "" {
		attrs = append(attrs, logging.String(logging.FieldDiagnostic, diag))
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "request_failed", attrs...)
	} else {
		logger.Info("request rejected", logging.Args(attrs...)...)
	}

	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   true,
		Kind:    string(kind),
		Message: publicMessage(kind, err),
	})
}
