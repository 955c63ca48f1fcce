package api

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"captioner/internal/services"
	"captioner/internal/staging"
	"captioner/internal/textutil"
)

// mediaKind groups accepted uploads; its value doubles as the staged name
// prefix.
type mediaKind string

const (
	mediaAudio    mediaKind = "audio"
	mediaVideo    mediaKind = "video"
	mediaSubtitle mediaKind = "srt"
)

var allowedMIMETypes = map[string]struct{}{
	"audio/mpeg":           {},
	"audio/mp3":            {},
	"audio/wav":            {},
	"audio/x-wav":          {},
	"audio/mp4":            {},
	"audio/x-m4a":          {},
	"audio/ogg":            {},
	"audio/webm":           {},
	"audio/aac":            {},
	"audio/flac":           {},
	"video/mp4":            {},
	"video/webm":           {},
	"video/quicktime":      {},
	"video/x-msvideo":      {},
	"video/avi":            {},
	"text/plain":           {},
	"application/x-subrip": {},
	"text/x-subrip":        {},
}

// multipartOverhead covers form fields and part headers on top of the files.
const multipartOverhead = 1 << 20

type stagedUpload struct {
	Path         string
	OriginalName string
	Kind         mediaKind
}

// classifyUpload decides whether a file is accepted and what it is.
func classifyUpload(filename, contentType string) (mediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	switch {
	case ext == ".srt", strings.Contains(mediaType, "subrip"), mediaType == "text/plain":
		_, ok := allowedMIMETypes[mediaType]
		return mediaSubtitle, ok || ext == ".srt"
	case strings.HasPrefix(mediaType, "video/"):
		_, ok := allowedMIMETypes[mediaType]
		return mediaVideo, ok
	default:
		_, ok := allowedMIMETypes[mediaType]
		return mediaAudio, ok
	}
}

// limitBody caps the request body for a form carrying files uploads.
func (s *Server) limitBody(c *gin.Context, files int) {
	limit := s.cfg.MaxUploadBytes()*int64(files) + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
}

// stageUpload saves the multipart file in field into the staging directory
// and tracks it in scope. Only the listed kinds are accepted.
func (s *Server) stageUpload(c *gin.Context, scope *staging.Scope, field string, accept ...mediaKind) (stagedUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return stagedUpload{}, uploadError(field, err)
	}
	if limit := s.cfg.MaxUploadBytes(); header.Size > limit {
		return stagedUpload{}, fmt.Errorf("%w: %s is %d bytes, limit is %d: %w",
			services.ErrInvalidInput, field, header.Size, limit, errUploadTooLarge)
	}

	kind, ok := classifyUpload(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		return stagedUpload{}, services.Wrap(services.ErrInvalidInput, "upload", field,
			"Invalid file type. Only audio, video, and SRT files are allowed.", nil)
	}
	if !acceptsKind(accept, kind) {
		return stagedUpload{}, services.Wrap(services.ErrInvalidInput, "upload", field,
			fmt.Sprintf("expected %s file, got %s", describeKinds(accept), kind), nil)
	}

	dest := staging.NewPath(s.cfg.Paths.StagingDir, string(kind), filepath.Ext(header.Filename))
	scope.Track(dest)
	if err := c.SaveUploadedFile(header, dest); err != nil {
		return stagedUpload{}, services.Wrap(nil, "upload", field, "staging upload failed", err)
	}
	return stagedUpload{Path: dest, OriginalName: textutil.SanitizeFileName(header.Filename), Kind: kind}, nil
}

func uploadError(field string, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: %s: request body exceeds %d bytes: %w",
			services.ErrInvalidInput, field, tooLarge.Limit, errUploadTooLarge)
	case errors.Is(err, http.ErrMissingFile):
		return services.Wrap(services.ErrInvalidInput, "upload", field,
			fmt.Sprintf("No %s file uploaded", field), nil)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, multipart.ErrMessageTooLarge):
		return services.Wrap(services.ErrInvalidInput, "upload", field, "expected a multipart form upload", err)
	default:
		return services.Wrap(services.ErrInvalidInput, "upload", field, "reading upload failed", err)
	}
}

func acceptsKind(accept []mediaKind, kind mediaKind) bool {
	for _, k := range accept {
		if k == kind {
			return true
		}
	}
	return false
}

func describeKinds(kinds []mediaKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " or ")
}
