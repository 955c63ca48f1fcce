package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"captioner/internal/deps"
	"captioner/internal/pipeline"
	"captioner/internal/preflight"
	"captioner/internal/services"
	"captioner/internal/services/whisper"
	"captioner/internal/staging"
	"captioner/internal/style"
)

const (
	defaultJobLimit = 20
	maxJobLimit     = 500
)

func (s *Server) handleUploadAudio(c *gin.Context) {
	s.transcribe(c, whisper.VariantGeneral)
}

func (s *Server) handleUploadAudioHinglish(c *gin.Context) {
	s.transcribe(c, whisper.VariantHinglish)
}

func (s *Server) handleTranscribe(c *gin.Context) {
	variant, err := whisper.ParseVariant(c.Query("variant"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.transcribe(c, variant)
}

func (s *Server) transcribe(c *gin.Context, variant whisper.Variant) {
	s.limitBody(c, 1)
	scope := staging.NewScope(s.logger)
	upload, err := s.stageUpload(c, scope, "audio", mediaAudio, mediaVideo)
	if err != nil {
		scope.Release()
		s.writeError(c, err)
		return
	}

	result, err := s.pipeline.Transcribe(c.Request.Context(), pipeline.TranscribeRequest{
		AudioPath:    upload.Path,
		OriginalName: upload.OriginalName,
		Variant:      variant,
		Scope:        scope,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FromTranscribeResult(result))
}

func (s *Server) handleRenderVideo(c *gin.Context) {
	s.limitBody(c, 2)
	scope := staging.NewScope(s.logger)
	handedOff := false
	defer func() {
		if !handedOff {
			scope.Release()
		}
	}()

	video, err := s.stageUpload(c, scope, "video", mediaVideo)
	if err != nil {
		s.writeError(c, err)
		return
	}
	srt, err := s.stageUpload(c, scope, "srt", mediaSubtitle)
	if err != nil {
		s.writeError(c, err)
		return
	}
	theme, err := style.NormalizeTheme(style.RawTheme{
		Preset:     c.PostForm("captionStyle"),
		FontFamily: c.PostForm("captionFont"),
		FontSize:   c.PostForm("captionSize"),
		FontWeight: c.PostForm("captionWeight"),
		Color:      c.PostForm("captionColor"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	handedOff = true
	_, err = s.pipeline.Render(c.Request.Context(), pipeline.RenderRequest{
		VideoPath:    video.Path,
		SubtitlePath: srt.Path,
		VideoName:    video.OriginalName,
		Theme:        theme,
		Scope:        scope,
	}, s.sendVideo(c))
	if err != nil {
		s.writeError(c, err)
	}
}

// sendVideo streams the rendered file as an attachment.
func (s *Server) sendVideo(c *gin.Context) pipeline.DeliverFunc {
	return func(_ context.Context, outputPath string) error {
		file, err := os.Open(outputPath)
		if err != nil {
			return fmt.Errorf("open rendered video: %w", err)
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("stat rendered video: %w", err)
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(outputPath)))
		c.Header("Content-Type", "video/mp4")
		c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, file); err != nil {
			return fmt.Errorf("send rendered video: %w", err)
		}
		return nil
	}
}

func (s *Server) handleJobs(c *gin.Context) {
	limit := defaultJobLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(c, services.Wrap(services.ErrInvalidInput, "jobs", "list",
				fmt.Sprintf("limit must be a positive integer, got %q", raw), nil))
			return
		}
		limit = min(parsed, maxJobLimit)
	}

	resp := JobListResponse{Enabled: s.jobs != nil, Jobs: []JobEntry{}}
	if s.jobs != nil {
		entries, err := s.jobs.List(c.Request.Context(), limit)
		if err != nil {
			s.writeError(c, fmt.Errorf("list jobs: %w", err))
			return
		}
		for _, entry := range entries {
			resp.Jobs = append(resp.Jobs, FromJobEntry(entry))
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Captioner API is working",
		"endpoints": gin.H{
			"health":              "GET /health",
			"uploadAudio":         "POST /api/upload-audio",
			"uploadAudioHinglish": "POST /api/upload-audio-hinglish",
			"transcribe":          "POST /api/transcribe?variant=general|hinglish",
			"renderVideo":         "POST /api/render-video",
			"jobs":                "GET /api/jobs?limit=20",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	statuses := preflight.CheckSystemDeps(s.cfg)
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "OK",
		Message:      "Captioner server is running",
		Timestamp:    time.Now().UTC().Format(dateTimeFormat),
		Dependencies: FromDependencies(statuses),
		Features:     FromFeatures(deps.Features(statuses)),
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: true, Message: "Route not found"})
}
