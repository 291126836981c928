// Package httpapi serves screenshot extraction over HTTP.
//
// POST /api/extract takes a multipart form whose "images" field holds one or
// more screenshots in chronological order and answers with the recovered
// conversation. GET /healthz reports whether text recognition works.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/logging"
	"github.com/ironsheep/chatshot/internal/ocr"
	"github.com/ironsheep/chatshot/internal/pipeline"
)

// Roles and alignments of a WhatsAppMessage. Person 1 is the uploader, whose
// messages sit on the right.
const (
	RoleSender    = "Person 1"
	RoleRecipient = "Person 2"

	AlignRight = "right"
	AlignLeft  = "left"
)

// EmptyNotice accompanies a successful response that found no messages.
const EmptyNotice = "no messages were recognized; try a clearer or higher resolution screenshot"

// WhatsAppMessage is one message in the upload response.
type WhatsAppMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Alignment string `json:"alignment"`
}

// Transcription is the data payload of a successful response.
type Transcription struct {
	ChatName string            `json:"chatName"`
	Messages []WhatsAppMessage `json:"messages"`
}

// Response is the envelope for every /api response.
type Response struct {
	Success bool           `json:"success"`
	Data    *Transcription `json:"data,omitempty"`
	Notice  string         `json:"notice,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Handler serves the upload API over a pipeline.
type Handler struct {
	pipeline    *pipeline.Pipeline
	engine      ocr.Engine
	maxUploadMB int
	logger      *zap.Logger
}

// New creates a Handler. maxUploadMB bounds the request body; values <= 0
// use 10.
func New(p *pipeline.Pipeline, engine ocr.Engine, maxUploadMB int, logger *zap.Logger) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &Handler{
		pipeline:    p,
		engine:      engine,
		maxUploadMB: maxUploadMB,
		logger:      logging.OrNop(logger),
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
	})
	h.setupRoutes(r)
	return r
}

// ListenAndServe serves Router on addr until ctx is canceled, then shuts the
// server down gracefully.
func (h *Handler) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		h.logger.Info("http server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Handler) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", h.healthHandler)
	api := r.Group("/api")
	api.POST("/extract", h.extractHandler)
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

func (h *Handler) healthHandler(c *gin.Context) {
	info := ocr.Describe(c.Request.Context(), h.engine, h.pipeline.Config().Recognition.Language)
	status := http.StatusOK
	if !info.Available {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": info.Available, "ocr": info})
}

func (h *Handler) extractHandler(c *gin.Context) {
	limit := int64(h.maxUploadMB) << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, Response{Error: fmt.Sprintf("upload exceeds %d MB", h.maxUploadMB)})
			return
		}
		c.JSON(http.StatusBadRequest, Response{Error: "expected multipart form with field \"images\""})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, Response{Error: "at least one image is required"})
		return
	}

	imgs := make([]image.Image, 0, len(files))
	for _, fh := range files {
		img, err := decodeUpload(fh)
		if err != nil {
			h.logger.Warn("undecodable upload", zap.String("file", fh.Filename), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, Response{Error: fmt.Sprintf("%s: %v", fh.Filename, err)})
			return
		}
		imgs = append(imgs, img)
	}

	t, err := h.pipeline.Transcribe(c.Request.Context(), imgs...)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyImage) {
			c.JSON(http.StatusUnprocessableEntity, Response{Error: err.Error()})
			return
		}
		h.logger.Error("extraction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}

	resp := Response{Success: true, Data: toTranscription(t)}
	if len(resp.Data.Messages) == 0 {
		resp.Notice = EmptyNotice
	}
	c.JSON(http.StatusOK, resp)
}

func decodeUpload(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.Decode(f)
}

// toTranscription converts pipeline output to the response shape.
func toTranscription(t *pipeline.Transcript) *Transcription {
	out := &Transcription{ChatName: t.ChatName, Messages: make([]WhatsAppMessage, 0, len(t.Messages))}
	for _, m := range t.Messages {
		wm := WhatsAppMessage{Role: RoleSender, Content: m.Body, Alignment: AlignRight}
		if m.IsReceiver {
			wm.Role, wm.Alignment = RoleRecipient, AlignLeft
		}
		if m.Time != nil {
			wm.Timestamp = m.Time.Format("15:04")
		}
		out.Messages = append(out.Messages, wm)
	}
	return out
}
