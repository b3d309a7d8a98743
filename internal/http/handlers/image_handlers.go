package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

const (
	imageParamKey = "image"
	typeParamKey  = "type"

	uploadSuccessMessage = "upload successful"
	healthCheckTimeout   = 3 * time.Second
)

// Publisher runs one upload through the pipeline.
type Publisher interface {
	Process(ctx context.Context, raw models.RawUpload) (*models.UploadResult, error)
}

// HealthFunc reports the status of one backing service, "healthy" when fine.
type HealthFunc func(ctx context.Context) string

type ImageHandler struct {
	publisher Publisher
	logger    *zap.Logger
	config    *config.Config
	health    map[string]HealthFunc
}

func NewImageHandler(
	publisher Publisher,
	logger *zap.Logger,
	config *config.Config,
	health map[string]HealthFunc,
) *ImageHandler {
	if health == nil {
		health = map[string]HealthFunc{}
	}
	return &ImageHandler{
		publisher: publisher,
		logger:    logger,
		config:    config,
		health:    health,
	}
}

// Upload accepts a multipart image with a type tag and answers with the
// hosted full and thumbnail URLs.
func (h *ImageHandler) Upload(c *gin.Context) {
	raw, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.publisher.Process(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Message:  uploadSuccessMessage,
		FileName: result.FileName,
		Type:     result.TypeTag,
		FullURL:  result.FullURL,
		ThumbURL: result.ThumbURL,
		ImageID:  result.ImageID,
	})
}

// Preflight answers CORS preflight requests. Headers come from the CORS middleware.
func (h *ImageHandler) Preflight(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	services := make(map[string]string, len(h.health))
	for name, check := range h.health {
		services[name] = check(ctx)
	}
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.HealthCheck{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
	})
}

func (h *ImageHandler) MethodNotAllowed(c *gin.Context) {
	h.respondError(c, models.NewError(models.KindMethodNotAllowed, "method not allowed", nil))
}

func (h *ImageHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
}
