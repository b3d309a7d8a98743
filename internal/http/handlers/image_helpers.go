package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-publisher/internal/http/middleware"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for the non-file fields and part headers.
const multipartOverhead = 1 << 20

// === REQUEST PARSING ===

func (h *ImageHandler) readUpload(c *gin.Context) (models.RawUpload, error) {
	maxSize := h.config.Storage.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	if err := c.Request.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.RawUpload{}, models.NewError(models.KindInput, "image too large", err)
		}
		return models.RawUpload{}, models.NewError(models.KindInput, "invalid multipart form", err)
	}

	raw := models.RawUpload{TypeTag: c.PostForm(typeParamKey)}

	file, header, err := c.Request.FormFile(imageParamKey)
	if errors.Is(err, http.ErrMissingFile) {
		return raw, nil
	}
	if err != nil {
		return raw, models.NewError(models.KindInput, "invalid image field", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return raw, models.NewError(models.KindInput, "failed to read image", err)
	}

	raw.Image = data
	raw.HasImage = true
	raw.FileName = header.Filename
	raw.DeclaredMIME = header.Header.Get("Content-Type")
	if len(data) > 0 {
		raw.SniffedMIME = mimetype.Detect(data).String()
	}
	return raw, nil
}

// === RESPONSES ===

func (h *ImageHandler) respondError(c *gin.Context, err error) {
	appErr := models.AsError(err)
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		h.logger.Error("Upload failed",
			zap.String("kind", string(appErr.Kind)),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
	} else {
		h.logger.Debug("Upload rejected",
			zap.String("kind", string(appErr.Kind)),
			zap.String("detail", appErr.Detail))
	}

	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: appErr.Error()})
}

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
