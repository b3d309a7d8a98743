package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-publisher/internal/models"
)

// ValidateContentType rejects upload requests that are not multipart forms.
func ValidateContentType() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.Contains(strings.ToLower(contentType), "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "missing image file: expected a multipart/form-data body with an 'image' field",
			})
			return
		}

		ctx.Next()
	}
}
