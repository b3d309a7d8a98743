package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS sets cross-origin headers for the single upload method. An entry of
// "*" allows any origin.
func CORS(allowedOrigins []string, method string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	allowMethods := method + ", OPTIONS"

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		switch {
		case allowAll:
			ctx.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := allowed[origin]; ok {
				ctx.Header("Access-Control-Allow-Origin", origin)
				ctx.Header("Vary", "Origin")
			}
		}
		ctx.Header("Access-Control-Allow-Methods", allowMethods)
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		ctx.Next()
	}
}
