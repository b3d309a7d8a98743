package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/http/handlers"
	"github.com/phambaophuc/image-publisher/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler *handlers.ImageHandler
	server       config.ServerConfig
	logger       *zap.Logger
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	server config.ServerConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		imageHandler: imageHandler,
		server:       server,
		logger:       logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.server.AllowOrigins, r.server.UploadMethod))
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", r.imageHandler.HealthCheck)

	upload := []gin.HandlerFunc{middleware.ValidateContentType(), r.imageHandler.Upload}
	if r.server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(r.server.RateLimitRPS, r.server.RateLimitBurst)
		upload = append([]gin.HandlerFunc{middleware.IPRateLimit(limiter)}, upload...)
	}

	router.OPTIONS("/", r.imageHandler.Preflight)
	router.Handle(r.server.UploadMethod, "/", upload...)

	router.NoMethod(r.imageHandler.MethodNotAllowed)
	router.NoRoute(r.imageHandler.NotFound)

	return router
}

