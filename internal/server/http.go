package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/auth"
	"github.com/digitora/marketplace-backend/internal/auth/middleware"
	"github.com/digitora/marketplace-backend/internal/conf"
	convservice "github.com/digitora/marketplace-backend/internal/conversion/service"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	"github.com/digitora/marketplace-backend/internal/pkg/redis"
	prodservice "github.com/digitora/marketplace-backend/internal/product/service"
	userservice "github.com/digitora/marketplace-backend/internal/user/service"
)

type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
}

// Services groups the HTTP handlers the server exposes.
type Services struct {
	User       *userservice.UserService
	Product    *prodservice.ProductService
	Conversion *convservice.ConversionService
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	jwtManager *auth.JWTManager,
	redisClient *redis.Client,
	services *Services,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log.Logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	registerRoutes(api, config, log, jwtManager, redisClient, services)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log.Logger,
	}
}

func registerRoutes(
	api *gin.RouterGroup,
	config *conf.Config,
	log *logger.Logger,
	jwtManager *auth.JWTManager,
	redisClient *redis.Client,
	services *Services,
) {
	authRequired := middleware.JWTAuth(jwtManager, log)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", services.User.Register)
		authGroup.POST("/login", middleware.LoginRateLimiter(redisClient, log), services.User.Login)
	}

	// Users
	api.GET("/users/me", authRequired, services.User.Me)
	api.GET("/users/:id", services.User.Get)

	// Products
	products := api.Group("/products")
	{
		products.GET("", services.Product.ListProducts)
		products.GET("/featured", services.Product.ListFeatured)
		products.GET("/mine", authRequired, services.Product.ListMine)
		products.GET("/:id", services.Product.GetProduct)
		products.POST("", authRequired, services.Product.UploadProduct)
		products.DELETE("/:id", authRequired, services.Product.DeleteProduct)
		products.GET("/:id/stream", authRequired, services.Product.StreamProduct)
		products.GET("/:id/download", authRequired, services.Product.DownloadVersion)

		// Conversion burns AI calls; the quota limiter sits in front.
		quota := middleware.ConversionQuotaLimiter(redisClient, config.Quota.Limit, config.Quota.Window, log)
		products.POST("/:id/convert", authRequired, quota, services.Conversion.Convert)
	}

	// History
	api.GET("/downloads", authRequired, services.Product.ListDownloads)
	api.GET("/usage", authRequired, services.Conversion.ListUsage)
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
