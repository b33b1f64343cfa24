package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dwell-backend-go/internal/config"
	"github.com/jengzang/dwell-backend-go/internal/handler"
	"github.com/jengzang/dwell-backend-go/internal/middleware"
)

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Location    handler.LocationService
	Zones       handler.ZoneService
	Drafts      handler.DraftStore
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
	Logger      *slog.Logger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Dwell API is running",
		})
	})

	locationHandler := handler.NewLocationHandler(deps.Location)
	zoneHandler := handler.NewZoneHandler(deps.Zones)
	draftHandler := handler.NewDraftHandler(deps.Drafts)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(deps.RateLimiter), middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	{
		location := api.Group("/location")
		{
			location.POST("/samples", locationHandler.RecordSample)
			location.GET("/status", locationHandler.GetStatus)
			location.GET("/history", locationHandler.GetHistory)
			location.GET("/share", locationHandler.GetShare)
			location.GET("/stats", locationHandler.GetStats)
			location.GET("/context", locationHandler.GetContext)
		}

		zones := api.Group("/zones")
		{
			zones.GET("", zoneHandler.ListZones)
			zones.POST("", zoneHandler.CreateZone)
			zones.GET("/closest", zoneHandler.GetClosest)
			zones.DELETE("/:name", zoneHandler.DeleteZone)
		}

		drafts := api.Group("/conversations/:id/zone-draft")
		{
			drafts.POST("", draftHandler.Start)
			drafts.GET("", draftHandler.Get)
			drafts.PATCH("", draftHandler.Update)
			drafts.DELETE("", draftHandler.Cancel)
			drafts.POST("/commit", draftHandler.Commit)
		}
	}

	return r
}
