package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/config"
	"github.com/jengzang/location-bridge-go/internal/handler"
	"github.com/jengzang/location-bridge-go/internal/middleware"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/internal/stream"
)

// Services bundles everything the router exposes
type Services struct {
	Location  *service.LocationService
	Tasks     *service.TaskService
	Simulator *service.SimulatorService
	Hub       *stream.Hub
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Location bridge is running",
		})
	})

	locationHandler := handler.NewLocationHandler(svc.Location)
	geocodingHandler := handler.NewGeocodingHandler(svc.Location)
	taskHandler := handler.NewTaskHandler(svc.Tasks)
	simulatorHandler := handler.NewSimulatorHandler(svc.Simulator)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	if cfg.RateLimitRPS > 0 {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)))
	}
	{
		// 定位接口
		loc := api.Group("/location")
		{
			loc.POST("/current", locationHandler.GetCurrentPosition)
			loc.GET("/watches", locationHandler.ListWatches)
			loc.POST("/watches/:id", locationHandler.WatchPosition)
			loc.DELETE("/watches/:id", locationHandler.RemoveWatch)
			loc.POST("/heading/:id", locationHandler.WatchHeading)
			loc.GET("/provider-status", locationHandler.GetProviderStatus)
			loc.GET("/services-enabled", locationHandler.HasServicesEnabled)
			loc.POST("/permissions", locationHandler.RequestPermissions)
			loc.POST("/accuracy", locationHandler.EnableBetterAccuracy)
		}

		// 地理编码接口
		geo := api.Group("/geocoding")
		{
			geo.POST("/forward", geocodingHandler.Forward)
			geo.POST("/reverse", geocodingHandler.Reverse)
		}

		// 后台任务接口
		tasks := api.Group("/tasks")
		{
			tasks.POST("/location/:name", taskHandler.StartLocationUpdates)
			tasks.DELETE("/location/:name", taskHandler.StopLocationUpdates)
			tasks.GET("/location/:name", taskHandler.HasStartedLocationUpdates)
			tasks.POST("/geofencing/:name", taskHandler.StartGeofencing)
			tasks.DELETE("/geofencing/:name", taskHandler.StopGeofencing)
			tasks.GET("/geofencing/:name", taskHandler.HasStartedGeofencing)
		}

		api.POST("/lifecycle/:state", locationHandler.Lifecycle)
		api.GET("/events", stream.Handler(svc.Hub))

		// 模拟设备接口
		sim := api.Group("/simulator")
		{
			sim.POST("/fixes", simulatorHandler.InjectFix)
			sim.GET("/fixes", simulatorHandler.GetFixes)
			sim.POST("/sensors", simulatorHandler.InjectSensors)
			sim.POST("/availability", simulatorHandler.SetAvailability)
		}
	}

	return r
}
