package router

import (
	"fmt"
	"strings"

	"github.com/dispatch-next/internal/cache"
	"github.com/dispatch-next/internal/config"
	opshandlers "github.com/dispatch-next/internal/http/handlers/ops"
	riderhandlers "github.com/dispatch-next/internal/http/handlers/rider"
	webhookhandlers "github.com/dispatch-next/internal/http/handlers/webhook"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes routes
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	riderHandler := riderhandlers.New(c)
	opsHandler := opshandlers.New(c)
	webhookHandler := webhookhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "dn"
	}
	redisClient := cache.Client()
	trackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:track", redisPrefix),
		WindowSeconds: cfg.Security.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RateLimit.MaxRequests,
		Message:       "gps ping limit reached",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RateLimit.MaxRequests,
		Message:       "webhook limit reached",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Inbound POPS notifications. No bearer auth; POPS signs nothing,
		// so these endpoints are rate limited and idempotent instead.
		webhooks := apiV1.Group("/webhooks/pops")
		webhooks.Use(RateLimitMiddleware(redisClient, webhookRule, KeyByIP))
		{
			webhooks.POST("/order-assigned", webhookHandler.OrderAssigned)
			webhooks.POST("/status-update", webhookHandler.StatusUpdate)
		}

		// Courier-facing endpoints
		rider := apiV1.Group("/rider")
		rider.Use(JWTAuthMiddleware(cfg.JWT.SecretKey), RBACMiddleware(c.AuthzService))
		{
			rider.POST("/sessions", riderHandler.StartSession)
			rider.GET("/sessions/:id", riderHandler.GetSession)
			rider.POST("/sessions/:id/stop", riderHandler.StopSession)
			rider.POST("/sessions/:id/pause", riderHandler.PauseSession)
			rider.POST("/track", RateLimitMiddleware(redisClient, trackRule, KeyByUser), riderHandler.TrackLocation)
			rider.POST("/track/batch", RateLimitMiddleware(redisClient, trackRule, KeyByUser), riderHandler.TrackBatch)
			rider.GET("/location", riderHandler.CurrentLocation)
			rider.POST("/shipments/events", riderHandler.RecordShipmentEvent)
			rider.POST("/shipments/events/bulk", riderHandler.RecordShipmentEventsBulk)
			rider.POST("/route/optimize", riderHandler.OptimizeRoute)
		}

		// Dispatcher/manager endpoints
		ops := apiV1.Group("/ops")
		ops.Use(JWTAuthMiddleware(cfg.JWT.SecretKey), RBACMiddleware(c.AuthzService))
		{
			ops.POST("/shipments", opsHandler.CreateShipment)
			ops.GET("/shipments", opsHandler.ListShipments)
			ops.GET("/shipments/:id", opsHandler.GetShipment)
			ops.DELETE("/shipments/:id", opsHandler.DeleteShipment)
			ops.GET("/shipments/:id/events", opsHandler.ListShipmentEvents)
			ops.POST("/shipments/:id/status", opsHandler.ChangeStatus)
			ops.POST("/shipments/status/batch", opsHandler.BatchChangeStatus)
			ops.POST("/shipments/:id/reassign", opsHandler.ReassignRider)
			ops.POST("/shipments/reassign/batch", opsHandler.BatchReassignRider)
			ops.POST("/shipments/:id/sync", opsHandler.TriggerSync)
			ops.GET("/sessions", opsHandler.ListSessions)
			ops.GET("/sessions/:id", opsHandler.GetSession)
			ops.POST("/sessions/:id/stop", opsHandler.StopSession)
			ops.POST("/sessions/:id/pause", opsHandler.PauseSession)
			ops.GET("/riders/active", opsHandler.ListActiveRiders)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
