package provider

import (
	"github.com/dispatch-next/internal/authz"
	"github.com/dispatch-next/internal/cache"
	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/geocode"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/pops"
	"github.com/dispatch-next/internal/queue"
	"github.com/dispatch-next/internal/repository"
	"github.com/dispatch-next/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	POPSClient  *pops.Client
	Geocoder    *geocode.Client

	// Repositories
	ShipmentRepo repository.ShipmentRepository
	EventRepo    repository.OrderEventRepository
	SessionRepo  repository.RouteSessionRepository
	TrackingRepo repository.RouteTrackingRepository

	// Services
	AuthzService    *authz.Service
	CallbackService *service.CallbackService
	StatusEngine    *service.StatusEngine
	ShipmentService *service.ShipmentService
	TrackingService *service.TrackingService
	WebhookService  *service.WebhookService
	RouteService    *service.RouteService
}

// NewContainer initializes the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		POPSClient:  pops.NewClient(&cfg.POPS),
		Geocoder:    geocode.NewClient(&cfg.Geocode),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.EventRepo = repository.NewOrderEventRepository(db)
	c.SessionRepo = repository.NewRouteSessionRepository(db)
	c.TrackingRepo = repository.NewRouteTrackingRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CallbackService = service.NewCallbackService(c.Config.Callbacks)
	c.StatusEngine = service.NewStatusEngine(c.ShipmentRepo, c.EventRepo, c.POPSClient, c.QueueClient, c.CallbackService)
	c.ShipmentService = service.NewShipmentService(c.ShipmentRepo, c.EventRepo, c.StatusEngine, c.Geocoder)
	c.TrackingService = service.NewTrackingService(c.SessionRepo, c.TrackingRepo, c.ShipmentService,
		c.Config.Tracking.LocationCacheTTLSeconds, c.Config.Tracking.MaxBatchPoints)
	c.WebhookService = service.NewWebhookService(c.ShipmentRepo, c.ShipmentService)
	c.RouteService = service.NewRouteService(c.ShipmentRepo, c.TrackingService)
}
