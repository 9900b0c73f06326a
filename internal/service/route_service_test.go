package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/geocode"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/pops"
	"github.com/dispatch-next/internal/queue"
	"github.com/dispatch-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRouteServiceTest(t *testing.T) (*RouteService, *TrackingService, *ShipmentService) {
	t.Helper()
	dsn := fmt.Sprintf("file:route_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shipment{},
		&models.OrderEvent{},
		&models.RouteSession{},
		&models.RouteTracking{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	shipmentRepo := repository.NewShipmentRepository(db)
	eventRepo := repository.NewOrderEventRepository(db)
	sessionRepo := repository.NewRouteSessionRepository(db)
	trackingRepo := repository.NewRouteTrackingRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	engine := NewStatusEngine(shipmentRepo, eventRepo, pops.NewClient(nil), queueClient, NewCallbackService(nil))
	shipments := NewShipmentService(shipmentRepo, eventRepo, engine, geocode.NewClient(nil))
	tracking := NewTrackingService(sessionRepo, trackingRepo, shipments, 300, 100)
	return NewRouteService(shipmentRepo, tracking), tracking, shipments
}

func createStop(t *testing.T, shipments *ShipmentService, name string, lat, lon *float64) *models.Shipment {
	t.Helper()
	shipment, err := shipments.Create(context.Background(), CreateShipmentInput{
		Type:         constants.ShipmentTypeDelivery,
		RiderID:      "R-1",
		CustomerName: name,
		Latitude:     lat,
		Longitude:    lon,
	})
	if err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	return shipment
}

func TestOptimizeRouteNearestFirst(t *testing.T) {
	route, tracking, shipments := setupRouteServiceTest(t)
	ctx := context.Background()

	if _, err := tracking.StartSession(ctx, "R-1", 12.9716, 77.5946); err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	farLat, farLon := 13.0500, 77.7000
	nearLat, nearLon := 12.9900, 77.6000
	far := createStop(t, shipments, "Far Stop", &farLat, &farLon)
	near := createStop(t, shipments, "Near Stop", &nearLat, &nearLon)
	nowhere := createStop(t, shipments, "No Coords", nil, nil)

	result, err := route.OptimizeRoute(ctx, "R-1", []uint{far.ID, near.ID, nowhere.ID})
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if len(result.Ordered) != 2 {
		t.Fatalf("expected two ordered stops, got %d", len(result.Ordered))
	}
	if result.Ordered[0].ID != near.ID || result.Ordered[1].ID != far.ID {
		t.Fatalf("expected nearest-first ordering, got %d then %d", result.Ordered[0].ID, result.Ordered[1].ID)
	}
	if len(result.Unlocated) != 1 || result.Unlocated[0].ID != nowhere.ID {
		t.Fatalf("coordinate-less stop must land in unlocated: %+v", result.Unlocated)
	}
	if result.TotalKM <= 0 {
		t.Fatalf("expected positive path distance, got %f", result.TotalKM)
	}
	if result.StartLat != 12.9716 || result.StartLon != 77.5946 {
		t.Fatalf("unexpected start position: %f,%f", result.StartLat, result.StartLon)
	}
}

func TestOptimizeRouteDuplicateCoordinates(t *testing.T) {
	route, tracking, shipments := setupRouteServiceTest(t)
	ctx := context.Background()

	if _, err := tracking.StartSession(ctx, "R-1", 12.9716, 77.5946); err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	lat, lon := 12.9900, 77.6000
	first := createStop(t, shipments, "Tower A", &lat, &lon)
	second := createStop(t, shipments, "Tower B", &lat, &lon)

	result, err := route.OptimizeRoute(ctx, "R-1", []uint{first.ID, second.ID})
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if len(result.Ordered) != 2 {
		t.Fatalf("expected both stops ordered, got %d", len(result.Ordered))
	}
	if result.Ordered[0].ID == result.Ordered[1].ID {
		t.Fatalf("same shipment placed twice: %+v", result.Ordered)
	}
}

func TestOptimizeRouteWithoutRiderLocation(t *testing.T) {
	route, _, shipments := setupRouteServiceTest(t)
	ctx := context.Background()

	lat, lon := 12.9900, 77.6000
	stop := createStop(t, shipments, "Lone Stop", &lat, &lon)

	if _, err := route.OptimizeRoute(ctx, "R-1", []uint{stop.ID}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected no-location rejection, got: %v", err)
	}
}

func TestOptimizeRouteRejectsEmptyInput(t *testing.T) {
	route, _, _ := setupRouteServiceTest(t)

	if _, err := route.OptimizeRoute(context.Background(), "R-1", nil); !errors.Is(err, ErrShipmentInvalid) {
		t.Fatalf("expected invalid input rejection, got: %v", err)
	}
	if _, err := route.OptimizeRoute(context.Background(), "", []uint{1}); !errors.Is(err, ErrShipmentInvalid) {
		t.Fatalf("expected invalid input rejection, got: %v", err)
	}
}
