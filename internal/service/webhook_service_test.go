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

func setupWebhookServiceTest(t *testing.T) (*WebhookService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:webhook_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shipment{},
		&models.OrderEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	shipmentRepo := repository.NewShipmentRepository(db)
	eventRepo := repository.NewOrderEventRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	engine := NewStatusEngine(shipmentRepo, eventRepo, pops.NewClient(nil), queueClient, NewCallbackService(nil))
	shipments := NewShipmentService(shipmentRepo, eventRepo, engine, geocode.NewClient(nil))
	return NewWebhookService(shipmentRepo, shipments), db
}

func TestHandleOrderAssignedIdempotent(t *testing.T) {
	svc, _ := setupWebhookServiceTest(t)
	ctx := context.Background()

	payload := OrderAssignedPayload{
		Event:   constants.POPSEventOrderAssigned,
		RiderID: "R-1",
		Order: WebhookOrder{
			ID:           501,
			Type:         constants.ShipmentTypeDelivery,
			CustomerName: "Test Customer",
			Address:      "12 MG Road",
			Cost:         249.50,
		},
	}

	first, err := svc.HandleOrderAssigned(ctx, payload)
	if err != nil {
		t.Fatalf("first webhook failed: %v", err)
	}
	if !first.Created || first.Shipment == nil {
		t.Fatalf("expected creation: %+v", first)
	}
	if first.Shipment.POPSOrderID == nil || *first.Shipment.POPSOrderID != 501 {
		t.Fatalf("pops order id not stored: %+v", first.Shipment)
	}
	if first.Shipment.APISource != constants.APISourcePOPS {
		t.Fatalf("origin tag not set: %s", first.Shipment.APISource)
	}
	if first.Shipment.Status != constants.ShipmentStatusAssigned {
		t.Fatalf("rider-assigned webhook should start Assigned: %s", first.Shipment.Status)
	}

	second, err := svc.HandleOrderAssigned(ctx, payload)
	if err != nil {
		t.Fatalf("replay webhook failed: %v", err)
	}
	if second.Created {
		t.Fatalf("replay must not create a duplicate")
	}
	if second.Shipment.ID != first.Shipment.ID {
		t.Fatalf("replay must return the existing shipment")
	}
}

func TestHandleOrderAssignedIgnoresOtherEvents(t *testing.T) {
	svc, _ := setupWebhookServiceTest(t)

	result, err := svc.HandleOrderAssigned(context.Background(), OrderAssignedPayload{
		Event: "order_cancelled",
		Order: WebhookOrder{ID: 502},
	})
	if err != nil {
		t.Fatalf("other events must be acknowledged, got: %v", err)
	}
	if !result.Ignored {
		t.Fatalf("expected ignored result: %+v", result)
	}
}

func TestHandleOrderAssignedRejectsMissingOrderID(t *testing.T) {
	svc, _ := setupWebhookServiceTest(t)

	_, err := svc.HandleOrderAssigned(context.Background(), OrderAssignedPayload{
		Event: constants.POPSEventOrderAssigned,
	})
	if !errors.Is(err, ErrWebhookInvalid) {
		t.Fatalf("expected invalid payload rejection, got: %v", err)
	}
}

func TestHandleStatusUpdate(t *testing.T) {
	svc, db := setupWebhookServiceTest(t)
	ctx := context.Background()

	orderID := int64(601)
	shipment := &models.Shipment{
		POPSOrderID: &orderID,
		Type:        constants.ShipmentTypeDelivery,
		Status:      constants.ShipmentStatusAssigned,
		SyncStatus:  constants.SyncStatusPending,
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("seed shipment failed: %v", err)
	}

	updated, err := svc.HandleStatusUpdate(ctx, StatusUpdateInput{POPSOrderID: orderID, Status: "IN_TRANSIT"})
	if err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if updated.Status != constants.ShipmentStatusInTransit {
		t.Fatalf("external vocabulary not mapped: %s", updated.Status)
	}

	if _, err := svc.HandleStatusUpdate(ctx, StatusUpdateInput{POPSOrderID: orderID, Status: "NO_SUCH_STATUS"}); !errors.Is(err, ErrStatusUnknown) {
		t.Fatalf("expected unknown status rejection, got: %v", err)
	}
	if _, err := svc.HandleStatusUpdate(ctx, StatusUpdateInput{POPSOrderID: 999999, Status: "DELIVERED"}); !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
	if _, err := svc.HandleStatusUpdate(ctx, StatusUpdateInput{Status: "DELIVERED"}); !errors.Is(err, ErrWebhookInvalid) {
		t.Fatalf("expected rejection without any id, got: %v", err)
	}
}

func TestHandleStatusUpdateByShipmentID(t *testing.T) {
	svc, db := setupWebhookServiceTest(t)
	ctx := context.Background()

	// no upstream order id on this row; only the explicit id can reach it
	shipment := &models.Shipment{
		Type:       constants.ShipmentTypeDelivery,
		Status:     constants.ShipmentStatusAssigned,
		SyncStatus: constants.SyncStatusPending,
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("seed shipment failed: %v", err)
	}

	updated, err := svc.HandleStatusUpdate(ctx, StatusUpdateInput{ShipmentID: shipment.ID, Status: "COLLECTED"})
	if err != nil {
		t.Fatalf("status update by shipment id failed: %v", err)
	}
	if updated.Status != constants.ShipmentStatusCollected {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	// an explicit id wins over a stale order id
	orderID := int64(777)
	other := &models.Shipment{
		POPSOrderID: &orderID,
		Type:        constants.ShipmentTypeDelivery,
		Status:      constants.ShipmentStatusAssigned,
		SyncStatus:  constants.SyncStatusPending,
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed shipment failed: %v", err)
	}
	updated, err = svc.HandleStatusUpdate(ctx, StatusUpdateInput{ShipmentID: shipment.ID, POPSOrderID: orderID, Status: "IN_TRANSIT"})
	if err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if updated.ID != shipment.ID {
		t.Fatalf("explicit shipment id must win, got shipment %d", updated.ID)
	}
}
