package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/pops"
	"github.com/dispatch-next/internal/queue"
	"github.com/dispatch-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStatusEngineTest(t *testing.T, popsBaseURL, popsToken string) (*StatusEngine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:status_engine_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	popsClient := pops.NewClient(&config.POPSConfig{
		BaseURL:        popsBaseURL,
		AccessToken:    popsToken,
		TimeoutSeconds: 2,
	})
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	callbacks := NewCallbackService(nil)
	return NewStatusEngine(shipmentRepo, eventRepo, popsClient, queueClient, callbacks), db
}

func createEngineTestShipment(t *testing.T, db *gorm.DB, popsOrderID *int64) *models.Shipment {
	t.Helper()
	shipment := &models.Shipment{
		POPSOrderID:  popsOrderID,
		ExternalUUID: fmt.Sprintf("uuid-%d", time.Now().UnixNano()),
		Type:         constants.ShipmentTypeDelivery,
		Status:       constants.ShipmentStatusAssigned,
		RiderID:      "R-1",
		SyncStatus:   constants.SyncStatusPending,
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	return shipment
}

func TestUpdateStatusCreatesSingleEvent(t *testing.T) {
	engine, db := setupStatusEngineTest(t, "", "")
	shipment := createEngineTestShipment(t, db, nil)

	updated, err := engine.UpdateStatus(context.Background(), UpdateStatusInput{
		ShipmentID:  shipment.ID,
		NewStatus:   constants.ShipmentStatusInTransit,
		TriggeredBy: "R-1",
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != constants.ShipmentStatusInTransit {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	var events []models.OrderEvent
	if err := db.Where("shipment_id = ?", shipment.ID).Find(&events).Error; err != nil {
		t.Fatalf("load events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	event := events[0]
	if event.EventType != constants.EventTypeStatusChange {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.OldStatus == nil || *event.OldStatus != constants.ShipmentStatusAssigned {
		t.Fatalf("old status not recorded: %v", event.OldStatus)
	}
	if event.NewStatus == nil || *event.NewStatus != constants.ShipmentStatusInTransit {
		t.Fatalf("new status not recorded: %v", event.NewStatus)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	engine, _ := setupStatusEngineTest(t, "", "")
	_, err := engine.UpdateStatus(context.Background(), UpdateStatusInput{
		ShipmentID: 9999,
		NewStatus:  constants.ShipmentStatusInTransit,
	})
	if !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestSyncShipmentSkipsWithoutOrderID(t *testing.T) {
	engine, db := setupStatusEngineTest(t, "http://localhost:1", "token")
	shipment := createEngineTestShipment(t, db, nil)

	engine.SyncShipment(context.Background(), shipment.ID, 0)

	var reloaded models.Shipment
	if err := db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SyncStatus != constants.SyncStatusPending || reloaded.SyncAttempts != 0 {
		t.Fatalf("shipment without order id must stay untouched: %+v", reloaded)
	}
}

func TestSyncShipmentSuccess(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	engine, db := setupStatusEngineTest(t, server.URL, "token")
	orderID := int64(77)
	shipment := createEngineTestShipment(t, db, &orderID)
	shipment.SyncAttempts = 3
	if err := db.Save(shipment).Error; err != nil {
		t.Fatalf("seed attempts failed: %v", err)
	}
	event := &models.OrderEvent{ShipmentID: shipment.ID, EventType: constants.EventTypeStatusChange}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("seed event failed: %v", err)
	}

	engine.SyncShipment(context.Background(), shipment.ID, event.ID)

	if gotPath != "/api/orders/77" {
		t.Fatalf("unexpected sync path: %s", gotPath)
	}
	var reloaded models.Shipment
	if err := db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.SyncedToPOPS || reloaded.SyncStatus != constants.SyncStatusSynced {
		t.Fatalf("sync success not recorded: %+v", reloaded)
	}
	if reloaded.SyncAttempts != 0 {
		t.Fatalf("attempt counter not reset: %d", reloaded.SyncAttempts)
	}
	if reloaded.LastSyncedAt == nil || reloaded.LastSyncAttemptAt == nil {
		t.Fatalf("sync timestamps not stamped")
	}
	var reloadedEvent models.OrderEvent
	if err := db.First(&reloadedEvent, event.ID).Error; err != nil {
		t.Fatalf("reload event failed: %v", err)
	}
	if !reloadedEvent.SyncedToPOPS {
		t.Fatalf("event not marked synced")
	}
}

func TestSyncShipmentFailureRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	engine, db := setupStatusEngineTest(t, server.URL, "token")
	orderID := int64(88)
	shipment := createEngineTestShipment(t, db, &orderID)

	engine.SyncShipment(context.Background(), shipment.ID, 0)

	var reloaded models.Shipment
	if err := db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SyncStatus != constants.SyncStatusFailed {
		t.Fatalf("failure not recorded: %s", reloaded.SyncStatus)
	}
	if reloaded.SyncAttempts != 1 {
		t.Fatalf("attempt counter not incremented: %d", reloaded.SyncAttempts)
	}
	if reloaded.SyncError == "" {
		t.Fatalf("sync error not recorded")
	}
	if reloaded.SyncedToPOPS {
		t.Fatalf("synced flag must stay false")
	}
}

func TestSyncShipmentMissingTokenIsHardFailure(t *testing.T) {
	engine, db := setupStatusEngineTest(t, "http://localhost:1", "")
	orderID := int64(99)
	shipment := createEngineTestShipment(t, db, &orderID)

	engine.SyncShipment(context.Background(), shipment.ID, 0)

	var reloaded models.Shipment
	if err := db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SyncStatus != constants.SyncStatusFailed || reloaded.SyncError == "" {
		t.Fatalf("missing credential must be recorded as sync failure: %+v", reloaded)
	}
}
