package main

import (
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"

	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	orderID := int64(9001)
	lat1, lon1 := 12.9716, 77.5946
	lat2, lon2 := 12.9352, 77.6245

	shipments := []models.Shipment{
		{
			POPSOrderID:  &orderID,
			ExternalUUID: uuid.NewString(),
			Type:         constants.ShipmentTypeDelivery,
			Status:       constants.ShipmentStatusAssigned,
			RiderID:      "rider-demo-1",
			APISource:    constants.APISourcePOPS,
			CustomerName: "Asha Nair",
			Address:      "221 MG Road, Bengaluru",
			City:         "Bengaluru",
			Latitude:     &lat1,
			Longitude:    &lon1,
			Cost:         models.NewMoneyFromFloat(349.00),
			WeightKG:     1.2,
			SyncStatus:   constants.SyncStatusPending,
		},
		{
			ExternalUUID: uuid.NewString(),
			Type:         constants.ShipmentTypePickup,
			Status:       constants.ShipmentStatusInitiated,
			APISource:    "storefront",
			CustomerName: "Ravi Shah",
			Address:      "14 Koramangala 5th Block, Bengaluru",
			City:         "Bengaluru",
			Latitude:     &lat2,
			Longitude:    &lon2,
			Cost:         models.NewMoneyFromFloat(0),
			WeightKG:     3.5,
			SyncStatus:   constants.SyncStatusPending,
		},
	}

	for i := range shipments {
		shipment := &shipments[i]
		var existing models.Shipment
		if err := models.DB.Where("customer_name = ? AND address = ?", shipment.CustomerName, shipment.Address).
			First(&existing).Error; err == nil {
			stdLog.Printf("Shipment already exists: %s", shipment.CustomerName)
			continue
		}
		if err := models.DB.Create(shipment).Error; err != nil {
			stdLog.Printf("Failed to create shipment for %s: %v", shipment.CustomerName, err)
			continue
		}
		status := shipment.Status
		event := models.OrderEvent{
			ShipmentID:  shipment.ID,
			EventType:   constants.EventTypeStatusChange,
			NewStatus:   &status,
			TriggeredBy: "seed",
		}
		if err := models.DB.Create(&event).Error; err != nil {
			stdLog.Printf("Failed to create seed event: %v", err)
		}
		stdLog.Printf("Created shipment #%d for %s", shipment.ID, shipment.CustomerName)
	}

	now := time.Now()
	session := models.RouteSession{
		ID:        "RS-seed-rider-demo-1",
		RiderID:   "rider-demo-1",
		Status:    constants.SessionStatusActive,
		StartTime: now.Add(-30 * time.Minute),
		StartLat:  &lat1,
		StartLon:  &lon1,
	}
	var existingSession models.RouteSession
	if err := models.DB.Where("id = ?", session.ID).First(&existingSession).Error; err == nil {
		stdLog.Printf("Route session already exists: %s", session.ID)
		return
	}
	if err := models.DB.Create(&session).Error; err != nil {
		stdLog.Printf("Failed to create route session: %v", err)
		return
	}
	points := []models.RouteTracking{
		{SessionID: session.ID, RiderID: session.RiderID, Latitude: lat1, Longitude: lon1, EventType: constants.TrackingEventGPS, Timestamp: now.Add(-25 * time.Minute)},
		{SessionID: session.ID, RiderID: session.RiderID, Latitude: 12.9563, Longitude: 77.6011, EventType: constants.TrackingEventGPS, Timestamp: now.Add(-15 * time.Minute)},
		{SessionID: session.ID, RiderID: session.RiderID, Latitude: lat2, Longitude: lon2, EventType: constants.TrackingEventGPS, Timestamp: now.Add(-5 * time.Minute)},
	}
	if err := models.DB.Create(&points).Error; err != nil {
		stdLog.Printf("Failed to create tracking points: %v", err)
		return
	}
	stdLog.Printf("Created route session %s with %d points", session.ID, len(points))
}
