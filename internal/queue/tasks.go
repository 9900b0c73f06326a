package queue

import (
	"encoding/json"

	"github.com/dispatch-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskShipmentSync upstream sync task
	TaskShipmentSync = constants.TaskShipmentSync
	// TaskShipmentCallback outbound callback dispatch task
	TaskShipmentCallback = constants.TaskShipmentCallback
)

// ShipmentSyncPayload sync task payload
type ShipmentSyncPayload struct {
	ShipmentID uint `json:"shipment_id"`
	EventID    uint `json:"event_id"`
}

// ShipmentCallbackPayload callback dispatch task payload
type ShipmentCallbackPayload struct {
	ShipmentID uint   `json:"shipment_id"`
	Event      string `json:"event"`
}

// NewShipmentSyncTask creates a sync task
func NewShipmentSyncTask(payload ShipmentSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentSync, body), nil
}

// NewShipmentCallbackTask creates a callback dispatch task
func NewShipmentCallbackTask(payload ShipmentCallbackPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentCallback, body), nil
}
