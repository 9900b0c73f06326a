package worker

import (
	"context"
	"encoding/json"

	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/provider"
	"github.com/dispatch-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer asynchronous task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register registers task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskShipmentSync, c.handleShipmentSync)
	mux.HandleFunc(queue.TaskShipmentCallback, c.handleShipmentCallback)
}

func (c *Consumer) handleShipmentSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipment_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.ShipmentID == 0 {
		logger.Debugw("worker_shipment_sync_skip_invalid_payload", "shipment_id", payload.ShipmentID)
		return nil
	}
	shipment, err := c.ShipmentRepo.GetByID(payload.ShipmentID)
	if err != nil {
		logger.Warnw("worker_shipment_sync_fetch_failed", "shipment_id", payload.ShipmentID, "error", err)
		return err
	}
	if shipment == nil {
		logger.Debugw("worker_shipment_sync_skip_not_found", "shipment_id", payload.ShipmentID)
		return nil
	}
	if c.StatusEngine == nil {
		logger.Warnw("worker_shipment_sync_skip_engine_nil", "shipment_id", payload.ShipmentID)
		return nil
	}
	// Sync outcomes are recorded on the shipment itself; the task only
	// fails on infrastructure errors so asynq does not retry business
	// failures that the sweep loop already re-attempts.
	c.StatusEngine.SyncShipment(ctx, shipment.ID, payload.EventID)
	return nil
}

func (c *Consumer) handleShipmentCallback(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipment_callback_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentCallbackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_callback_unmarshal_failed", "error", err)
		return err
	}
	if payload.ShipmentID == 0 {
		logger.Debugw("worker_shipment_callback_skip_invalid_payload", "shipment_id", payload.ShipmentID)
		return nil
	}
	shipment, err := c.ShipmentRepo.GetByID(payload.ShipmentID)
	if err != nil {
		logger.Warnw("worker_shipment_callback_fetch_failed", "shipment_id", payload.ShipmentID, "error", err)
		return err
	}
	if shipment == nil {
		logger.Debugw("worker_shipment_callback_skip_not_found", "shipment_id", payload.ShipmentID)
		return nil
	}
	if c.CallbackService == nil {
		logger.Warnw("worker_shipment_callback_skip_service_nil", "shipment_id", payload.ShipmentID)
		return nil
	}
	if !c.CallbackService.SendShipmentUpdate(ctx, shipment, payload.Event) {
		logger.Warnw("worker_shipment_callback_delivery_failed",
			"shipment_id", payload.ShipmentID,
			"event", payload.Event,
			"api_source", shipment.APISource,
		)
	}
	return nil
}
