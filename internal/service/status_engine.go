package service

import (
	"context"
	"strings"
	"time"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/pops"
	"github.com/dispatch-next/internal/queue"
	"github.com/dispatch-next/internal/repository"
)

// StatusEngine applies shipment status changes, records the audit event,
// and triggers upstream synchronization. It is a mechanical primitive:
// transition legality is the caller's job (see ValidateTransition), the
// engine never re-checks it.
type StatusEngine struct {
	shipmentRepo repository.ShipmentRepository
	eventRepo    repository.OrderEventRepository
	popsClient   *pops.Client
	queueClient  *queue.Client
	callbacks    *CallbackService
}

// NewStatusEngine creates the status engine
func NewStatusEngine(shipmentRepo repository.ShipmentRepository, eventRepo repository.OrderEventRepository, popsClient *pops.Client, queueClient *queue.Client, callbacks *CallbackService) *StatusEngine {
	return &StatusEngine{
		shipmentRepo: shipmentRepo,
		eventRepo:    eventRepo,
		popsClient:   popsClient,
		queueClient:  queueClient,
		callbacks:    callbacks,
	}
}

// UpdateStatusInput status change parameters
type UpdateStatusInput struct {
	ShipmentID  uint
	NewStatus   string
	TriggeredBy string
	Metadata    models.JSON
	// Extra fields applied in the same write as the status (skip reason,
	// acknowledgment columns, rider id).
	Extra map[string]interface{}
}

// UpdateStatus applies the status change, marks the shipment as pending
// sync, appends exactly one status_change event, then fires sync and
// callback dispatch. Sync and callback failures never surface here; they
// are recorded on the shipment.
func (e *StatusEngine) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Shipment, error) {
	if input.ShipmentID == 0 || strings.TrimSpace(input.NewStatus) == "" {
		return nil, ErrShipmentInvalid
	}
	shipment, err := e.shipmentRepo.GetByID(input.ShipmentID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	oldStatus := shipment.Status

	updates := map[string]interface{}{
		"synced_to_pops": false,
		"sync_status":    constants.SyncStatusPending,
	}
	for k, v := range input.Extra {
		updates[k] = v
	}
	if err := e.shipmentRepo.UpdateStatus(shipment.ID, input.NewStatus, updates); err != nil {
		return nil, ErrShipmentUpdateFailed
	}

	event := &models.OrderEvent{
		ShipmentID:  shipment.ID,
		EventType:   constants.EventTypeStatusChange,
		OldStatus:   &oldStatus,
		NewStatus:   &input.NewStatus,
		Metadata:    input.Metadata,
		TriggeredBy: input.TriggeredBy,
	}
	if err := e.eventRepo.Create(event); err != nil {
		// The status write already landed; surface the event failure so
		// batch callers can report it, but do not attempt a rollback.
		logger.Errorw("status_event_create_failed",
			"shipment_id", shipment.ID,
			"old_status", oldStatus,
			"new_status", input.NewStatus,
			"error", err,
		)
		return nil, ErrEventCreateFailed
	}

	e.TriggerSync(ctx, shipment.ID, event.ID)
	e.NotifyCallback(shipment.ID, constants.EventTypeStatusChange)

	return e.reload(shipment.ID)
}

// CreateEvent appends an event without touching the shipment status
func (e *StatusEngine) CreateEvent(shipmentID uint, eventType string, oldStatus, newStatus *string, metadata models.JSON, triggeredBy string) (*models.OrderEvent, error) {
	if shipmentID == 0 || strings.TrimSpace(eventType) == "" {
		return nil, ErrEventInvalid
	}
	event := &models.OrderEvent{
		ShipmentID:  shipmentID,
		EventType:   eventType,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		Metadata:    metadata,
		TriggeredBy: triggeredBy,
	}
	if err := e.eventRepo.Create(event); err != nil {
		return nil, ErrEventCreateFailed
	}
	return event, nil
}

// TriggerSync hands the sync attempt to the queue when available,
// otherwise runs it inline. Both paths share SyncShipment bookkeeping.
func (e *StatusEngine) TriggerSync(ctx context.Context, shipmentID uint, eventID uint) {
	if e.queueClient.Enabled() {
		if err := e.queueClient.EnqueueShipmentSync(queue.ShipmentSyncPayload{
			ShipmentID: shipmentID,
			EventID:    eventID,
		}); err != nil {
			logger.Warnw("shipment_sync_enqueue_failed", "shipment_id", shipmentID, "error", err)
			e.SyncShipment(ctx, shipmentID, eventID)
		}
		return
	}
	e.SyncShipment(ctx, shipmentID, eventID)
}

// NotifyCallback fires the outbound notification best effort. A
// dispatch failure never blocks or rolls back the triggering mutation.
func (e *StatusEngine) NotifyCallback(shipmentID uint, eventLabel string) {
	if e.callbacks == nil {
		return
	}
	if e.queueClient.Enabled() {
		if err := e.queueClient.EnqueueShipmentCallback(queue.ShipmentCallbackPayload{
			ShipmentID: shipmentID,
			Event:      eventLabel,
		}); err != nil {
			logger.Warnw("shipment_callback_enqueue_failed", "shipment_id", shipmentID, "error", err)
		}
		return
	}
	go func() {
		shipment, err := e.shipmentRepo.GetByID(shipmentID)
		if err != nil || shipment == nil {
			return
		}
		e.callbacks.SendShipmentUpdate(context.Background(), shipment, eventLabel)
	}()
}

// VerifyRider checks a reassignment target against the upstream rider
// registry. Only a definite not-found answer reports false; an
// unconfigured or unreachable POPS never blocks the reassignment.
func (e *StatusEngine) VerifyRider(ctx context.Context, riderID string) bool {
	if !e.popsClient.Configured() {
		return true
	}
	rider, err := e.popsClient.FetchRiderByID(ctx, riderID)
	if err != nil {
		logger.Debugw("pops_rider_lookup_failed", "rider_id", riderID, "error", err)
		return true
	}
	return rider != nil
}

// SyncShipment pushes the shipment's current state to POPS and records
// the outcome. It never returns an error: success and failure are both
// written to the shipment's sync columns. Shipments without an upstream
// order id have nothing to sync and are left untouched.
func (e *StatusEngine) SyncShipment(ctx context.Context, shipmentID uint, eventID uint) {
	shipment, err := e.shipmentRepo.GetByID(shipmentID)
	if err != nil || shipment == nil {
		logger.Warnw("shipment_sync_fetch_failed", "shipment_id", shipmentID, "error", err)
		return
	}
	if shipment.POPSOrderID == nil {
		logger.Debugw("shipment_sync_skip_no_order_id", "shipment_id", shipmentID)
		return
	}

	popsStatus, err := pops.MapStatus(shipment.Status)
	if err != nil {
		e.recordSyncFailure(shipment, eventID, err)
		return
	}
	err = e.popsClient.UpdateOrderFields(ctx, *shipment.POPSOrderID, map[string]interface{}{
		"status":   popsStatus,
		"rider_id": shipment.RiderID,
	})
	if err != nil {
		e.recordSyncFailure(shipment, eventID, err)
		return
	}

	now := time.Now()
	if err := e.shipmentRepo.Update(shipment.ID, map[string]interface{}{
		"synced_to_pops":       true,
		"sync_status":          constants.SyncStatusSynced,
		"sync_attempts":        0,
		"sync_error":           "",
		"last_sync_attempt_at": now,
		"last_synced_at":       now,
	}); err != nil {
		logger.Warnw("shipment_sync_mark_failed", "shipment_id", shipment.ID, "error", err)
		return
	}
	if eventID != 0 {
		if err := e.eventRepo.MarkSynced(eventID); err != nil {
			logger.Warnw("shipment_sync_event_mark_failed", "event_id", eventID, "error", err)
		}
	}
	logger.Infow("shipment_synced",
		"shipment_id", shipment.ID,
		"pops_order_id", *shipment.POPSOrderID,
		"status", shipment.Status,
	)
}

func (e *StatusEngine) recordSyncFailure(shipment *models.Shipment, eventID uint, cause error) {
	now := time.Now()
	if err := e.shipmentRepo.Update(shipment.ID, map[string]interface{}{
		"synced_to_pops":       false,
		"sync_status":          constants.SyncStatusFailed,
		"sync_attempts":        shipment.SyncAttempts + 1,
		"sync_error":           cause.Error(),
		"last_sync_attempt_at": now,
	}); err != nil {
		logger.Warnw("shipment_sync_failure_record_failed", "shipment_id", shipment.ID, "error", err)
	}
	if eventID != 0 {
		if err := e.eventRepo.MarkSyncFailed(eventID, cause.Error()); err != nil {
			logger.Warnw("shipment_sync_event_failure_record_failed", "event_id", eventID, "error", err)
		}
	}
	logger.Warnw("shipment_sync_failed",
		"shipment_id", shipment.ID,
		"attempts", shipment.SyncAttempts+1,
		"error", cause,
	)
}

func (e *StatusEngine) reload(id uint) (*models.Shipment, error) {
	shipment, err := e.shipmentRepo.GetByID(id)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}
