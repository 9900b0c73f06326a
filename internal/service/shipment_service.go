package service

import (
	"context"
	"strings"
	"time"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/geocode"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/repository"

	"github.com/google/uuid"
)

// ShipmentService shipment lifecycle operations. Status changes funnel
// through the transition validator and the status engine; batch variants
// process items independently and never abort on one item's failure.
type ShipmentService struct {
	shipmentRepo repository.ShipmentRepository
	eventRepo    repository.OrderEventRepository
	engine       *StatusEngine
	geocoder     *geocode.Client
}

// NewShipmentService creates the shipment service
func NewShipmentService(shipmentRepo repository.ShipmentRepository, eventRepo repository.OrderEventRepository, engine *StatusEngine, geocoder *geocode.Client) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		eventRepo:    eventRepo,
		engine:       engine,
		geocoder:     geocoder,
	}
}

// CreateShipmentInput shipment creation parameters
type CreateShipmentInput struct {
	Type          string
	POPSOrderID   *int64
	RiderID       string
	APISource     string
	CustomerName  string
	CustomerPhone string
	Address       string
	City          string
	State         string
	Pincode       string
	Country       string
	Latitude      *float64
	Longitude     *float64
	Cost          models.Money
	WeightKG      float64
	TriggeredBy   string
}

// Create stores a new shipment. Geocoding is best effort: a lookup
// failure never blocks creation. Callback dispatch fires after the row
// is committed.
func (s *ShipmentService) Create(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error) {
	shipmentType := strings.TrimSpace(input.Type)
	if shipmentType != constants.ShipmentTypeDelivery && shipmentType != constants.ShipmentTypePickup {
		return nil, ErrShipmentInvalid
	}

	status := constants.ShipmentStatusInitiated
	if strings.TrimSpace(input.RiderID) != "" {
		status = constants.ShipmentStatusAssigned
	}

	lat, lon := input.Latitude, input.Longitude
	if lat == nil && lon == nil && s.geocoder.Enabled() && strings.TrimSpace(input.Address) != "" {
		if result, err := s.geocoder.Lookup(ctx, input.Address); err != nil {
			logger.Debugw("shipment_geocode_failed", "address", input.Address, "error", err)
		} else {
			lat, lon = &result.Latitude, &result.Longitude
		}
	}

	shipment := &models.Shipment{
		POPSOrderID:   input.POPSOrderID,
		ExternalUUID:  uuid.NewString(),
		Type:          shipmentType,
		Status:        status,
		RiderID:       strings.TrimSpace(input.RiderID),
		APISource:     strings.TrimSpace(input.APISource),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		Pincode:       strings.TrimSpace(input.Pincode),
		Country:       strings.TrimSpace(input.Country),
		Latitude:      lat,
		Longitude:     lon,
		Cost:          input.Cost,
		WeightKG:      input.WeightKG,
		SyncStatus:    constants.SyncStatusPending,
	}
	if err := s.shipmentRepo.Create(shipment); err != nil {
		return nil, ErrShipmentCreateFailed
	}

	if shipment.RiderID != "" {
		_, err := s.engine.CreateEvent(shipment.ID, constants.EventTypeAssignment, nil, &shipment.Status, models.JSON{
			"rider_id": shipment.RiderID,
		}, input.TriggeredBy)
		if err != nil {
			logger.Warnw("shipment_create_assignment_event_failed", "shipment_id", shipment.ID, "error", err)
		}
	}
	s.engine.NotifyCallback(shipment.ID, "shipment_created")

	logger.Infow("shipment_created",
		"shipment_id", shipment.ID,
		"type", shipment.Type,
		"status", shipment.Status,
		"api_source", shipment.APISource,
	)
	return shipment, nil
}

// Get fetches a shipment by id
func (s *ShipmentService) Get(id uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(id)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// GetByUUID fetches a shipment by its external identifier
func (s *ShipmentService) GetByUUID(externalUUID string) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByExternalUUID(strings.TrimSpace(externalUUID))
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// List fetches shipments by filter
func (s *ShipmentService) List(filter repository.ShipmentListFilter) ([]models.Shipment, int64, error) {
	return s.shipmentRepo.List(filter)
}

// ListEvents fetches a shipment's event history
func (s *ShipmentService) ListEvents(shipmentID uint) ([]models.OrderEvent, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return s.eventRepo.ListByShipment(shipmentID)
}

// ChangeStatusInput validated status change parameters
type ChangeStatusInput struct {
	ShipmentID   uint
	NewStatus    string
	TriggeredBy  string
	IsManager    bool
	SkipReason   string
	SignatureURL string
	PhotoURL     string
	SignedDocURL string
}

// ChangeStatus validates and applies a single status change
func (s *ShipmentService) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(input.ShipmentID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}

	hasAck := shipment.HasAcknowledgment() ||
		strings.TrimSpace(input.SignatureURL) != "" ||
		strings.TrimSpace(input.PhotoURL) != ""
	if err := ValidateTransition(TransitionInput{
		ShipmentType: shipment.Type,
		ToStatus:     input.NewStatus,
		HasAck:       hasAck,
		IsManager:    input.IsManager,
		SkipReason:   input.SkipReason,
	}); err != nil {
		return nil, err
	}

	extra := map[string]interface{}{}
	if reason := strings.TrimSpace(input.SkipReason); reason != "" {
		extra["skip_reason"] = reason
	}
	if url := strings.TrimSpace(input.SignatureURL); url != "" {
		extra["signature_url"] = url
	}
	if url := strings.TrimSpace(input.PhotoURL); url != "" {
		extra["photo_url"] = url
	}
	if url := strings.TrimSpace(input.SignedDocURL); url != "" {
		extra["signed_doc_url"] = url
	}
	if len(extra) > 0 && (extra["signature_url"] != nil || extra["photo_url"] != nil || extra["signed_doc_url"] != nil) {
		extra["ack_captured_by"] = input.TriggeredBy
		extra["ack_captured_at"] = time.Now()
	}

	return s.engine.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  input.ShipmentID,
		NewStatus:   input.NewStatus,
		TriggeredBy: input.TriggeredBy,
		Extra:       extra,
	})
}

// BatchItemResult per-item outcome of a batch operation
type BatchItemResult struct {
	ShipmentID uint   `json:"shipment_id"`
	Result     string `json:"result"`
	Error      string `json:"error,omitempty"`
}

// BatchResult aggregate outcome of a batch operation
type BatchResult struct {
	Updated int               `json:"updated"`
	Skipped int               `json:"skipped"`
	Failed  int               `json:"failed"`
	Items   []BatchItemResult `json:"items"`
}

// BatchChangeStatus applies independent status changes. Duplicate
// shipment ids are deduplicated first occurrence wins; a shipment
// already in the target status counts as skipped.
func (s *ShipmentService) BatchChangeStatus(ctx context.Context, items []ChangeStatusInput) BatchResult {
	result := BatchResult{Items: make([]BatchItemResult, 0, len(items))}
	seen := make(map[uint]struct{}, len(items))

	for _, item := range items {
		if _, dup := seen[item.ShipmentID]; dup {
			result.Skipped++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: item.ShipmentID,
				Result:     constants.BatchResultDuplicate,
			})
			continue
		}
		seen[item.ShipmentID] = struct{}{}

		shipment, err := s.shipmentRepo.GetByID(item.ShipmentID)
		if err != nil || shipment == nil {
			result.Failed++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: item.ShipmentID,
				Result:     constants.BatchResultFailed,
				Error:      ErrShipmentNotFound.Error(),
			})
			continue
		}
		if shipment.Status == item.NewStatus {
			result.Skipped++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: item.ShipmentID,
				Result:     constants.BatchResultSkipped,
			})
			continue
		}

		if _, err := s.ChangeStatus(ctx, item); err != nil {
			result.Failed++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: item.ShipmentID,
				Result:     constants.BatchResultFailed,
				Error:      err.Error(),
			})
			continue
		}
		result.Updated++
		result.Items = append(result.Items, BatchItemResult{
			ShipmentID: item.ShipmentID,
			Result:     constants.BatchResultUpdated,
		})
	}
	return result
}

// ReassignRider moves a shipment to another rider. Shipments already in
// transit or completed cannot be reassigned, and a target rider the
// upstream registry definitely does not know is rejected.
func (s *ShipmentService) ReassignRider(ctx context.Context, shipmentID uint, riderID, triggeredBy string) (*models.Shipment, error) {
	riderID = strings.TrimSpace(riderID)
	if shipmentID == 0 || riderID == "" {
		return nil, ErrShipmentInvalid
	}
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	for _, blocked := range constants.ReassignBlockedStatuses {
		if shipment.Status == blocked {
			return nil, ErrReassignBlocked
		}
	}
	if !s.engine.VerifyRider(ctx, riderID) {
		return nil, ErrRiderUnknown
	}

	oldStatus := shipment.Status
	newStatus := constants.ShipmentStatusAssigned
	if err := s.shipmentRepo.UpdateStatus(shipment.ID, newStatus, map[string]interface{}{
		"rider_id":       riderID,
		"synced_to_pops": false,
		"sync_status":    constants.SyncStatusNeedsSync,
	}); err != nil {
		return nil, ErrShipmentUpdateFailed
	}

	event, err := s.engine.CreateEvent(shipment.ID, constants.EventTypeAssignment, &oldStatus, &newStatus, models.JSON{
		"old_rider_id": shipment.RiderID,
		"new_rider_id": riderID,
	}, triggeredBy)
	if err != nil {
		return nil, err
	}
	s.engine.TriggerSync(ctx, shipment.ID, event.ID)
	s.engine.NotifyCallback(shipment.ID, constants.EventTypeAssignment)

	return s.Get(shipment.ID)
}

// BatchReassignRider reassigns shipments independently
func (s *ShipmentService) BatchReassignRider(ctx context.Context, shipmentIDs []uint, riderID, triggeredBy string) BatchResult {
	result := BatchResult{Items: make([]BatchItemResult, 0, len(shipmentIDs))}
	seen := make(map[uint]struct{}, len(shipmentIDs))

	for _, id := range shipmentIDs {
		if _, dup := seen[id]; dup {
			result.Skipped++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: id,
				Result:     constants.BatchResultDuplicate,
			})
			continue
		}
		seen[id] = struct{}{}

		if _, err := s.ReassignRider(ctx, id, riderID, triggeredBy); err != nil {
			result.Failed++
			result.Items = append(result.Items, BatchItemResult{
				ShipmentID: id,
				Result:     constants.BatchResultFailed,
				Error:      err.Error(),
			})
			continue
		}
		result.Updated++
		result.Items = append(result.Items, BatchItemResult{
			ShipmentID: id,
			Result:     constants.BatchResultUpdated,
		})
	}
	return result
}

// SoftDelete marks a shipment Deleted. The row and its events stay for
// the audit trail; list endpoints exclude the status by default.
func (s *ShipmentService) SoftDelete(ctx context.Context, shipmentID uint, triggeredBy string) error {
	_, err := s.engine.UpdateStatus(ctx, UpdateStatusInput{
		ShipmentID:  shipmentID,
		NewStatus:   constants.ShipmentStatusDeleted,
		TriggeredBy: triggeredBy,
	})
	return err
}

// TriggerSync re-attempts upstream sync for one shipment on demand
func (s *ShipmentService) TriggerSync(ctx context.Context, shipmentID uint) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	s.engine.SyncShipment(ctx, shipment.ID, 0)
	return s.Get(shipment.ID)
}

// SweepSync re-attempts shipments stuck in retryable sync states,
// oldest attempts first, in a bounded batch. Returns how many shipments
// were attempted.
func (s *ShipmentService) SweepSync(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	shipments, err := s.shipmentRepo.ListSyncRetryable(constants.SyncRetryStatuses, limit)
	if err != nil {
		return 0, err
	}
	for i := range shipments {
		s.engine.SyncShipment(ctx, shipments[i].ID, 0)
	}
	if len(shipments) > 0 {
		logger.Infow("shipment_sync_sweep", "attempted", len(shipments))
	}
	return len(shipments), nil
}
