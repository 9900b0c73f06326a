package service

import (
	"context"
	"strings"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/pops"
	"github.com/dispatch-next/internal/repository"
)

// WebhookService processes inbound notifications from POPS
type WebhookService struct {
	shipmentRepo repository.ShipmentRepository
	shipments    *ShipmentService
}

// NewWebhookService creates the webhook service
func NewWebhookService(shipmentRepo repository.ShipmentRepository, shipments *ShipmentService) *WebhookService {
	return &WebhookService{
		shipmentRepo: shipmentRepo,
		shipments:    shipments,
	}
}

// WebhookOrder the order section of the inbound payload
type WebhookOrder struct {
	ID            int64    `json:"id"`
	Type          string   `json:"type"`
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Pincode       string   `json:"pincode"`
	Country       string   `json:"country"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Cost          float64  `json:"cost"`
	WeightKG      float64  `json:"weight_kg"`
}

// OrderAssignedPayload inbound order-assignment payload
type OrderAssignedPayload struct {
	Order   WebhookOrder `json:"order"`
	RiderID string       `json:"rider_id"`
	Event   string       `json:"event"`
}

// OrderAssignedResult webhook processing outcome
type OrderAssignedResult struct {
	Shipment *models.Shipment
	Created  bool
	Ignored  bool
}

// HandleOrderAssigned creates a shipment from an upstream order. Only
// the order_assigned event is processed; other events are acknowledged
// as ignored. The handler is idempotent on the upstream order id: an
// existing shipment for that id is returned, not duplicated.
func (s *WebhookService) HandleOrderAssigned(ctx context.Context, payload OrderAssignedPayload) (*OrderAssignedResult, error) {
	if strings.TrimSpace(payload.Event) != constants.POPSEventOrderAssigned {
		logger.Debugw("webhook_event_ignored", "event", payload.Event)
		return &OrderAssignedResult{Ignored: true}, nil
	}
	if payload.Order.ID <= 0 {
		return nil, ErrWebhookInvalid
	}

	existing, err := s.shipmentRepo.GetByPOPSOrderID(payload.Order.ID)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if existing != nil {
		logger.Infow("webhook_order_already_known",
			"pops_order_id", payload.Order.ID,
			"shipment_id", existing.ID,
		)
		return &OrderAssignedResult{Shipment: existing}, nil
	}

	shipmentType := strings.TrimSpace(payload.Order.Type)
	if shipmentType == "" {
		shipmentType = constants.ShipmentTypeDelivery
	}
	orderID := payload.Order.ID
	shipment, err := s.shipments.Create(ctx, CreateShipmentInput{
		Type:          shipmentType,
		POPSOrderID:   &orderID,
		RiderID:       payload.RiderID,
		APISource:     constants.APISourcePOPS,
		CustomerName:  payload.Order.CustomerName,
		CustomerPhone: payload.Order.CustomerPhone,
		Address:       payload.Order.Address,
		City:          payload.Order.City,
		State:         payload.Order.State,
		Pincode:       payload.Order.Pincode,
		Country:       payload.Order.Country,
		Latitude:      payload.Order.Latitude,
		Longitude:     payload.Order.Longitude,
		Cost:          models.NewMoneyFromFloat(payload.Order.Cost),
		WeightKG:      payload.Order.WeightKG,
		TriggeredBy:   constants.APISourcePOPS,
	})
	if err != nil {
		return nil, err
	}
	return &OrderAssignedResult{Shipment: shipment, Created: true}, nil
}

// StatusUpdateInput inbound status-update parameters. The shipment is
// resolved by explicit id when present, else by upstream order id.
type StatusUpdateInput struct {
	ShipmentID  uint
	POPSOrderID int64
	Status      string
}

// HandleStatusUpdate applies an upstream status change to the local
// shipment. The external vocabulary is mapped back to the internal one;
// an unknown status is rejected. Upstream acts with manager privileges,
// so acknowledgment requirements are waived but type compatibility is
// still enforced.
func (s *WebhookService) HandleStatusUpdate(ctx context.Context, input StatusUpdateInput) (*models.Shipment, error) {
	if input.ShipmentID == 0 && input.POPSOrderID <= 0 {
		return nil, ErrWebhookInvalid
	}
	internalStatus, ok := pops.MapInboundStatus(input.Status)
	if !ok {
		return nil, ErrStatusUnknown
	}
	var (
		shipment *models.Shipment
		err      error
	)
	if input.ShipmentID != 0 {
		shipment, err = s.shipmentRepo.GetByID(input.ShipmentID)
	} else {
		shipment, err = s.shipmentRepo.GetByPOPSOrderID(input.POPSOrderID)
	}
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	change := ChangeStatusInput{
		ShipmentID:  shipment.ID,
		NewStatus:   internalStatus,
		TriggeredBy: constants.APISourcePOPS,
		IsManager:   true,
	}
	if internalStatus == constants.ShipmentStatusSkipped {
		change.SkipReason = "skipped upstream"
	}
	return s.shipments.ChangeStatus(ctx, change)
}
