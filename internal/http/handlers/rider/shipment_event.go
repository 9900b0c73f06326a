package rider

import (
	"time"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type shipmentEventRequest struct {
	ShipmentID uint       `json:"shipment_id" binding:"required"`
	EventType  string     `json:"event_type" binding:"required"` // pickup / delivery
	SessionID  string     `json:"session_id"`
	Latitude   float64    `json:"latitude" binding:"required"`
	Longitude  float64    `json:"longitude" binding:"required"`
	Timestamp  *time.Time `json:"timestamp"`
}

type shipmentEventBulkRequest struct {
	Events []shipmentEventRequest `json:"events" binding:"required"`
}

func (r shipmentEventRequest) toInput(riderID string) service.TrackPointInput {
	shipmentID := r.ShipmentID
	input := service.TrackPointInput{
		RiderID:    riderID,
		SessionID:  r.SessionID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		EventType:  r.EventType,
		ShipmentID: &shipmentID,
	}
	if r.Timestamp != nil {
		input.Timestamp = *r.Timestamp
	}
	return input
}

// RecordShipmentEvent marks a shipment picked up or delivered at the
// rider's current position. The status change runs through the same
// transition validator as the ops endpoints.
func (h *Handler) RecordShipmentEvent(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req shipmentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "shipment event invalid", nil)
		return
	}

	shipment, err := h.TrackingService.RecordShipmentEvent(c.Request.Context(), req.toInput(riderID), isManagerRole(c))
	if err != nil {
		rules := append(append([]shared.MappedHandlerError{}, shipmentEventErrorRules...), trackingErrorRules...)
		shared.RespondWithMappedError(c, err, append(rules, sessionErrorRules...), response.CodeInternal, "shipment event failed")
		return
	}
	response.Success(c, shipment)
}

type shipmentEventBulkItem struct {
	ShipmentID uint   `json:"shipment_id"`
	Result     string `json:"result"`
	Error      string `json:"error,omitempty"`
}

// RecordShipmentEventsBulk applies shipment events independently; one
// failing event never blocks the rest.
func (h *Handler) RecordShipmentEventsBulk(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req shipmentEventBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Events) == 0 {
		shared.RespondError(c, response.CodeBadRequest, "events required", nil)
		return
	}

	isManager := isManagerRole(c)
	items := make([]shipmentEventBulkItem, 0, len(req.Events))
	succeeded := 0
	for _, event := range req.Events {
		if _, err := h.TrackingService.RecordShipmentEvent(c.Request.Context(), event.toInput(riderID), isManager); err != nil {
			items = append(items, shipmentEventBulkItem{
				ShipmentID: event.ShipmentID,
				Result:     "failed",
				Error:      err.Error(),
			})
			continue
		}
		succeeded++
		items = append(items, shipmentEventBulkItem{ShipmentID: event.ShipmentID, Result: "updated"})
	}
	response.Success(c, gin.H{
		"updated": succeeded,
		"failed":  len(items) - succeeded,
		"items":   items,
	})
}
