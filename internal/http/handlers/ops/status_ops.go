package ops

import (
	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type changeStatusRequest struct {
	NewStatus    string `json:"new_status" binding:"required"`
	SkipReason   string `json:"skip_reason"`
	SignatureURL string `json:"signature_url"`
	PhotoURL     string `json:"photo_url"`
	SignedDocURL string `json:"signed_doc_url"`
}

type batchStatusItem struct {
	ShipmentID uint `json:"shipment_id" binding:"required"`
	changeStatusRequest
}

type batchStatusRequest struct {
	Items []batchStatusItem `json:"items" binding:"required"`
}

type reassignRequest struct {
	RiderID string `json:"rider_id" binding:"required"`
}

type batchReassignRequest struct {
	ShipmentIDs []uint `json:"shipment_ids" binding:"required"`
	RiderID     string `json:"rider_id" binding:"required"`
}

func (r changeStatusRequest) toInput(shipmentID uint, c *gin.Context) service.ChangeStatusInput {
	return service.ChangeStatusInput{
		ShipmentID:   shipmentID,
		NewStatus:    r.NewStatus,
		TriggeredBy:  currentUserID(c),
		IsManager:    isManagerRole(c),
		SkipReason:   r.SkipReason,
		SignatureURL: r.SignatureURL,
		PhotoURL:     r.PhotoURL,
		SignedDocURL: r.SignedDocURL,
	}
}

// ChangeStatus moves one shipment through the transition validator
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, "shipment id invalid", nil)
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "status payload invalid", nil)
		return
	}

	shipment, err := h.ShipmentService.ChangeStatus(c.Request.Context(), req.toInput(id, c))
	if err != nil {
		rules := append(append([]shared.MappedHandlerError{}, statusChangeErrorRules...), shipmentErrorRules...)
		shared.RespondWithMappedError(c, err, rules, response.CodeInternal, "status change failed")
		return
	}
	response.Success(c, shipment)
}

// BatchChangeStatus applies status changes independently per shipment.
// Duplicate ids keep the first occurrence; later ones are reported as
// ignored without failing the batch.
func (h *Handler) BatchChangeStatus(c *gin.Context) {
	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		shared.RespondError(c, response.CodeBadRequest, "items required", nil)
		return
	}

	inputs := make([]service.ChangeStatusInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, item.toInput(item.ShipmentID, c))
	}
	result := h.ShipmentService.BatchChangeStatus(c.Request.Context(), inputs)
	response.Success(c, result)
}

// ReassignRider moves a shipment to another rider. In-flight and
// terminal statuses block reassignment.
func (h *Handler) ReassignRider(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, "shipment id invalid", nil)
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "rider id required", nil)
		return
	}

	shipment, err := h.ShipmentService.ReassignRider(c.Request.Context(), id, req.RiderID, currentUserID(c))
	if err != nil {
		rules := append(append([]shared.MappedHandlerError{}, statusChangeErrorRules...), shipmentErrorRules...)
		shared.RespondWithMappedError(c, err, rules, response.CodeInternal, "reassignment failed")
		return
	}
	response.Success(c, shipment)
}

// BatchReassignRider reassigns shipments independently
func (h *Handler) BatchReassignRider(c *gin.Context) {
	var req batchReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ShipmentIDs) == 0 {
		shared.RespondError(c, response.CodeBadRequest, "shipment ids and rider id required", nil)
		return
	}

	result := h.ShipmentService.BatchReassignRider(c.Request.Context(), req.ShipmentIDs, req.RiderID, currentUserID(c))
	response.Success(c, result)
}
