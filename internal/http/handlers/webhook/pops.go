package webhook

import (
	"errors"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type statusUpdateRequest struct {
	OrderID    int64  `json:"order_id"`
	ShipmentID uint   `json:"shipment_id"`
	Status     string `json:"status" binding:"required"`
}

// OrderAssigned ingests an upstream order-assignment notification.
// Replays return the existing shipment with 200 so POPS stops retrying.
func (h *Handler) OrderAssigned(c *gin.Context) {
	var payload service.OrderAssignedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "webhook payload invalid", nil)
		return
	}

	result, err := h.WebhookService.HandleOrderAssigned(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, service.ErrWebhookInvalid) {
			shared.RespondError(c, response.CodeBadRequest, "webhook payload invalid", nil)
			return
		}
		shared.RespondError(c, response.CodeInternal, "webhook processing failed", err)
		return
	}
	if result.Ignored {
		response.SuccessWithMsg(c, "ignored", nil)
		return
	}
	response.Success(c, gin.H{
		"created":  result.Created,
		"shipment": result.Shipment,
	})
}

// StatusUpdate applies an upstream status change to the matching
// shipment, resolved by explicit shipment id or by upstream order id.
// The external vocabulary is mapped before validation.
func (h *Handler) StatusUpdate(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "webhook payload invalid", nil)
		return
	}

	shipment, err := h.WebhookService.HandleStatusUpdate(c.Request.Context(), service.StatusUpdateInput{
		ShipmentID:  req.ShipmentID,
		POPSOrderID: req.OrderID,
		Status:      req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookInvalid):
			shared.RespondError(c, response.CodeBadRequest, "webhook payload invalid", nil)
		case errors.Is(err, service.ErrStatusUnknown):
			shared.RespondError(c, response.CodeBadRequest, "unknown upstream status", nil)
		case errors.Is(err, service.ErrShipmentNotFound):
			shared.RespondError(c, response.CodeNotFound, "no shipment for upstream order", nil)
		case errors.Is(err, service.ErrTransitionInvalid):
			shared.RespondError(c, response.CodeBadRequest, "status transition not allowed", nil)
		default:
			shared.RespondError(c, response.CodeInternal, "webhook processing failed", err)
		}
		return
	}
	response.Success(c, shipment)
}
