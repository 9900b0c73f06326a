package ops

import (
	"strconv"
	"strings"
	"time"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/repository"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createShipmentRequest struct {
	Type          string   `json:"type" binding:"required"` // delivery / pickup
	POPSOrderID   *int64   `json:"pops_order_id"`
	RiderID       string   `json:"rider_id"`
	APISource     string   `json:"api_source"`
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

// CreateShipment stores a new shipment
func (h *Handler) CreateShipment(c *gin.Context) {
	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "shipment payload invalid", nil)
		return
	}

	shipment, err := h.ShipmentService.Create(c.Request.Context(), service.CreateShipmentInput{
		Type:          req.Type,
		POPSOrderID:   req.POPSOrderID,
		RiderID:       req.RiderID,
		APISource:     req.APISource,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		Country:       req.Country,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Cost:          models.NewMoneyFromFloat(req.Cost),
		WeightKG:      req.WeightKG,
		TriggeredBy:   currentUserID(c),
	})
	if err != nil {
		shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "shipment creation failed")
		return
	}
	response.Success(c, shipment)
}

// ListShipments lists shipments with filters and pagination
func (h *Handler) ListShipments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.ShipmentListFilter{
		Status:         strings.TrimSpace(c.Query("status")),
		Type:           strings.TrimSpace(c.Query("type")),
		RiderID:        strings.TrimSpace(c.Query("rider_id")),
		APISource:      strings.TrimSpace(c.Query("api_source")),
		City:           strings.TrimSpace(c.Query("city")),
		SyncStatus:     strings.TrimSpace(c.Query("sync_status")),
		ExcludeDeleted: c.DefaultQuery("include_deleted", "false") != "true",
		Page:           page,
		PageSize:       pageSize,
	}
	if raw := strings.TrimSpace(c.Query("created_from")); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if raw := strings.TrimSpace(c.Query("created_to")); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &ts
		}
	}

	shipments, total, err := h.ShipmentService.List(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "shipment list failed", err)
		return
	}
	response.SuccessWithPage(c, shipments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: shared.TotalPages(total, pageSize),
	})
}

// GetShipment returns one shipment by numeric id or external UUID
func (h *Handler) GetShipment(c *gin.Context) {
	if id, ok := parseIDParam(c); ok {
		shipment, err := h.ShipmentService.Get(id)
		if err != nil {
			shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "shipment lookup failed")
			return
		}
		response.Success(c, shipment)
		return
	}

	shipment, err := h.ShipmentService.GetByUUID(c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "shipment lookup failed")
		return
	}
	response.Success(c, shipment)
}

// DeleteShipment soft deletes a shipment; the row and its event trail
// survive for audit.
func (h *Handler) DeleteShipment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, "shipment id invalid", nil)
		return
	}
	if err := h.ShipmentService.SoftDelete(c.Request.Context(), id, currentUserID(c)); err != nil {
		shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "shipment delete failed")
		return
	}
	response.SuccessWithMsg(c, "deleted", gin.H{"id": id})
}

// ListShipmentEvents returns the shipment's event trail in order
func (h *Handler) ListShipmentEvents(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, "shipment id invalid", nil)
		return
	}
	events, err := h.ShipmentService.ListEvents(id)
	if err != nil {
		shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "event list failed")
		return
	}
	response.Success(c, events)
}

// TriggerSync re-attempts the upstream sync for one shipment. The
// outcome lands in the shipment's sync bookkeeping either way.
func (h *Handler) TriggerSync(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, "shipment id invalid", nil)
		return
	}
	shipment, err := h.ShipmentService.TriggerSync(c.Request.Context(), id)
	if err != nil {
		shared.RespondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "sync trigger failed")
		return
	}
	response.Success(c, gin.H{
		"id":             shipment.ID,
		"sync_status":    shipment.SyncStatus,
		"synced_to_pops": shipment.SyncedToPOPS,
		"sync_error":     shipment.SyncError,
	})
}
