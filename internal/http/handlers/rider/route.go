package rider

import (
	"errors"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type optimizeRouteRequest struct {
	ShipmentIDs []uint `json:"shipment_ids" binding:"required"`
}

// OptimizeRoute orders the given shipments by nearest-neighbor from the
// rider's current position. Shipments without coordinates are returned
// unordered in a separate list.
func (h *Handler) OptimizeRoute(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req optimizeRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ShipmentIDs) == 0 {
		shared.RespondError(c, response.CodeBadRequest, "shipment ids required", nil)
		return
	}

	route, err := h.RouteService.OptimizeRoute(c.Request.Context(), riderID, req.ShipmentIDs)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			shared.RespondError(c, response.CodeBadRequest, "no known rider location", nil)
			return
		}
		shared.RespondWithMappedError(c, err, trackingErrorRules, response.CodeInternal, "route optimization failed")
		return
	}
	response.Success(c, route)
}
