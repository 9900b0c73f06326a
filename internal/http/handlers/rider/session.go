package rider

import (
	"errors"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type startSessionRequest struct {
	StartLat float64 `json:"start_lat" binding:"required"`
	StartLon float64 `json:"start_lon" binding:"required"`
}

type endSessionRequest struct {
	EndLat float64 `json:"end_lat"`
	EndLon float64 `json:"end_lon"`
}

// StartSession opens a route session for the authenticated rider
func (h *Handler) StartSession(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "start coordinates required", nil)
		return
	}

	session, err := h.TrackingService.StartSession(c.Request.Context(), riderID, req.StartLat, req.StartLon)
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session start failed")
		return
	}
	response.Success(c, session)
}

// GetSession returns one of the rider's own sessions
func (h *Handler) GetSession(c *gin.Context) {
	riderID := currentRiderID(c)
	session, err := h.TrackingService.GetSession(c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session lookup failed")
		return
	}
	if session.RiderID != riderID {
		shared.RespondError(c, response.CodeForbidden, "session belongs to another rider", nil)
		return
	}
	response.Success(c, session)
}

// StopSession completes the session and computes its aggregates
func (h *Handler) StopSession(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "request body invalid", nil)
		return
	}

	session, err := h.TrackingService.StopSession(c.Request.Context(), riderID, c.Param("id"), req.EndLat, req.EndLon)
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session stop failed")
		return
	}
	response.Success(c, session)
}

// PauseSession pauses an active session. Paused sessions are terminal
// for tracking; the next GPS ping opens a fresh session.
func (h *Handler) PauseSession(c *gin.Context) {
	riderID := currentRiderID(c)
	session, err := h.TrackingService.GetSession(c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session lookup failed")
		return
	}
	if session.RiderID != riderID {
		shared.RespondError(c, response.CodeForbidden, "session belongs to another rider", nil)
		return
	}

	paused, err := h.TrackingService.PauseSession(c.Request.Context(), session.ID)
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session pause failed")
		return
	}
	response.Success(c, paused)
}

// CurrentLocation returns the rider's own latest position
func (h *Handler) CurrentLocation(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	location, err := h.TrackingService.GetCurrentLocation(c.Request.Context(), riderID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			shared.RespondError(c, response.CodeNotFound, "no known location", nil)
			return
		}
		shared.RespondWithMappedError(c, err, trackingErrorRules, response.CodeInternal, "location lookup failed")
		return
	}
	response.Success(c, location)
}
