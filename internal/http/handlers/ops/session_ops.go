package ops

import (
	"strconv"
	"strings"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/repository"

	"github.com/gin-gonic/gin"
)

type endSessionRequest struct {
	EndLat float64 `json:"end_lat"`
	EndLon float64 `json:"end_lon"`
}

// ListSessions lists route sessions with filters and pagination
func (h *Handler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	sessions, total, err := h.TrackingService.ListSessions(repository.SessionListFilter{
		RiderID:  strings.TrimSpace(c.Query("rider_id")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "session list failed", err)
		return
	}
	response.SuccessWithPage(c, sessions, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: shared.TotalPages(total, pageSize),
	})
}

// GetSession returns one route session
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.TrackingService.GetSession(c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session lookup failed")
		return
	}
	response.Success(c, session)
}

// StopSession completes a session on the rider's behalf
func (h *Handler) StopSession(c *gin.Context) {
	session, err := h.TrackingService.GetSession(c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session lookup failed")
		return
	}
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "request body invalid", nil)
		return
	}

	stopped, err := h.TrackingService.StopSession(c.Request.Context(), session.RiderID, session.ID, req.EndLat, req.EndLon)
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session stop failed")
		return
	}
	response.Success(c, stopped)
}

// PauseSession pauses a session on the rider's behalf
func (h *Handler) PauseSession(c *gin.Context) {
	paused, err := h.TrackingService.PauseSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.RespondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "session pause failed")
		return
	}
	response.Success(c, paused)
}

// ListActiveRiders returns riders with open sessions and their last
// known positions.
func (h *Handler) ListActiveRiders(c *gin.Context) {
	riders, err := h.TrackingService.ListActiveRiders()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "active rider list failed", err)
		return
	}
	response.Success(c, riders)
}
