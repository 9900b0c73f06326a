package rider

import (
	"time"

	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"

	"github.com/gin-gonic/gin"
)

type trackPointRequest struct {
	SessionID string     `json:"session_id"`
	Latitude  float64    `json:"latitude" binding:"required"`
	Longitude float64    `json:"longitude" binding:"required"`
	Accuracy  *float64   `json:"accuracy"`
	SpeedKMH  *float64   `json:"speed_kmh"`
	Timestamp *time.Time `json:"timestamp"`
}

type trackBatchRequest struct {
	SessionID string              `json:"session_id"`
	Points    []trackPointRequest `json:"points" binding:"required"`
}

func (r trackPointRequest) toInput(riderID string) service.TrackPointInput {
	input := service.TrackPointInput{
		RiderID:   riderID,
		SessionID: r.SessionID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Accuracy:  r.Accuracy,
		SpeedKMH:  r.SpeedKMH,
	}
	if r.Timestamp != nil {
		input.Timestamp = *r.Timestamp
	}
	return input
}

// TrackLocation records one GPS sample. With no open session a fresh
// one is created from this point.
func (h *Handler) TrackLocation(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req trackPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "coordinates required", nil)
		return
	}

	session, err := h.TrackingService.TrackLocation(c.Request.Context(), req.toInput(riderID))
	if err != nil {
		shared.RespondWithMappedError(c, err, append(trackingErrorRules, sessionErrorRules...), response.CodeInternal, "tracking failed")
		return
	}
	response.Success(c, gin.H{
		"session_id":  session.ID,
		"status":      session.Status,
		"recorded_at": time.Now(),
	})
}

// TrackBatch records buffered GPS samples in one write
func (h *Handler) TrackBatch(c *gin.Context) {
	riderID := currentRiderID(c)
	if riderID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req trackBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Points) == 0 {
		shared.RespondError(c, response.CodeBadRequest, "points required", nil)
		return
	}

	points := make([]service.TrackPointInput, 0, len(req.Points))
	for _, p := range req.Points {
		points = append(points, p.toInput(riderID))
	}
	stored, err := h.TrackingService.TrackBatch(c.Request.Context(), riderID, req.SessionID, points)
	if err != nil {
		shared.RespondWithMappedError(c, err, append(trackingErrorRules, sessionErrorRules...), response.CodeInternal, "tracking failed")
		return
	}
	response.Success(c, gin.H{"stored": stored})
}
