package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dispatch-next/internal/cache"
	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/geo"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/repository"
)

const (
	// Rough fleet averages used for per-session fuel estimates.
	fuelEfficiencyKMPerLiter = 40.0
	fuelPricePerLiter        = 105.0
)

// TrackingService route session and GPS point operations. The session
// row carries a cached current location updated on every ping; redis
// mirrors it for hot reads, with the latest stored point as the final
// fallback.
type TrackingService struct {
	sessionRepo  repository.RouteSessionRepository
	trackingRepo repository.RouteTrackingRepository
	shipments    *ShipmentService
	cacheTTL     time.Duration
	maxBatch     int
}

// NewTrackingService creates the tracking service
func NewTrackingService(sessionRepo repository.RouteSessionRepository, trackingRepo repository.RouteTrackingRepository, shipments *ShipmentService, cacheTTLSeconds, maxBatchPoints int) *TrackingService {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxBatchPoints <= 0 {
		maxBatchPoints = 500
	}
	return &TrackingService{
		sessionRepo:  sessionRepo,
		trackingRepo: trackingRepo,
		shipments:    shipments,
		cacheTTL:     ttl,
		maxBatch:     maxBatchPoints,
	}
}

func newSessionID(riderID string) string {
	return fmt.Sprintf("RS-%d-%s", time.Now().UnixNano(), riderID)
}

// StartSession opens a new active session for the rider. A rider can
// hold at most one active session at a time.
func (s *TrackingService) StartSession(ctx context.Context, riderID string, lat, lon float64) (*models.RouteSession, error) {
	riderID = strings.TrimSpace(riderID)
	if riderID == "" {
		return nil, ErrTrackingInvalid
	}
	existing, err := s.sessionRepo.GetActiveByRider(riderID)
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if existing != nil {
		return nil, ErrSessionAlreadyActive
	}

	now := time.Now()
	session := &models.RouteSession{
		ID:               newSessionID(riderID),
		RiderID:          riderID,
		Status:           constants.SessionStatusActive,
		StartLat:         &lat,
		StartLon:         &lon,
		StartTime:        now,
		CurrentLat:       &lat,
		CurrentLon:       &lon,
		CurrentUpdatedAt: &now,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, ErrSessionUpdateFailed
	}

	s.mirrorLocation(ctx, session, lat, lon, now)
	logger.Infow("route_session_started", "session_id", session.ID, "rider_id", riderID)
	return session, nil
}

// resolveSession finds the session a tracking write belongs to. An
// explicit session id must belong to the rider; without one the rider's
// active session is reused, and a fresh one is opened if none exists.
func (s *TrackingService) resolveSession(riderID, sessionID string, lat, lon float64) (*models.RouteSession, error) {
	if sessionID != "" {
		session, err := s.sessionRepo.GetByID(sessionID)
		if err != nil {
			return nil, ErrSessionFetchFailed
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		if session.RiderID != riderID {
			return nil, ErrSessionOwnership
		}
		if session.Status != constants.SessionStatusActive {
			return nil, ErrSessionNotActive
		}
		return session, nil
	}

	session, err := s.sessionRepo.GetActiveByRider(riderID)
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if session != nil {
		return session, nil
	}

	now := time.Now()
	session = &models.RouteSession{
		ID:               newSessionID(riderID),
		RiderID:          riderID,
		Status:           constants.SessionStatusActive,
		StartLat:         &lat,
		StartLon:         &lon,
		StartTime:        now,
		CurrentLat:       &lat,
		CurrentLon:       &lon,
		CurrentUpdatedAt: &now,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, ErrSessionUpdateFailed
	}
	logger.Infow("route_session_autocreated", "session_id", session.ID, "rider_id", riderID)
	return session, nil
}

// TrackPointInput a single GPS sample
type TrackPointInput struct {
	RiderID    string
	SessionID  string
	Latitude   float64
	Longitude  float64
	Accuracy   *float64
	SpeedKMH   *float64
	EventType  string
	ShipmentID *uint
	Timestamp  time.Time
}

// TrackLocation stores one GPS point and refreshes the session's cached
// current location plus the redis mirror.
func (s *TrackingService) TrackLocation(ctx context.Context, input TrackPointInput) (*models.RouteSession, error) {
	riderID := strings.TrimSpace(input.RiderID)
	if riderID == "" {
		return nil, ErrTrackingInvalid
	}
	session, err := s.resolveSession(riderID, strings.TrimSpace(input.SessionID), input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	eventType := strings.TrimSpace(input.EventType)
	if eventType == "" {
		eventType = constants.TrackingEventGPS
	}
	point := &models.RouteTracking{
		SessionID:  session.ID,
		RiderID:    riderID,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Accuracy:   input.Accuracy,
		SpeedKMH:   input.SpeedKMH,
		EventType:  eventType,
		ShipmentID: input.ShipmentID,
		Timestamp:  ts,
	}
	if err := s.trackingRepo.Create(point); err != nil {
		return nil, ErrTrackingInvalid
	}

	if err := s.sessionRepo.Update(session.ID, map[string]interface{}{
		"current_lat":        input.Latitude,
		"current_lon":        input.Longitude,
		"current_updated_at": ts,
	}); err != nil {
		logger.Warnw("session_location_cache_update_failed", "session_id", session.ID, "error", err)
	}
	s.mirrorLocation(ctx, session, input.Latitude, input.Longitude, ts)

	return s.sessionRepo.GetByID(session.ID)
}

// TrackBatch stores GPS points in one write, refreshing the cached
// location from the last point. The batch size is bounded.
func (s *TrackingService) TrackBatch(ctx context.Context, riderID, sessionID string, points []TrackPointInput) (int, error) {
	riderID = strings.TrimSpace(riderID)
	if riderID == "" || len(points) == 0 {
		return 0, ErrTrackingInvalid
	}
	if len(points) > s.maxBatch {
		return 0, ErrTrackingBatchSize
	}
	session, err := s.resolveSession(riderID, strings.TrimSpace(sessionID), points[0].Latitude, points[0].Longitude)
	if err != nil {
		return 0, err
	}

	rows := make([]models.RouteTracking, 0, len(points))
	now := time.Now()
	for _, p := range points {
		ts := p.Timestamp
		if ts.IsZero() {
			ts = now
		}
		eventType := strings.TrimSpace(p.EventType)
		if eventType == "" {
			eventType = constants.TrackingEventGPS
		}
		rows = append(rows, models.RouteTracking{
			SessionID:  session.ID,
			RiderID:    riderID,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			Accuracy:   p.Accuracy,
			SpeedKMH:   p.SpeedKMH,
			EventType:  eventType,
			ShipmentID: p.ShipmentID,
			Timestamp:  ts,
		})
	}
	if err := s.trackingRepo.CreateBatch(rows); err != nil {
		return 0, ErrTrackingInvalid
	}

	last := rows[len(rows)-1]
	if err := s.sessionRepo.Update(session.ID, map[string]interface{}{
		"current_lat":        last.Latitude,
		"current_lon":        last.Longitude,
		"current_updated_at": last.Timestamp,
	}); err != nil {
		logger.Warnw("session_location_cache_update_failed", "session_id", session.ID, "error", err)
	}
	s.mirrorLocation(ctx, session, last.Latitude, last.Longitude, last.Timestamp)

	return len(rows), nil
}

// RecordShipmentEvent stores a pickup/delivery tracking point and drives
// the corresponding shipment status change through the validator.
func (s *TrackingService) RecordShipmentEvent(ctx context.Context, input TrackPointInput, isManager bool) (*models.Shipment, error) {
	if input.ShipmentID == nil || *input.ShipmentID == 0 {
		return nil, ErrTrackingInvalid
	}
	eventType := strings.TrimSpace(input.EventType)
	var targetStatus string
	switch eventType {
	case constants.TrackingEventPickup:
		targetStatus = constants.ShipmentStatusPickedUp
	case constants.TrackingEventDelivery:
		targetStatus = constants.ShipmentStatusDelivered
	default:
		return nil, ErrTrackingInvalid
	}

	if _, err := s.TrackLocation(ctx, input); err != nil {
		return nil, err
	}
	return s.shipments.ChangeStatus(ctx, ChangeStatusInput{
		ShipmentID:  *input.ShipmentID,
		NewStatus:   targetStatus,
		TriggeredBy: input.RiderID,
		IsManager:   isManager,
	})
}

// CurrentLocation a rider's latest known position
type CurrentLocation struct {
	RiderID   string    `json:"rider_id"`
	SessionID string    `json:"session_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// GetCurrentLocation reads the rider's latest position: redis mirror
// first, then the active session's cached columns, then the newest
// stored point across all of the rider's sessions. A rider whose
// session just completed keeps their last known location.
func (s *TrackingService) GetCurrentLocation(ctx context.Context, riderID string) (*CurrentLocation, error) {
	riderID = strings.TrimSpace(riderID)
	if riderID == "" {
		return nil, ErrTrackingInvalid
	}

	if loc, hit, err := cache.GetRiderLocation(ctx, riderID); err == nil && hit {
		return &CurrentLocation{
			RiderID:   loc.RiderID,
			SessionID: loc.SessionID,
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
			Timestamp: loc.Timestamp,
		}, nil
	}

	session, err := s.sessionRepo.GetActiveByRider(riderID)
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if session != nil && session.CurrentLat != nil && session.CurrentLon != nil {
		ts := session.StartTime
		if session.CurrentUpdatedAt != nil {
			ts = *session.CurrentUpdatedAt
		}
		return &CurrentLocation{
			RiderID:   riderID,
			SessionID: session.ID,
			Latitude:  *session.CurrentLat,
			Longitude: *session.CurrentLon,
			Timestamp: ts,
		}, nil
	}

	point, err := s.trackingRepo.LatestByRider(riderID)
	if err != nil || point == nil {
		return nil, ErrSessionNotFound
	}
	return &CurrentLocation{
		RiderID:   riderID,
		SessionID: point.SessionID,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Timestamp: point.Timestamp,
	}, nil
}

// StopSession closes the session and computes its aggregates from the
// stored point sequence: haversine path distance, wall-clock duration,
// average speed, fuel estimate, and completed shipment count. Sessions
// with at most one stored point get distance 0.
func (s *TrackingService) StopSession(ctx context.Context, riderID, sessionID string, endLat, endLon float64) (*models.RouteSession, error) {
	session, err := s.sessionRepo.GetByID(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if riderID = strings.TrimSpace(riderID); riderID != "" && session.RiderID != riderID {
		return nil, ErrSessionOwnership
	}
	if session.Status != constants.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	points, err := s.trackingRepo.ListBySession(session.ID)
	if err != nil {
		return nil, ErrSessionFetchFailed
	}

	path := make([]geo.Point, 0, len(points))
	completed := map[uint]struct{}{}
	for _, p := range points {
		path = append(path, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
		if p.ShipmentID != nil && (p.EventType == constants.TrackingEventPickup || p.EventType == constants.TrackingEventDelivery) {
			completed[*p.ShipmentID] = struct{}{}
		}
	}

	now := time.Now()
	distanceKM := geo.PathDistanceKM(path)
	totalSeconds := int64(now.Sub(session.StartTime).Seconds())
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	avgSpeed := 0.0
	if totalSeconds > 0 {
		avgSpeed = distanceKM / (float64(totalSeconds) / 3600.0)
	}
	fuelLiters := distanceKM / fuelEfficiencyKMPerLiter
	fuelCost := models.NewMoneyFromFloat(fuelLiters * fuelPricePerLiter)

	if err := s.sessionRepo.Update(session.ID, map[string]interface{}{
		"status":               constants.SessionStatusCompleted,
		"end_lat":              endLat,
		"end_lon":              endLon,
		"end_time":             now,
		"total_distance_km":    distanceKM,
		"total_time_seconds":   totalSeconds,
		"avg_speed_kmh":        avgSpeed,
		"fuel_consumed_liters": fuelLiters,
		"fuel_cost":            fuelCost,
		"shipments_completed":  len(completed),
	}); err != nil {
		return nil, ErrSessionUpdateFailed
	}

	if err := cache.DelRiderLocation(ctx, session.RiderID); err != nil {
		logger.Debugw("rider_location_cache_clear_failed", "rider_id", session.RiderID, "error", err)
	}
	logger.Infow("route_session_completed",
		"session_id", session.ID,
		"rider_id", session.RiderID,
		"distance_km", distanceKM,
		"duration_seconds", totalSeconds,
		"shipments_completed", len(completed),
	)
	return s.sessionRepo.GetByID(session.ID)
}

// PauseSession moves an active session to paused. There is no resume
// path; a paused rider starts a fresh session.
func (s *TrackingService) PauseSession(ctx context.Context, sessionID string) (*models.RouteSession, error) {
	session, err := s.sessionRepo.GetByID(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != constants.SessionStatusActive {
		return nil, ErrSessionNotActive
	}
	if err := s.sessionRepo.Update(session.ID, map[string]interface{}{
		"status": constants.SessionStatusPaused,
	}); err != nil {
		return nil, ErrSessionUpdateFailed
	}
	if err := cache.DelRiderLocation(ctx, session.RiderID); err != nil {
		logger.Debugw("rider_location_cache_clear_failed", "rider_id", session.RiderID, "error", err)
	}
	return s.sessionRepo.GetByID(session.ID)
}

// GetSession fetches a session by id
func (s *TrackingService) GetSession(sessionID string) (*models.RouteSession, error) {
	session, err := s.sessionRepo.GetByID(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions fetches sessions by filter
func (s *TrackingService) ListSessions(filter repository.SessionListFilter) ([]models.RouteSession, int64, error) {
	return s.sessionRepo.List(filter)
}

// ActiveRider an active session with its latest position
type ActiveRider struct {
	RiderID   string     `json:"rider_id"`
	SessionID string     `json:"session_id"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	StartedAt time.Time  `json:"started_at"`
}

// ListActiveRiders lists riders with open sessions and their cached
// positions.
func (s *TrackingService) ListActiveRiders() ([]ActiveRider, error) {
	sessions, err := s.sessionRepo.ListActive()
	if err != nil {
		return nil, ErrSessionFetchFailed
	}
	riders := make([]ActiveRider, 0, len(sessions))
	for _, session := range sessions {
		riders = append(riders, ActiveRider{
			RiderID:   session.RiderID,
			SessionID: session.ID,
			Latitude:  session.CurrentLat,
			Longitude: session.CurrentLon,
			UpdatedAt: session.CurrentUpdatedAt,
			StartedAt: session.StartTime,
		})
	}
	return riders, nil
}

func (s *TrackingService) mirrorLocation(ctx context.Context, session *models.RouteSession, lat, lon float64, ts time.Time) {
	err := cache.SetRiderLocation(ctx, cache.RiderLocation{
		RiderID:   session.RiderID,
		SessionID: session.ID,
		Lat:       lat,
		Lon:       lon,
		Timestamp: ts,
	}, s.cacheTTL)
	if err != nil {
		logger.Debugw("rider_location_cache_set_failed", "rider_id", session.RiderID, "error", err)
	}
}
