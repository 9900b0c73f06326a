package models

import (
	"time"
)

// RouteTracking one GPS/event sample. Immutable once created; distance
// aggregation orders points by timestamp.
type RouteTracking struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	SessionID string `gorm:"type:varchar(64);index:idx_tracking_session_ts;not null" json:"session_id"`
	RiderID   string `gorm:"type:varchar(64);index" json:"rider_id"`

	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"` // meters
	SpeedKMH  *float64 `json:"speed_kmh,omitempty"`

	EventType  string `gorm:"type:varchar(20);not null;default:gps" json:"event_type"` // gps / pickup / delivery
	ShipmentID *uint  `gorm:"index" json:"shipment_id,omitempty"`

	Timestamp time.Time `gorm:"index:idx_tracking_session_ts" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName explicit table name
func (RouteTracking) TableName() string {
	return "route_tracking"
}
