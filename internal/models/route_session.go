package models

import (
	"time"
)

// RouteSession one continuous working period for a rider, bounded by
// start/stop. Aggregates are zero until Stop recomputes them from the
// point sequence; they are write-once-on-stop values, not incrementally
// maintained.
type RouteSession struct {
	ID      string `gorm:"primarykey;type:varchar(64)" json:"id"`
	RiderID string `gorm:"type:varchar(64);index;not null" json:"rider_id"`
	Status  string `gorm:"type:varchar(20);index;not null;default:active" json:"status"`

	StartLat  *float64   `json:"start_lat,omitempty"`
	StartLon  *float64   `json:"start_lon,omitempty"`
	StartTime time.Time  `gorm:"index" json:"start_time"`
	EndLat    *float64   `json:"end_lat,omitempty"`
	EndLon    *float64   `json:"end_lon,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Hot-path cache updated on every GPS ping so "where is this rider now"
	// never scans the point table.
	CurrentLat       *float64   `json:"current_lat,omitempty"`
	CurrentLon       *float64   `json:"current_lon,omitempty"`
	CurrentUpdatedAt *time.Time `json:"current_updated_at,omitempty"`

	TotalDistanceKM    float64 `gorm:"not null;default:0" json:"total_distance_km"`
	TotalTimeSeconds   int64   `gorm:"not null;default:0" json:"total_time_seconds"`
	AvgSpeedKMH        float64 `gorm:"not null;default:0" json:"avg_speed_kmh"`
	FuelConsumedLiters float64 `gorm:"not null;default:0" json:"fuel_consumed_liters"`
	FuelCost           Money   `gorm:"type:decimal(20,2);not null;default:0" json:"fuel_cost"`
	ShipmentsCompleted int     `gorm:"not null;default:0" json:"shipments_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Points []RouteTracking `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"points,omitempty"`
}

// TableName explicit table name
func (RouteSession) TableName() string {
	return "route_sessions"
}
