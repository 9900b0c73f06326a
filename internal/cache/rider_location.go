package cache

import (
	"context"
	"fmt"
	"time"
)

// RiderLocation hot-path mirror of a rider's latest GPS sample. The
// session row stays authoritative; this entry only shortcuts reads.
type RiderLocation struct {
	RiderID   string    `json:"rider_id"`
	SessionID string    `json:"session_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

func riderLocationKey(riderID string) string {
	return fmt.Sprintf("rider:location:%s", riderID)
}

// SetRiderLocation writes the rider location mirror
func SetRiderLocation(ctx context.Context, loc RiderLocation, ttl time.Duration) error {
	if loc.RiderID == "" {
		return nil
	}
	return SetJSON(ctx, riderLocationKey(loc.RiderID), loc, ttl)
}

// GetRiderLocation reads the rider location mirror; the bool reports a hit
func GetRiderLocation(ctx context.Context, riderID string) (*RiderLocation, bool, error) {
	if riderID == "" {
		return nil, false, nil
	}
	var loc RiderLocation
	hit, err := GetJSON(ctx, riderLocationKey(riderID), &loc)
	if err != nil || !hit {
		return nil, false, err
	}
	return &loc, true, nil
}

// DelRiderLocation drops the rider location mirror
func DelRiderLocation(ctx context.Context, riderID string) error {
	if riderID == "" {
		return nil
	}
	return Del(ctx, riderLocationKey(riderID))
}
