package repository

import "time"

// ShipmentListFilter shipment list query parameters
type ShipmentListFilter struct {
	Status         string
	Type           string
	RiderID        string
	APISource      string
	City           string
	SyncStatus     string
	ExcludeDeleted bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Page           int
	PageSize       int
}

// EventListFilter order event list query parameters
type EventListFilter struct {
	ShipmentID uint
	EventType  string
	Page       int
	PageSize   int
}

// SessionListFilter route session list query parameters
type SessionListFilter struct {
	RiderID  string
	Status   string
	Page     int
	PageSize int
}
