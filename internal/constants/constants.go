package constants

// Shipment type constants
const (
	ShipmentTypeDelivery = "delivery"
	ShipmentTypePickup   = "pickup"
)

// Shipment status constants. Every write passes through the transition
// validator, so these are the only values that ever reach storage.
const (
	ShipmentStatusInitiated = "Initiated"
	ShipmentStatusAssigned  = "Assigned"
	ShipmentStatusCollected = "Collected"
	ShipmentStatusInTransit = "In Transit"
	ShipmentStatusDelivered = "Delivered"
	ShipmentStatusPickedUp  = "Picked Up"
	ShipmentStatusReturned  = "Returned"
	ShipmentStatusCancelled = "Cancelled"
	ShipmentStatusSkipped   = "Skipped"
	ShipmentStatusDeleted   = "Deleted"
)

// External sync status constants
const (
	SyncStatusPending   = "pending"
	SyncStatusSynced    = "synced"
	SyncStatusFailed    = "failed"
	SyncStatusNeedsSync = "needs_sync"
)

// Order event type constants
const (
	EventTypeStatusChange   = "status_change"
	EventTypePickup         = "pickup"
	EventTypeDelivery       = "delivery"
	EventTypeAssignment     = "assignment"
	EventTypeRouteStart     = "route_start"
	EventTypeRouteEnd       = "route_end"
	EventTypeAcknowledgment = "acknowledgment"
	EventTypeSync           = "sync"
	EventTypeError          = "error"
)

// Route session status constants
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusPaused    = "paused"
)

// Tracking point event type constants
const (
	TrackingEventGPS      = "gps"
	TrackingEventPickup   = "pickup"
	TrackingEventDelivery = "delivery"
)

// Inbound POPS webhook event constants
const (
	POPSEventOrderAssigned = "order_assigned"
)

// Origin tag for shipments created by the upstream order system
const (
	APISourcePOPS = "pops"
)

// Actor role constants
const (
	RoleManager    = "manager"
	RoleDispatcher = "dispatcher"
	RoleRider      = "rider"
)

// Queue constants
const (
	QueueDefault         = "default"
	TaskShipmentSync     = "shipment:sync"
	TaskShipmentCallback = "shipment:callback"
)

// Cache default constants
const (
	RedisPrefixDefault = "dn"
)

// Batch item result constants
const (
	BatchResultUpdated   = "updated"
	BatchResultFailed    = "failed"
	BatchResultSkipped   = "skipped"
	BatchResultDuplicate = "duplicate_ignored"
)

// ReassignBlockedStatuses lists statuses that forbid moving a shipment to
// another rider: in-progress work or terminal states carrying proof.
var ReassignBlockedStatuses = []string{
	ShipmentStatusCollected,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusPickedUp,
}

// SyncRetryStatuses lists the sync states the sweep re-attempts.
var SyncRetryStatuses = []string{
	SyncStatusPending,
	SyncStatusNeedsSync,
	SyncStatusFailed,
}
