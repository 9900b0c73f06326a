package models

import (
	"time"
)

// OrderEvent append-only audit record for a shipment. Rows are never
// mutated after creation except to record the deferred sync outcome of the
// same logical operation that created them.
type OrderEvent struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	ShipmentID uint   `gorm:"index;not null" json:"shipment_id"`
	EventType  string `gorm:"type:varchar(32);index;not null" json:"event_type"`

	OldStatus *string `gorm:"type:varchar(32)" json:"old_status,omitempty"`
	NewStatus *string `gorm:"type:varchar(32)" json:"new_status,omitempty"`

	Metadata    JSON   `gorm:"type:text" json:"metadata,omitempty"`
	TriggeredBy string `gorm:"type:varchar(64)" json:"triggered_by,omitempty"`

	// POPS sync outcome for the operation that emitted this event.
	SyncedToPOPS    bool       `gorm:"not null;default:false" json:"synced_to_pops"`
	SyncAttemptedAt *time.Time `json:"sync_attempted_at,omitempty"`
	SyncError       string     `gorm:"type:varchar(1000)" json:"sync_error,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName explicit table name
func (OrderEvent) TableName() string {
	return "order_events"
}
