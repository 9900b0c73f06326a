package models

import (
	"time"
)

// Shipment one delivery or pickup task assigned to a rider
type Shipment struct {
	ID           uint    `gorm:"primarykey" json:"id"`                    // primary key
	POPSOrderID  *int64  `gorm:"index" json:"pops_order_id,omitempty"`    // upstream order id (nullable)
	ExternalUUID string  `gorm:"type:varchar(64);index" json:"external_uuid,omitempty"` // upstream uuid
	Type         string  `gorm:"index;not null;default:delivery" json:"type"`           // delivery / pickup
	Status       string  `gorm:"index;not null" json:"status"`                          // shipment status
	RiderID      string  `gorm:"type:varchar(64);index" json:"rider_id,omitempty"`      // assigned rider
	APISource    string  `gorm:"type:varchar(64);index" json:"api_source,omitempty"`    // origin tag for callback routing

	CustomerName  string `gorm:"type:varchar(200)" json:"customer_name,omitempty"`
	CustomerPhone string `gorm:"type:varchar(32)" json:"customer_phone,omitempty"`

	// Address is the free-text form; the structured columns are filled when
	// the caller sends an address object instead of a string.
	Address string `gorm:"type:varchar(500)" json:"address,omitempty"`
	City    string `gorm:"type:varchar(100)" json:"city,omitempty"`
	State   string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Pincode string `gorm:"type:varchar(16)" json:"pincode,omitempty"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`  // delivery coordinates (nullable)
	Longitude *float64 `json:"longitude,omitempty"`

	Cost     Money   `gorm:"type:decimal(20,2);not null;default:0" json:"cost"`
	WeightKG float64 `json:"weight_kg,omitempty"`

	// Acknowledgment artifacts required before Delivered / Picked Up.
	SignatureURL  string     `gorm:"type:varchar(500)" json:"signature_url,omitempty"`
	PhotoURL      string     `gorm:"type:varchar(500)" json:"photo_url,omitempty"`
	SignedDocURL  string     `gorm:"type:varchar(500)" json:"signed_doc_url,omitempty"`
	AckCapturedBy string     `gorm:"type:varchar(64)" json:"ack_captured_by,omitempty"`
	AckCapturedAt *time.Time `json:"ack_captured_at,omitempty"`

	SkipReason string `gorm:"type:varchar(500)" json:"skip_reason,omitempty"`

	// External sync bookkeeping. Local state is authoritative; these record
	// the best-effort synchronization outcome only.
	SyncedToPOPS      bool       `gorm:"not null;default:false" json:"synced_to_pops"`
	SyncStatus        string     `gorm:"type:varchar(20);index;not null;default:pending" json:"sync_status"`
	SyncAttempts      int        `gorm:"not null;default:0" json:"sync_attempts"`
	SyncError         string     `gorm:"type:varchar(1000)" json:"sync_error,omitempty"`
	LastSyncAttemptAt *time.Time `json:"last_sync_attempt_at,omitempty"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Events []OrderEvent `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

// TableName explicit table name
func (Shipment) TableName() string {
	return "shipments"
}

// HasAcknowledgment reports whether a proof-of-completion artifact exists
func (s *Shipment) HasAcknowledgment() bool {
	return s != nil && (s.SignatureURL != "" || s.PhotoURL != "")
}
