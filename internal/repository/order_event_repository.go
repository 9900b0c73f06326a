package repository

import (
	"errors"

	"github.com/dispatch-next/internal/models"

	"gorm.io/gorm"
)

// OrderEventRepository order event data access interface. Events are
// append only; there is no update or delete path.
type OrderEventRepository interface {
	Create(event *models.OrderEvent) error
	GetByID(id uint) (*models.OrderEvent, error)
	List(filter EventListFilter) ([]models.OrderEvent, int64, error)
	ListByShipment(shipmentID uint) ([]models.OrderEvent, error)
	MarkSynced(id uint) error
	MarkSyncFailed(id uint, syncError string) error
	WithTx(tx *gorm.DB) *GormOrderEventRepository
}

// GormOrderEventRepository GORM implementation
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewOrderEventRepository creates the order event repository
func NewOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderEventRepository) WithTx(tx *gorm.DB) *GormOrderEventRepository {
	if tx == nil {
		return r
	}
	return &GormOrderEventRepository{db: tx}
}

// Create appends an event
func (r *GormOrderEventRepository) Create(event *models.OrderEvent) error {
	return r.db.Create(event).Error
}

// GetByID fetches an event by primary key
func (r *GormOrderEventRepository) GetByID(id uint) (*models.OrderEvent, error) {
	var event models.OrderEvent
	if err := r.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// List fetches events by filter with total count, newest first
func (r *GormOrderEventRepository) List(filter EventListFilter) ([]models.OrderEvent, int64, error) {
	query := r.db.Model(&models.OrderEvent{})

	if filter.ShipmentID != 0 {
		query = query.Where("shipment_id = ?", filter.ShipmentID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var events []models.OrderEvent
	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByShipment fetches a shipment's full event history, oldest first
func (r *GormOrderEventRepository) ListByShipment(shipmentID uint) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	if shipmentID == 0 {
		return events, nil
	}
	if err := r.db.Where("shipment_id = ?", shipmentID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// MarkSynced records a successful upstream sync for the event
func (r *GormOrderEventRepository) MarkSynced(id uint) error {
	return r.db.Model(&models.OrderEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"synced_to_pops":    true,
		"sync_attempted_at": gorm.Expr("CURRENT_TIMESTAMP"),
		"sync_error":        "",
	}).Error
}

// MarkSyncFailed records a failed upstream sync for the event
func (r *GormOrderEventRepository) MarkSyncFailed(id uint, syncError string) error {
	return r.db.Model(&models.OrderEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"synced_to_pops":    false,
		"sync_attempted_at": gorm.Expr("CURRENT_TIMESTAMP"),
		"sync_error":        syncError,
	}).Error
}
