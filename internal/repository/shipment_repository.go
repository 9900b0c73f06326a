package repository

import (
	"errors"
	"time"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/models"

	"gorm.io/gorm"
)

// ShipmentRepository shipment data access interface
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	GetByID(id uint) (*models.Shipment, error)
	GetByExternalUUID(uuid string) (*models.Shipment, error)
	GetByPOPSOrderID(popsOrderID int64) (*models.Shipment, error)
	List(filter ShipmentListFilter) ([]models.Shipment, int64, error)
	ListByIDs(ids []uint) ([]models.Shipment, error)
	ListSyncRetryable(statuses []string, limit int) ([]models.Shipment, error)
	Update(id uint, updates map[string]interface{}) error
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormShipmentRepository
}

// GormShipmentRepository GORM implementation
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates the shipment repository
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx binds a transaction
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) *GormShipmentRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRepository{db: tx}
}

// Create inserts a shipment
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Create(shipment).Error
}

// GetByID fetches a shipment by primary key
func (r *GormShipmentRepository) GetByID(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.First(&shipment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByExternalUUID fetches a shipment by its external identifier
func (r *GormShipmentRepository) GetByExternalUUID(uuid string) (*models.Shipment, error) {
	if uuid == "" {
		return nil, nil
	}
	var shipment models.Shipment
	if err := r.db.Where("external_uuid = ?", uuid).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByPOPSOrderID fetches a shipment by its upstream order id
func (r *GormShipmentRepository) GetByPOPSOrderID(popsOrderID int64) (*models.Shipment, error) {
	if popsOrderID <= 0 {
		return nil, nil
	}
	var shipment models.Shipment
	if err := r.db.Where("pops_order_id = ?", popsOrderID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// List fetches shipments by filter with total count
func (r *GormShipmentRepository) List(filter ShipmentListFilter) ([]models.Shipment, int64, error) {
	query := r.db.Model(&models.Shipment{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExcludeDeleted {
		query = query.Where("status <> ?", constants.ShipmentStatusDeleted)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.RiderID != "" {
		query = query.Where("rider_id = ?", filter.RiderID)
	}
	if filter.APISource != "" {
		query = query.Where("api_source = ?", filter.APISource)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.SyncStatus != "" {
		query = query.Where("sync_status = ?", filter.SyncStatus)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var shipments []models.Shipment
	if err := query.Order("id desc").Find(&shipments).Error; err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// ListByIDs fetches shipments by primary keys
func (r *GormShipmentRepository) ListByIDs(ids []uint) ([]models.Shipment, error) {
	var shipments []models.Shipment
	if len(ids) == 0 {
		return shipments, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// ListSyncRetryable fetches shipments whose sync state still needs an
// upstream attempt, oldest attempts first.
func (r *GormShipmentRepository) ListSyncRetryable(statuses []string, limit int) ([]models.Shipment, error) {
	var shipments []models.Shipment
	if len(statuses) == 0 || limit <= 0 {
		return shipments, nil
	}
	if err := r.db.
		Where("sync_status IN ?", statuses).
		Where("pops_order_id IS NOT NULL").
		Order("last_sync_attempt_at asc").
		Limit(limit).
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// Update applies a partial update
func (r *GormShipmentRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus updates shipment status with extra fields
func (r *GormShipmentRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Updates(updates).Error
}
