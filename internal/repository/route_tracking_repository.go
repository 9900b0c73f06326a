package repository

import (
	"errors"

	"github.com/dispatch-next/internal/models"

	"gorm.io/gorm"
)

// RouteTrackingRepository tracking point data access interface
type RouteTrackingRepository interface {
	Create(point *models.RouteTracking) error
	CreateBatch(points []models.RouteTracking) error
	ListBySession(sessionID string) ([]models.RouteTracking, error)
	LatestBySession(sessionID string) (*models.RouteTracking, error)
	LatestByRider(riderID string) (*models.RouteTracking, error)
	CountBySession(sessionID string) (int64, error)
	WithTx(tx *gorm.DB) *GormRouteTrackingRepository
}

// GormRouteTrackingRepository GORM implementation
type GormRouteTrackingRepository struct {
	db *gorm.DB
}

// NewRouteTrackingRepository creates the tracking point repository
func NewRouteTrackingRepository(db *gorm.DB) *GormRouteTrackingRepository {
	return &GormRouteTrackingRepository{db: db}
}

// WithTx binds a transaction
func (r *GormRouteTrackingRepository) WithTx(tx *gorm.DB) *GormRouteTrackingRepository {
	if tx == nil {
		return r
	}
	return &GormRouteTrackingRepository{db: tx}
}

// Create inserts a single tracking point
func (r *GormRouteTrackingRepository) Create(point *models.RouteTracking) error {
	return r.db.Create(point).Error
}

// CreateBatch inserts tracking points in one statement
func (r *GormRouteTrackingRepository) CreateBatch(points []models.RouteTracking) error {
	if len(points) == 0 {
		return nil
	}
	return r.db.Create(&points).Error
}

// ListBySession fetches a session's points in capture order
func (r *GormRouteTrackingRepository) ListBySession(sessionID string) ([]models.RouteTracking, error) {
	var points []models.RouteTracking
	if sessionID == "" {
		return points, nil
	}
	if err := r.db.
		Where("session_id = ?", sessionID).
		Order("timestamp asc, id asc").
		Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// LatestBySession fetches the most recent point for a session
func (r *GormRouteTrackingRepository) LatestBySession(sessionID string) (*models.RouteTracking, error) {
	if sessionID == "" {
		return nil, nil
	}
	var point models.RouteTracking
	if err := r.db.
		Where("session_id = ?", sessionID).
		Order("timestamp desc, id desc").
		First(&point).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &point, nil
}

// LatestByRider fetches the rider's most recent point across all sessions
func (r *GormRouteTrackingRepository) LatestByRider(riderID string) (*models.RouteTracking, error) {
	if riderID == "" {
		return nil, nil
	}
	var point models.RouteTracking
	if err := r.db.
		Where("rider_id = ?", riderID).
		Order("timestamp desc, id desc").
		First(&point).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &point, nil
}

// CountBySession counts a session's stored points
func (r *GormRouteTrackingRepository) CountBySession(sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.RouteTracking{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
