package repository

import (
	"errors"

	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/models"

	"gorm.io/gorm"
)

// RouteSessionRepository route session data access interface
type RouteSessionRepository interface {
	Create(session *models.RouteSession) error
	GetByID(id string) (*models.RouteSession, error)
	GetActiveByRider(riderID string) (*models.RouteSession, error)
	List(filter SessionListFilter) ([]models.RouteSession, int64, error)
	ListActive() ([]models.RouteSession, error)
	Update(id string, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormRouteSessionRepository
}

// GormRouteSessionRepository GORM implementation
type GormRouteSessionRepository struct {
	db *gorm.DB
}

// NewRouteSessionRepository creates the route session repository
func NewRouteSessionRepository(db *gorm.DB) *GormRouteSessionRepository {
	return &GormRouteSessionRepository{db: db}
}

// WithTx binds a transaction
func (r *GormRouteSessionRepository) WithTx(tx *gorm.DB) *GormRouteSessionRepository {
	if tx == nil {
		return r
	}
	return &GormRouteSessionRepository{db: tx}
}

// Create inserts a session
func (r *GormRouteSessionRepository) Create(session *models.RouteSession) error {
	return r.db.Create(session).Error
}

// GetByID fetches a session by id
func (r *GormRouteSessionRepository) GetByID(id string) (*models.RouteSession, error) {
	if id == "" {
		return nil, nil
	}
	var session models.RouteSession
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetActiveByRider fetches the rider's most recent active session
func (r *GormRouteSessionRepository) GetActiveByRider(riderID string) (*models.RouteSession, error) {
	if riderID == "" {
		return nil, nil
	}
	var session models.RouteSession
	if err := r.db.
		Where("rider_id = ? AND status = ?", riderID, constants.SessionStatusActive).
		Order("start_time desc").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// List fetches sessions by filter with total count
func (r *GormRouteSessionRepository) List(filter SessionListFilter) ([]models.RouteSession, int64, error) {
	query := r.db.Model(&models.RouteSession{})

	if filter.RiderID != "" {
		query = query.Where("rider_id = ?", filter.RiderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var sessions []models.RouteSession
	if err := query.Order("start_time desc").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListActive fetches all currently active sessions
func (r *GormRouteSessionRepository) ListActive() ([]models.RouteSession, error) {
	var sessions []models.RouteSession
	if err := r.db.
		Where("status = ?", constants.SessionStatusActive).
		Order("start_time desc").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update applies a partial update
func (r *GormRouteSessionRepository) Update(id string, updates map[string]interface{}) error {
	if id == "" || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.RouteSession{}).Where("id = ?", id).Updates(updates).Error
}
