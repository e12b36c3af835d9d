package repository

import (
	"context"

	"github.com/yukikurage/taskroom/internal/database"
	"github.com/yukikurage/taskroom/internal/models"
	"gorm.io/gorm"
)

// GormMeetingRepository is a GORM implementation of MeetingRepository
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &GormMeetingRepository{db: db}
}

// Create inserts a new meeting
func (r *GormMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID finds a meeting by ID within the scope
func (r *GormMeetingRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := r.db.WithContext(ctx).
		Scopes(database.Tenant(scope)).
		Where("id = ?", id).
		First(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// List returns meetings in the scope ordered by start time
func (r *GormMeetingRepository) List(ctx context.Context, filter MeetingFilter) ([]models.Meeting, error) {
	query := r.db.WithContext(ctx).Scopes(database.Tenant(filter.Scope))
	if filter.From != nil {
		query = query.Where("starts_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("starts_at < ?", filter.To.UTC())
	}

	meetings := []models.Meeting{}
	if err := query.Order("starts_at ASC").Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// Delete removes a meeting within the scope
func (r *GormMeetingRepository) Delete(ctx context.Context, scope models.TenantScope, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Scopes(database.Tenant(scope)).
		Where("id = ?", id).
		Delete(&models.Meeting{})
	return result.RowsAffected, result.Error
}
