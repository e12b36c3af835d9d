package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskroom/internal/database"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID within the scope
func (r *GormTaskRepository) FindByID(ctx context.Context, scope models.TenantScope, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.Tenant(scope)).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks in database order
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.Tenant(filter.Scope))
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	tasks := []models.Task{}
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// UpdateFields overwrites every editable field of the task
func (r *GormTaskRepository) UpdateFields(ctx context.Context, scope models.TenantScope, id uint64, fields TaskFields, actorID uint64) (int64, error) {
	var assignedTo any
	if fields.AssignedTo != nil {
		assignedTo = *fields.AssignedTo
	}

	return r.scopedUpdate(ctx, scope, id, map[string]any{
		"name":          fields.Name,
		"description":   fields.Description,
		"department":    fields.Department,
		"assigned_to":   assignedTo,
		"severity":      fields.Severity,
		"updated_by_id": actorID,
		"updated_on":    time.Now().UTC(),
	})
}

// UpdateStatus overwrites the status. There is no version check: the last write wins.
func (r *GormTaskRepository) UpdateStatus(ctx context.Context, scope models.TenantScope, id uint64, status models.TaskStatus, actorID uint64) (int64, error) {
	return r.scopedUpdate(ctx, scope, id, map[string]any{
		"status":        status,
		"updated_by_id": actorID,
		"updated_on":    time.Now().UTC(),
	})
}

func (r *GormTaskRepository) scopedUpdate(ctx context.Context, scope models.TenantScope, id uint64, values map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.Tenant(scope)).
		Where("id = ?", id).
		Updates(values)
	return result.RowsAffected, result.Error
}
