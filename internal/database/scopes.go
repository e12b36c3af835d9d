package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// Tenant restricts a query to rows owned by scope.
func Tenant(scope models.TenantScope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ? AND organization_id = ?", scope.OwnerID, scope.OrganizationID)
	}
}
