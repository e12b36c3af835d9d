package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskroom/internal/models"
)

// TaskRepository defines the interface for task data access.
// Every method is filtered by the tenant scope.
type TaskRepository interface {
	// Create inserts a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID within the scope
	FindByID(ctx context.Context, scope models.TenantScope, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and optional pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields overwrites every editable field and returns the number of rows touched
	UpdateFields(ctx context.Context, scope models.TenantScope, id uint64, fields TaskFields, actorID uint64) (int64, error)

	// UpdateStatus overwrites the status and returns the number of rows touched
	UpdateStatus(ctx context.Context, scope models.TenantScope, id uint64, status models.TaskStatus, actorID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope  models.TenantScope
	Status *models.TaskStatus
	// Page and PageSize are ignored when either is zero; all rows are returned.
	Page     int
	PageSize int
}

// TaskFields are the columns a full edit overwrites.
type TaskFields struct {
	Name        string
	Description string
	Department  string
	AssignedTo  *uint64
	Severity    int
}

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create inserts a new meeting
	Create(ctx context.Context, meeting *models.Meeting) error

	// FindByID finds a meeting by ID within the scope
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.Meeting, error)

	// List returns meetings in the scope ordered by start time
	List(ctx context.Context, filter MeetingFilter) ([]models.Meeting, error)

	// Delete removes a meeting and returns the number of rows removed
	Delete(ctx context.Context, scope models.TenantScope, id string) (int64, error)
}

// MeetingFilter narrows meetings to those starting in [From, To).
type MeetingFilter struct {
	Scope models.TenantScope
	From  *time.Time
	To    *time.Time
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(ctx context.Context, org *models.Organization, ownerID uint64) error

	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(ctx context.Context, code string) (*models.Organization, error)

	// FindPersonal finds the personal organization owned by a user
	FindPersonal(ctx context.Context, userID uint64) (*models.Organization, error)

	// Update updates an organization
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a member to an organization
	AddMember(ctx context.Context, member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(ctx context.Context, organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(ctx context.Context, organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(ctx context.Context, userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(ctx context.Context, organizationID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPersonalOrganization creates a user, their personal organization,
	// and corresponding membership within a single transaction.
	CreateWithPersonalOrganization(ctx context.Context, user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
