package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

// BoardStatuses lists the board columns in display order.
var BoardStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// Task is always read and written through its (OwnerID, OrganizationID) scope.
type Task struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Department     string     `gorm:"type:varchar(255)" json:"department"`
	AssignedTo     *uint64    `gorm:"column:assigned_to" json:"assigned_to"`
	Severity       int        `gorm:"not null" json:"severity"`
	Status         TaskStatus `gorm:"type:varchar(32);not null" json:"status"`
	OwnerID        uint64     `gorm:"not null" json:"owner_id"`
	OrganizationID uint64     `gorm:"not null" json:"organization_id"`
	CreatedByID    uint64     `gorm:"not null" json:"created_by_id"`
	UpdatedByID    *uint64    `json:"updated_by_id"`
	CreatedOn      time.Time  `gorm:"autoCreateTime" json:"created_on"`
	UpdatedOn      *time.Time `json:"updated_on"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
