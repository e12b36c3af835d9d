package models

import "time"

// Meeting is a scheduled call on the calendar. ID doubles as the external call id.
type Meeting struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID        uint64    `gorm:"not null" json:"owner_id"`
	OrganizationID uint64    `gorm:"not null" json:"organization_id"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	StartsAt       time.Time `gorm:"not null" json:"starts_at"`
	EndsAt         time.Time `gorm:"not null" json:"ends_at"`
	Link           string    `gorm:"type:varchar(512);not null" json:"link"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
