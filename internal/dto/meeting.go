package dto

import (
	"time"

	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/services"
)

// MeetingDTO represents a scheduled meeting in API responses
type MeetingDTO struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Link           string    `json:"link"`
	OwnerID        uint64    `json:"owner_id"`
	OrganizationID uint64    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScheduledMeetingDTO is returned when a meeting is created
type ScheduledMeetingDTO struct {
	MeetingDTO
	Recipients    int  `json:"recipients"`
	InvitesQueued bool `json:"invites_queued"`
}

func ToMeetingDTO(m models.Meeting) MeetingDTO {
	return MeetingDTO{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		StartsAt:       m.StartsAt,
		EndsAt:         m.EndsAt,
		Link:           m.Link,
		OwnerID:        m.OwnerID,
		OrganizationID: m.OrganizationID,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMeetingDTOs(meetings []models.Meeting) []MeetingDTO {
	out := make([]MeetingDTO, len(meetings))
	for i, m := range meetings {
		out[i] = ToMeetingDTO(m)
	}
	return out
}

func ToScheduledMeetingDTO(s *services.ScheduledMeeting) ScheduledMeetingDTO {
	return ScheduledMeetingDTO{
		MeetingDTO:    ToMeetingDTO(*s.Meeting),
		Recipients:    s.Recipients,
		InvitesQueued: s.InvitesQueued,
	}
}
