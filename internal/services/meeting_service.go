package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskroom/internal/constants"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/notify"
	"github.com/yukikurage/taskroom/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrMeetingStartRequired = errors.New("starts_at is required")
	ErrInvalidMeetingRange  = errors.New("ends_at must be after starts_at")
	ErrNoRecipients         = errors.New("at least one email is required")
	ErrTooManyRecipients    = fmt.Errorf("at most %d emails can be invited at once", constants.MaxInviteRecipients)
	ErrInviteDelivery       = errors.New("failed to queue meeting invites")
)

// MeetingService schedules calls and hands invites to the mailer.
type MeetingService struct {
	meetingRepo repository.MeetingRepository
	invites     notify.InviteSender
	baseURL     string
	now         func() time.Time
}

func NewMeetingService(meetingRepo repository.MeetingRepository, invites notify.InviteSender, baseURL string) *MeetingService {
	if invites == nil {
		invites = notify.LogInviteSender{}
	}
	return &MeetingService{
		meetingRepo: meetingRepo,
		invites:     invites,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         time.Now,
	}
}

type CreateMeetingInput struct {
	Scope       models.TenantScope
	ActorID     uint64
	Title       string
	Description string
	StartsAt    time.Time
	// EndsAt defaults to one hour after StartsAt.
	EndsAt *time.Time
	Emails []string
}

// ScheduledMeeting is a stored meeting plus the outcome of the invite hand-off.
type ScheduledMeeting struct {
	Meeting       *models.Meeting
	Recipients    int
	InvitesQueued bool
}

type ListMeetingsInput struct {
	Scope models.TenantScope
	From  *time.Time
	To    *time.Time
}

// CreateMeeting stores a meeting and queues invites for the given emails.
// A failed hand-off is logged and reported; the meeting is kept.
func (s *MeetingService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*ScheduledMeeting, error) {
	if input.StartsAt.IsZero() {
		return nil, ErrMeetingStartRequired
	}
	endsAt := input.StartsAt.Add(time.Hour)
	if input.EndsAt != nil {
		endsAt = *input.EndsAt
	}
	if !endsAt.After(input.StartsAt) {
		return nil, ErrInvalidMeetingRange
	}

	emails, err := normalizeEmails(input.Emails)
	if err != nil && !errors.Is(err, ErrNoRecipients) {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = constants.DefaultMeetingTitle
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = constants.DefaultMeetingDescription
	}

	id := uuid.NewString()
	meeting := &models.Meeting{
		ID:             id,
		OwnerID:        input.Scope.OwnerID,
		OrganizationID: input.Scope.OrganizationID,
		Title:          title,
		Description:    description,
		StartsAt:       input.StartsAt.UTC(),
		EndsAt:         endsAt.UTC(),
		Link:           s.MeetingLink(id),
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	result := &ScheduledMeeting{Meeting: meeting, Recipients: len(emails)}
	if len(emails) == 0 {
		return result, nil
	}

	if err := s.send(ctx, meeting, input.ActorID, emails); err != nil {
		log.Printf("meeting %s created but invites were not queued: %v", meeting.ID, err)
		return result, nil
	}
	result.InvitesQueued = true
	return result, nil
}

// MeetingLink is the shareable join URL of a meeting.
func (s *MeetingService) MeetingLink(id string) string {
	return s.baseURL + "/meeting/" + id
}

// ListMeetings returns the scope's meetings starting within [From, To)
func (s *MeetingService) ListMeetings(ctx context.Context, input ListMeetingsInput) ([]models.Meeting, error) {
	if input.From != nil && input.To != nil && !input.To.After(*input.From) {
		return nil, ErrInvalidMeetingRange
	}

	meetings, err := s.meetingRepo.List(ctx, repository.MeetingFilter{
		Scope: input.Scope,
		From:  input.From,
		To:    input.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, nil
}

// GetMeeting returns a meeting of the scope
func (s *MeetingService) GetMeeting(ctx context.Context, scope models.TenantScope, id string) (*models.Meeting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrMeetingNotFound
	}

	meeting, err := s.meetingRepo.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return meeting, nil
}

func (s *MeetingService) DeleteMeeting(ctx context.Context, scope models.TenantScope, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrMeetingNotFound
	}

	rows, err := s.meetingRepo.Delete(ctx, scope, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if rows == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// InviteToMeeting re-sends the invite of an existing meeting. Unlike creation,
// a failed hand-off is returned to the caller.
func (s *MeetingService) InviteToMeeting(ctx context.Context, scope models.TenantScope, id string, actorID uint64, emails []string) (int, error) {
	emails, err := normalizeEmails(emails)
	if err != nil {
		return 0, err
	}

	meeting, err := s.GetMeeting(ctx, scope, id)
	if err != nil {
		return 0, err
	}

	if err := s.send(ctx, meeting, actorID, emails); err != nil {
		log.Printf("meeting %s invites were not queued: %v", meeting.ID, err)
		return 0, fmt.Errorf("%w: %w", ErrInviteDelivery, err)
	}
	return len(emails), nil
}

func (s *MeetingService) send(ctx context.Context, meeting *models.Meeting, actorID uint64, emails []string) error {
	return s.invites.Send(ctx, notify.Invite{
		MeetingID:   meeting.ID,
		Title:       meeting.Title,
		Description: meeting.Description,
		Link:        meeting.Link,
		StartsAt:    meeting.StartsAt,
		EndsAt:      meeting.EndsAt,
		Emails:      emails,
		InvitedBy:   actorID,
		QueuedAt:    s.now().UTC(),
	})
}

// normalizeEmails trims, lowercases and de-duplicates addresses, dropping blanks.
func normalizeEmails(emails []string) ([]string, error) {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	if len(out) > constants.MaxInviteRecipients {
		return nil, ErrTooManyRecipients
	}
	return out, nil
}
