package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskroom/internal/dto"
	apierrors "github.com/yukikurage/taskroom/internal/errors"
	"github.com/yukikurage/taskroom/internal/services"
)

// MeetingHandler serves the calendar of scheduled calls.
type MeetingHandler struct {
	meetingService *services.MeetingService
}

func NewMeetingHandler(meetingService *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
	}
}

// CreateMeeting schedules a call and queues invites for the given emails
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}

	type CreateMeetingRequest struct {
		Title       string     `json:"title" binding:"max=255"`
		Description string     `json:"description"`
		StartsAt    time.Time  `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		Emails      []string   `json:"emails" binding:"omitempty,dive,email"`
	}

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.meetingService.CreateMeeting(c.Request.Context(), services.CreateMeetingInput{
		Scope:       scope,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Emails:      req.Emails,
	})
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToScheduledMeetingDTO(result))
}

// ListMeetings returns the tenant's meetings, optionally within ?from=&to= (RFC 3339)
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		apierrors.BadRequest(c, "Invalid from, expected RFC 3339")
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		apierrors.BadRequest(c, "Invalid to, expected RFC 3339")
		return
	}

	meetings, err := h.meetingService.ListMeetings(c.Request.Context(), services.ListMeetingsInput{
		Scope: scope,
		From:  from,
		To:    to,
	})
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings": dto.ToMeetingDTOs(meetings),
	})
}

func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}

	meeting, err := h.meetingService.GetMeeting(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMeetingDTO(*meeting))
}

func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	scope, _, ok := tenantAndUser(c)
	if !ok {
		return
	}

	if err := h.meetingService.DeleteMeeting(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Meeting deleted successfully",
	})
}

// InviteToMeeting sends the link of an existing meeting to more people
func (h *MeetingHandler) InviteToMeeting(c *gin.Context) {
	scope, userID, ok := tenantAndUser(c)
	if !ok {
		return
	}

	type InviteRequest struct {
		Emails []string `json:"emails" binding:"required,min=1,dive,email"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	sent, err := h.meetingService.InviteToMeeting(c.Request.Context(), scope, c.Param("id"), userID, req.Emails)
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Invites queued",
		"recipients": sent,
	})
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	// starts_at is stored in UTC
	t = t.UTC()
	return &t, nil
}

func respondMeetingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMeetingNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrMeetingStartRequired),
		errors.Is(err, services.ErrInvalidMeetingRange),
		errors.Is(err, services.ErrNoRecipients),
		errors.Is(err, services.ErrTooManyRecipients):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInviteDelivery):
		apierrors.BadGateway(c, services.ErrInviteDelivery.Error())
	default:
		log.Printf("meeting request failed: %v", err)
		apierrors.InternalError(c, "Internal server error")
	}
}
