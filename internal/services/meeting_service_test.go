package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskroom/internal/constants"
	"github.com/yukikurage/taskroom/internal/mocks"
	"github.com/yukikurage/taskroom/internal/models"
	"github.com/yukikurage/taskroom/internal/notify"
	"github.com/yukikurage/taskroom/internal/repository"
	"go.uber.org/mock/gomock"
)

type MeetingServiceTestSuite struct {
	suite.Suite
	invites *mocks.MockInviteSender
	service *MeetingService
	ctx     context.Context
	scope   models.TenantScope
	start   time.Time
}

func (suite *MeetingServiceTestSuite) SetupTest() {
	db := openTestDB(&suite.Suite)
	ctrl := gomock.NewController(suite.T())
	suite.invites = mocks.NewMockInviteSender(ctrl)
	suite.service = NewMeetingService(repository.NewMeetingRepository(db), suite.invites, "https://app.example.com/")
	suite.ctx = context.Background()
	suite.scope = models.TenantScope{OwnerID: 1, OrganizationID: 10}
	suite.start = time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
}

func (suite *MeetingServiceTestSuite) TestCreateMeetingDefaults() {
	result, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{
		Scope:    suite.scope,
		ActorID:  1,
		StartsAt: suite.start,
	})
	suite.Require().NoError(err)

	m := result.Meeting
	_, err = uuid.Parse(m.ID)
	suite.NoError(err)
	suite.Equal(constants.DefaultMeetingTitle, m.Title)
	suite.Equal(constants.DefaultMeetingDescription, m.Description)
	suite.True(m.EndsAt.Equal(suite.start.Add(time.Hour)))
	suite.Equal("https://app.example.com/meeting/"+m.ID, m.Link)
	suite.Zero(result.Recipients)
	suite.False(result.InvitesQueued)
}

func (suite *MeetingServiceTestSuite) TestCreateMeetingQueuesInvites() {
	suite.invites.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, invite notify.Invite) error {
			suite.Equal([]string{"a@example.com", "b@example.com"}, invite.Emails)
			suite.Equal("Planning", invite.Title)
			suite.Contains(invite.Link, invite.MeetingID)
			suite.EqualValues(1, invite.InvitedBy)
			return nil
		})

	ends := suite.start.Add(30 * time.Minute)
	result, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{
		Scope:       suite.scope,
		ActorID:     1,
		Title:       "Planning",
		Description: "Sprint planning",
		StartsAt:    suite.start,
		EndsAt:      &ends,
		Emails:      []string{" A@example.com", "b@example.com", "a@example.com", ""},
	})
	suite.Require().NoError(err)
	suite.True(result.InvitesQueued)
	suite.Equal(2, result.Recipients)
	suite.True(result.Meeting.EndsAt.Equal(ends))
}

func (suite *MeetingServiceTestSuite) TestInviteFailureKeepsMeeting() {
	suite.invites.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("queue unavailable"))

	result, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{
		Scope:    suite.scope,
		ActorID:  1,
		Title:    "Retro",
		StartsAt: suite.start,
		Emails:   []string{"team@example.com"},
	})
	suite.Require().NoError(err)
	suite.False(result.InvitesQueued)

	stored, err := suite.service.GetMeeting(suite.ctx, suite.scope, result.Meeting.ID)
	suite.Require().NoError(err)
	suite.Equal("Retro", stored.Title)
}

func (suite *MeetingServiceTestSuite) TestCreateMeetingValidation() {
	_, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: suite.scope})
	suite.ErrorIs(err, ErrMeetingStartRequired)

	before := suite.start.Add(-time.Minute)
	_, err = suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: suite.scope, StartsAt: suite.start, EndsAt: &before})
	suite.ErrorIs(err, ErrInvalidMeetingRange)

	emails := make([]string, constants.MaxInviteRecipients+1)
	for i := range emails {
		emails[i] = uuid.NewString() + "@example.com"
	}
	_, err = suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: suite.scope, StartsAt: suite.start, Emails: emails})
	suite.ErrorIs(err, ErrTooManyRecipients)
}

func (suite *MeetingServiceTestSuite) TestMeetingsAreScoped() {
	mine, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: suite.scope, StartsAt: suite.start})
	suite.Require().NoError(err)
	other := models.TenantScope{OwnerID: 1, OrganizationID: 11}
	_, err = suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: other, StartsAt: suite.start})
	suite.Require().NoError(err)

	meetings, err := suite.service.ListMeetings(suite.ctx, ListMeetingsInput{Scope: suite.scope})
	suite.Require().NoError(err)
	suite.Require().Len(meetings, 1)
	suite.Equal(mine.Meeting.ID, meetings[0].ID)

	_, err = suite.service.GetMeeting(suite.ctx, other, mine.Meeting.ID)
	suite.ErrorIs(err, ErrMeetingNotFound)

	suite.ErrorIs(suite.service.DeleteMeeting(suite.ctx, other, mine.Meeting.ID), ErrMeetingNotFound)
	suite.NoError(suite.service.DeleteMeeting(suite.ctx, suite.scope, mine.Meeting.ID))
	suite.ErrorIs(suite.service.DeleteMeeting(suite.ctx, suite.scope, mine.Meeting.ID), ErrMeetingNotFound)
}

func (suite *MeetingServiceTestSuite) TestListMeetingsRange() {
	for i := 0; i < 3; i++ {
		_, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{
			Scope:    suite.scope,
			StartsAt: suite.start.Add(time.Duration(i) * 24 * time.Hour),
		})
		suite.Require().NoError(err)
	}

	from := suite.start.Add(time.Hour)
	to := suite.start.Add(72 * time.Hour)
	meetings, err := suite.service.ListMeetings(suite.ctx, ListMeetingsInput{Scope: suite.scope, From: &from, To: &to})
	suite.Require().NoError(err)
	suite.Len(meetings, 2)

	_, err = suite.service.ListMeetings(suite.ctx, ListMeetingsInput{Scope: suite.scope, From: &to, To: &from})
	suite.ErrorIs(err, ErrInvalidMeetingRange)
}

func (suite *MeetingServiceTestSuite) TestInviteToMeeting() {
	result, err := suite.service.CreateMeeting(suite.ctx, CreateMeetingInput{Scope: suite.scope, StartsAt: suite.start})
	suite.Require().NoError(err)

	suite.invites.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
	sent, err := suite.service.InviteToMeeting(suite.ctx, suite.scope, result.Meeting.ID, 1, []string{"x@example.com"})
	suite.Require().NoError(err)
	suite.Equal(1, sent)

	suite.invites.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
	_, err = suite.service.InviteToMeeting(suite.ctx, suite.scope, result.Meeting.ID, 1, []string{"x@example.com"})
	suite.ErrorIs(err, ErrInviteDelivery)

	_, err = suite.service.InviteToMeeting(suite.ctx, suite.scope, result.Meeting.ID, 1, nil)
	suite.ErrorIs(err, ErrNoRecipients)

	_, err = suite.service.InviteToMeeting(suite.ctx, suite.scope, "not-a-uuid", 1, []string{"x@example.com"})
	suite.ErrorIs(err, ErrMeetingNotFound)
}

func TestMeetingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MeetingServiceTestSuite))
}
