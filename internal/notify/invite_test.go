package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogInviteSender(t *testing.T) {
	err := LogInviteSender{}.Send(context.Background(), Invite{
		MeetingID: "0b6c8f0e-7d3a-4a43-9d59-0f3b0d8d1a11",
		Title:     "Scheduled Call",
		Emails:    []string{"bob@example.com"},
	})
	assert.NoError(t, err)
}

func TestRedisInviteQueueReportsPushFailure(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	q := NewRedisInviteQueue(rdb)
	err := q.Send(context.Background(), Invite{MeetingID: "m1", Emails: []string{"a@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push invite")
}

func TestRedisInviteQueuePushesInvites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	q := NewRedisInviteQueue(rdb)
	ctx := context.Background()

	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)
	first := Invite{
		MeetingID: "0b6c8f0e-7d3a-4a43-9d59-0f3b0d8d1a11",
		Title:     "Planning",
		Link:      "https://calls.example.com/meeting/0b6c8f0e-7d3a-4a43-9d59-0f3b0d8d1a11",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Emails:    []string{"bob@example.com", "carol@example.com"},
		InvitedBy: 4,
	}
	require.NoError(t, q.Send(ctx, first))
	require.NoError(t, q.Send(ctx, Invite{MeetingID: "second", Emails: []string{"dave@example.com"}}))

	items, err := mr.List(InviteQueueKey)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var got Invite
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, first.MeetingID, got.MeetingID)
	assert.Equal(t, first.Link, got.Link)
	assert.Equal(t, first.Emails, got.Emails)
	assert.Equal(t, uint64(4), got.InvitedBy)
	assert.True(t, got.StartsAt.Equal(start))
	assert.False(t, got.QueuedAt.IsZero(), "queue time is stamped")

	require.NoError(t, json.Unmarshal([]byte(items[1]), &got))
	assert.Equal(t, "second", got.MeetingID)
}
