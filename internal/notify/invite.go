package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// InviteQueueKey is the Redis list a mailer worker pops invites from.
const InviteQueueKey = "meetings:invites"

// Invite asks the mailer to send a meeting link to a set of recipients.
type Invite struct {
	MeetingID   string    `json:"meeting_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Emails      []string  `json:"emails"`
	InvitedBy   uint64    `json:"invited_by"`
	QueuedAt    time.Time `json:"queued_at"`
}

// InviteSender hands invites to whatever delivers them.
//
//go:generate mockgen -destination=../mocks/mock_invite_sender.go -package=mocks . InviteSender
type InviteSender interface {
	Send(ctx context.Context, invite Invite) error
}

// RedisInviteQueue pushes invites onto a Redis list as JSON.
type RedisInviteQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisInviteQueue(rdb *redis.Client) *RedisInviteQueue {
	return &RedisInviteQueue{rdb: rdb, key: InviteQueueKey}
}

func (q *RedisInviteQueue) Send(ctx context.Context, invite Invite) error {
	if invite.QueuedAt.IsZero() {
		invite.QueuedAt = time.Now().UTC()
	}
	b, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("encode invite: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("push invite: %w", err)
	}
	return nil
}

// LogInviteSender only logs invites. Used when Redis is not configured.
type LogInviteSender struct{}

func (LogInviteSender) Send(_ context.Context, invite Invite) error {
	log.Printf("meeting invite %s (%s) for %d recipient(s): %s",
		invite.MeetingID, invite.Title, len(invite.Emails), invite.Link)
	return nil
}
