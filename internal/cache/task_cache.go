package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskroom/internal/models"
)

const keyPrefix = "tasks:"

// BoardCache caches the ordered task list behind a scope's board.
//
// Entries are keyed by a per-scope generation. Invalidate bumps the
// generation, so a fill that loaded its snapshot before a write can only
// store it under a generation nobody reads anymore.
//
//go:generate mockgen -destination=../mocks/mock_board_cache.go -package=mocks . BoardCache
type BoardCache interface {
	// Generation returns the scope's current generation. Read it before loading.
	Generation(ctx context.Context, scope models.TenantScope) (int64, error)
	// GetBoard returns the cached tasks of a generation, or nil on a miss.
	GetBoard(ctx context.Context, scope models.TenantScope, gen int64) ([]models.Task, error)
	SetBoard(ctx context.Context, scope models.TenantScope, gen int64, tasks []models.Task) error
	// Invalidate moves the scope to a new generation.
	Invalidate(ctx context.Context, scope models.TenantScope) error
}

// TaskCache is the Redis implementation of BoardCache.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func scopePrefix(scope models.TenantScope) string {
	return fmt.Sprintf("%s%d:%d:", keyPrefix, scope.OwnerID, scope.OrganizationID)
}

// GenerationKey is the Redis counter bumped on every write in a scope.
func GenerationKey(scope models.TenantScope) string {
	return scopePrefix(scope) + "gen"
}

// BoardKey is the Redis key holding a scope's board at one generation.
func BoardKey(scope models.TenantScope, gen int64) string {
	return fmt.Sprintf("%sboard:%d", scopePrefix(scope), gen)
}

func (c *TaskCache) Generation(ctx context.Context, scope models.TenantScope) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *TaskCache) GetBoard(ctx context.Context, scope models.TenantScope, gen int64) ([]models.Task, error) {
	b, err := c.rdb.Get(ctx, BoardKey(scope, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *TaskCache) SetBoard(ctx context.Context, scope models.TenantScope, gen int64, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, BoardKey(scope, gen), b, c.ttl).Err()
}

// Invalidate bumps the generation and drops the board it replaces.
// Older generations expire with the TTL.
func (c *TaskCache) Invalidate(ctx context.Context, scope models.TenantScope) error {
	gen, err := c.rdb.Incr(ctx, GenerationKey(scope)).Result()
	if err != nil {
		return err
	}
	return c.rdb.Del(ctx, BoardKey(scope, gen-1)).Err()
}
