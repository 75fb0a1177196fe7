package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

// Backend is the durable write path the cache wraps.
type Backend interface {
	SaveBoard(ctx context.Context, b *domain.Board) error
	SaveTask(ctx context.Context, t *domain.Task) error
	PublishActivity(ctx context.Context, env domain.ActivityEnvelope) error
}

// TaskLister is the authoritative source of a board's active task listing.
type TaskLister interface {
	ActiveBoardTasks(boardID string) ([]domain.Task, error)
}

// Cache wraps a storage backend with a Redis-backed read-through cache of
// per-board task listings. Every write to a board evicts its listing.
type Cache struct {
	base  Backend
	redis *redis.Client
	ttl   time.Duration

	// Lister is bound after construction because the task store and the
	// cache reference each other.
	Lister TaskLister
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base Backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// BoardTasks serves the board's active task listing from Redis, falling back
// to the authoritative lister on miss and repopulating the cache.
func (c *Cache) BoardTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, boardID); ok {
		return tasks, nil
	}
	if c.Lister == nil {
		return nil, domain.Errf(domain.CodeBoardNotFound, "board %s not found", boardID)
	}
	tasks, err := c.Lister.ActiveBoardTasks(boardID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, boardID, tasks)
	return tasks, nil
}

// SaveBoard writes through and evicts the board's cached listing.
func (c *Cache) SaveBoard(ctx context.Context, b *domain.Board) error {
	err := c.base.SaveBoard(ctx, b)
	c.evict(ctx, b.ID)
	return err
}

// SaveTask writes through and evicts the board's cached listing.
func (c *Cache) SaveTask(ctx context.Context, t *domain.Task) error {
	err := c.base.SaveTask(ctx, t)
	c.evict(ctx, t.BoardID)
	return err
}

// PublishActivity passes through to the backend.
func (c *Cache) PublishActivity(ctx context.Context, env domain.ActivityEnvelope) error {
	return c.base.PublishActivity(ctx, env)
}

func (c *Cache) loadFromCache(ctx context.Context, boardID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardTasksKey(boardID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the authoritative store without failing.
			_ = c.redis.Del(ctx, boardTasksKey(boardID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, boardTasksKey(boardID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, boardID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardTasksKey(boardID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, boardID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardTasksKey(boardID)).Result()
}

func boardTasksKey(boardID string) string {
	return "board:tasks:" + boardID
}
