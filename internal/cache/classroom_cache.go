package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClassroomCache caches a user's class ids so discovery does not hit the
// classroom collection on every poll. It is best-effort: a miss or an error
// never blocks discovery, which falls back to unfiltered live sessions.
type ClassroomCache interface {
	SetClasses(ctx context.Context, userID string, classIDs []string) error
	GetClasses(ctx context.Context, userID string) ([]string, error)
}

type classroomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClassroomCache creates a classroom membership cache.
func NewClassroomCache(client *redis.Client) ClassroomCache {
	return &classroomCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *classroomCache) key(userID string) string {
	return fmt.Sprintf("user:%s:classes", userID)
}

func (c *classroomCache) SetClasses(ctx context.Context, userID string, classIDs []string) error {
	data, err := json.Marshal(classIDs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), data, c.ttl).Err()
}

// GetClasses returns the cached class ids, or nil on a miss.
func (c *classroomCache) GetClasses(ctx context.Context, userID string) ([]string, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var classIDs []string
	if err := json.Unmarshal([]byte(data), &classIDs); err != nil {
		return nil, err
	}
	return classIDs, nil
}
