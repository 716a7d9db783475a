package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classbattle/internal/model"
)

// PresenceCache holds the per-session presence records in Redis, one hash
// per session keyed by participant id. Records go stale rather than being
// deleted while the session runs; the whole hash expires on its own well
// after the session is over.
type PresenceCache interface {
	Upsert(ctx context.Context, sessionID string, record *model.PresenceRecord) error
	Get(ctx context.Context, sessionID, participantID string) (*model.PresenceRecord, error)
	List(ctx context.Context, sessionID string) (map[string]*model.PresenceRecord, error)
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceCache creates a presence cache.
func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *presenceCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:presence", sessionID)
}

func (c *presenceCache) Upsert(ctx context.Context, sessionID string, record *model.PresenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key := c.key(sessionID)
	if err := c.client.HSet(ctx, key, record.ParticipantID, data).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *presenceCache) Get(ctx context.Context, sessionID, participantID string) (*model.PresenceRecord, error) {
	data, err := c.client.HGet(ctx, c.key(sessionID), participantID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record model.PresenceRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *presenceCache) List(ctx context.Context, sessionID string) (map[string]*model.PresenceRecord, error) {
	data, err := c.client.HGetAll(ctx, c.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	records := make(map[string]*model.PresenceRecord)
	for id, jsonStr := range data {
		var record model.PresenceRecord
		if err := json.Unmarshal([]byte(jsonStr), &record); err != nil {
			continue
		}
		records[id] = &record
	}
	return records, nil
}
