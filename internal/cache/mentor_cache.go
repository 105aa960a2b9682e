// Package cache provides a Redis read-through cache for the mentor roster,
// the hottest read path of the marketplace.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"mentorly-backend-go/internal/models"
)

// mentorTTL keeps roster entries short-lived; invalidation on profile writes
// covers the common case and the TTL catches anything missed.
const mentorTTL = 5 * time.Minute

// MentorCache caches mentor listings in Redis. All operations are
// best-effort: a cache failure degrades to a Firestore read, never to an
// error for the caller.
type MentorCache struct {
	client *redis.Client
}

// NewMentorCache creates a MentorCache on the given Redis client.
func NewMentorCache(client *redis.Client) *MentorCache {
	return &MentorCache{client: client}
}

// Get returns the cached roster for the key, if present.
func (c *MentorCache) Get(ctx context.Context, key string) ([]*models.Mentor, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Warning: mentor cache get failed for '%s': %v", key, err)
		return nil, false
	}
	var mentors []*models.Mentor
	if err := json.Unmarshal([]byte(data), &mentors); err != nil {
		log.Printf("Warning: mentor cache entry '%s' failed to decode: %v", key, err)
		return nil, false
	}
	return mentors, true
}

// Set stores the roster under the key with a short TTL.
func (c *MentorCache) Set(ctx context.Context, key string, mentors []*models.Mentor) {
	data, err := json.Marshal(mentors)
	if err != nil {
		log.Printf("Warning: mentor cache encode failed for '%s': %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, mentorTTL).Err(); err != nil {
		log.Printf("Warning: mentor cache set failed for '%s': %v", key, err)
	}
}

// Invalidate drops every cached roster variant after a profile write.
func (c *MentorCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, "mentors:all", "mentors:approved").Err(); err != nil {
		log.Printf("Warning: mentor cache invalidation failed: %v", err)
	}
}
