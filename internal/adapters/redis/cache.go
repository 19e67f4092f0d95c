package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/court-reservations/internal/domain"
)

const sportsKey = "catalog:sports"

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

type sportEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GetSports returns ok=false on a cache miss.
func (c *Cache) GetSports(ctx context.Context) ([]domain.Sport, bool, error) {
	val, err := c.client.Get(ctx, sportsKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []sportEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, false, err
	}
	sports := make([]domain.Sport, 0, len(entries))
	for _, e := range entries {
		sports = append(sports, domain.Sport{ID: e.ID, Name: e.Name})
	}
	return sports, true, nil
}

func (c *Cache) SetSports(ctx context.Context, sports []domain.Sport, ttl time.Duration) error {
	entries := make([]sportEntry, 0, len(sports))
	for _, s := range sports {
		entries = append(entries, sportEntry{ID: s.ID, Name: s.Name})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sportsKey, data, ttl).Err()
}
