// Package presence keeps ephemeral online state in Redis.
//
// Keys: <prefix>:presence:<userID> -> json {online,last_seen}, written with a
// refreshing TTL. A missing key means the user is offline; the durable
// last_seen then comes from the user document, not from here.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("presence: not found")

type Record struct {
	Online   bool  `json:"online"`
	LastSeen int64 `json:"last_seen"`
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "rt"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// SetOnline writes the record with a fresh TTL. Calling it again refreshes
// the expiry, which is how live connections stay visible.
func (s *Store) SetOnline(ctx context.Context, userID string) error {
	rec := Record{Online: true, LastSeen: time.Now().Unix()}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), b, s.ttl).Err()
}

// SetOffline deletes the key immediately. Going offline is not TTL-driven.
func (s *Store) SetOffline(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// Get returns ErrNotFound when the key is absent or expired; the caller is
// expected to fall back to the durable user record.
func (s *Store) Get(ctx context.Context, userID string) (Record, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Publish forwards a payload to other service instances over pub/sub.
func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.client.Subscribe(ctx, channel)
}
