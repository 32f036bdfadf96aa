// Package redisstore keeps session values in redis so several processes on
// different hosts can share one session id.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// Store scopes keys as <prefix><session-id>:<key>.
type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// New returns a Store for sessionID. A zero ttl keeps values until deleted;
// otherwise every Set restarts the expiry.
func New(client redis.Cmdable, prefix, sessionID string, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore.New: nil client")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("redisstore.New: empty session id")
	}
	return &Store{
		client: client,
		prefix: prefix + sessionID + ":",
		ttl:    ttl,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore.Get: %w", err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore.Set: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore.Delete: %w", err)
	}
	return nil
}
