// Package redisstore implements keyset.Store on Redis, so the replicas of
// a service share one fetched copy of each key set.
package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwtkit/jwt/keyset"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used when New is given an empty one.
const DefaultPrefix = "jwks"

var errRedisUnavailable = errors.New("redisstore: redis unavailable")

// Store keeps key set entries under "<prefix>:<sha256(uri)>" with a TTL
// equal to their remaining freshness.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ keyset.Store = (*Store)(nil)

// New returns a Store over "client".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Store{redis: client, prefix: prefix, now: time.Now}
}

func (s *Store) key(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Load implements keyset.Store.
func (s *Store) Load(ctx context.Context, uri string) (*keyset.Entry, error) {
	b, err := s.redis.Get(ctx, s.key(uri)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, keyset.ErrEntryNotFound
		}

		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	var entry keyset.Entry
	if err = json.Unmarshal(b, &entry); err != nil {
		return nil, fmt.Errorf("redisstore: decode entry: %w", err)
	}

	return &entry, nil
}

// Save implements keyset.Store. Entries that are already stale are not written.
func (s *Store) Save(ctx context.Context, uri string, entry *keyset.Entry) error {
	ttl := entry.Expires.Sub(s.now())
	if ttl < time.Second {
		return nil
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redisstore: encode entry: %w", err)
	}

	if err = s.redis.Set(ctx, s.key(uri), b, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	return nil
}
