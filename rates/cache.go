package rates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkingfee/parking"
)

// Catalog is a Store that can also list what it holds.
type Catalog interface {
	Store
	Categories(ctx context.Context) ([]string, error)
}

const cacheKeyPrefix = "parking:rates:"

// CachedStore serves loads from Redis and falls back to the wrapped store.
// Saves go to the wrapped store first and then overwrite the cached copy, so
// a load after a save always sees the new profile. If the cache cannot be
// written the key is evicted instead. Redis failures are logged and
// otherwise ignored.
type CachedStore struct {
	next Catalog
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedStore(next Catalog, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(category string) string {
	return cacheKeyPrefix + category
}

func (s *CachedStore) Save(ctx context.Context, category string, p parking.Profile) error {
	if err := s.next.Save(ctx, category, p); err != nil {
		return err
	}
	if err := s.fill(ctx, category, p); err != nil {
		s.log.Warn("cache saved rates failed", zap.String("category", category), zap.Error(err))
		if err := s.rdb.Del(ctx, cacheKey(category)).Err(); err != nil {
			s.log.Warn("evict cached rates failed", zap.String("category", category), zap.Error(err))
		}
	}
	return nil
}

func (s *CachedStore) fill(ctx context.Context, category string, p parking.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cacheKey(category), string(data), s.ttl).Err()
}

func (s *CachedStore) Load(ctx context.Context, category string) (parking.Profile, bool, error) {
	if p, ok := s.cached(ctx, category); ok {
		return p, true, nil
	}

	p, found, err := s.next.Load(ctx, category)
	if err != nil || !found {
		return p, found, err
	}

	if err := s.fill(ctx, category, p); err != nil {
		s.log.Warn("cache rates failed", zap.String("category", category), zap.Error(err))
	}
	return p, true, nil
}

func (s *CachedStore) Exists(ctx context.Context, category string) (bool, error) {
	n, err := s.rdb.Exists(ctx, cacheKey(category)).Result()
	if err != nil {
		s.log.Warn("check cached rates failed", zap.String("category", category), zap.Error(err))
	} else if n > 0 {
		return true, nil
	}
	return s.next.Exists(ctx, category)
}

func (s *CachedStore) Categories(ctx context.Context) ([]string, error) {
	return s.next.Categories(ctx)
}

func (s *CachedStore) cached(ctx context.Context, category string) (parking.Profile, bool) {
	raw, err := s.rdb.Get(ctx, cacheKey(category)).Result()
	if errors.Is(err, redis.Nil) {
		return parking.Profile{}, false
	}
	if err != nil {
		s.log.Warn("read cached rates failed", zap.String("category", category), zap.Error(err))
		return parking.Profile{}, false
	}

	var p parking.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.Warn("discarding malformed cached rates", zap.String("category", category), zap.Error(err))
		return parking.Profile{}, false
	}
	return p, true
}
