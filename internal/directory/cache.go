package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "directory:"

// CachedRepo is a read-through Redis cache in front of another Repository.
//
// Only the number lookup is cached: a number's organization never changes while it
// is provisioned. Hotline and playlist reads always go to the underlying repository
// so a paused hotline stops answering on the next call.
// Only hits are cached; ErrNotFound and collaborator failures are never stored.
// Cache failures are logged at debug and never surface.
type CachedRepo struct {
	next Repository
	rdb  redis.Cmdable
	ttl  time.Duration
	log  *slog.Logger
}

// NewCachedRepo wraps next. A nil client or non-positive ttl disables caching.
func NewCachedRepo(next Repository, rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *CachedRepo {
	if log == nil {
		log = slog.Default()
	}
	return &CachedRepo{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (r *CachedRepo) enabled() bool { return r.rdb != nil && r.ttl > 0 }

func (r *CachedRepo) FindPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	key := phoneKey(e164)
	var p PhoneNumber
	if r.get(ctx, key, &p) {
		return p, nil
	}
	p, err := r.next.FindPhoneNumber(ctx, e164)
	if err != nil {
		return PhoneNumber{}, err
	}
	r.set(ctx, key, p)
	return p, nil
}

func (r *CachedRepo) FindActiveHotlines(ctx context.Context, phoneNumberID string, limit int) ([]Hotline, error) {
	return r.next.FindActiveHotlines(ctx, phoneNumberID, limit)
}

func (r *CachedRepo) ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]HotlineAudioFile, error) {
	return r.next.ListHotlineAudio(ctx, hotlineID, limit)
}

func (r *CachedRepo) get(ctx context.Context, key string, dst any) bool {
	if !r.enabled() {
		return false
	}
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Debug("directory cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Debug("directory cache entry undecodable", "key", key, "err", err)
		return false
	}
	return true
}

func (r *CachedRepo) set(ctx context.Context, key string, v any) {
	if !r.enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.log.Debug("directory cache write failed", "key", key, "err", err)
	}
}

func phoneKey(e164 string) string { return cacheKeyPrefix + "phone:" + e164 }
