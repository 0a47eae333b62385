package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// countingRepo counts calls that reach the underlying repository.
type countingRepo struct {
	*MemoryRepo

	mu       sync.Mutex
	phone    int
	hotlines int
	playlist int
}

func (c *countingRepo) FindPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	c.mu.Lock()
	c.phone++
	c.mu.Unlock()
	return c.MemoryRepo.FindPhoneNumber(ctx, e164)
}

func (c *countingRepo) FindActiveHotlines(ctx context.Context, phoneNumberID string, limit int) ([]Hotline, error) {
	c.mu.Lock()
	c.hotlines++
	c.mu.Unlock()
	return c.MemoryRepo.FindActiveHotlines(ctx, phoneNumberID, limit)
}

func (c *countingRepo) ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]HotlineAudioFile, error) {
	c.mu.Lock()
	c.playlist++
	c.mu.Unlock()
	return c.MemoryRepo.ListHotlineAudio(ctx, hotlineID, limit)
}

func newCachedFixture(t *testing.T) (*CachedRepo, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingRepo{MemoryRepo: seededRepo()}
	return NewCachedRepo(next, rdb, 15*time.Second, nil), next, mr
}

func TestCachedRepo_PhoneNumberHitServedFromRedis(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	ctx := context.Background()

	first, err := c.FindPhoneNumber(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !mr.Exists(phoneKey("+15550001111")) {
		t.Fatalf("expected phone lookup to be cached")
	}
	if ttl := mr.TTL(phoneKey("+15550001111")); ttl != 15*time.Second {
		t.Fatalf("expected 15s ttl, got %s", ttl)
	}

	second, err := c.FindPhoneNumber(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if next.phone != 1 {
		t.Fatalf("expected one repository call, got %d", next.phone)
	}
	if second.ID != first.ID || second.OrgID != first.OrgID || !second.CreatedAt.Equal(first.CreatedAt) || second.Status != first.Status {
		t.Fatalf("cached value differs: %+v vs %+v", second, first)
	}
}

func TestCachedRepo_NotFoundIsNeverCached(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.FindPhoneNumber(ctx, "+15559999999"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if next.phone != 2 {
		t.Fatalf("expected both misses to reach the repository, got %d", next.phone)
	}
	if mr.Exists(phoneKey("+15559999999")) {
		t.Fatalf("a missing number must not be cached")
	}
}

func TestCachedRepo_RepositoryErrorIsNotCached(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	next.Err = errors.New("connection reset")

	if _, err := c.FindPhoneNumber(context.Background(), "+15550001111"); err == nil {
		t.Fatalf("expected repository error")
	}
	if mr.Exists(phoneKey("+15550001111")) {
		t.Fatalf("a failed lookup must not be cached")
	}
}

func TestCachedRepo_UndecodableEntryFallsThrough(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	if err := mr.Set(phoneKey("+15550001111"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p, err := c.FindPhoneNumber(context.Background(), "+15550001111")
	if err != nil || p.ID != "pn-1" {
		t.Fatalf("unexpected lookup: %+v %v", p, err)
	}
	if next.phone != 1 {
		t.Fatalf("expected fallback to repository, got %d calls", next.phone)
	}
	// the bad entry is overwritten with a good one
	if got, _ := mr.Get(phoneKey("+15550001111")); got == "{not json" {
		t.Fatalf("expected entry to be refreshed")
	}
}

func TestCachedRepo_ExpiredEntryIsReloaded(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	ctx := context.Background()

	_, _ = c.FindPhoneNumber(ctx, "+15550001111")
	mr.FastForward(16 * time.Second)
	_, _ = c.FindPhoneNumber(ctx, "+15550001111")

	if next.phone != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", next.phone)
	}
}

func TestCachedRepo_RedisDownFailsOpen(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	mr.Close()

	p, err := c.FindPhoneNumber(context.Background(), "+15550001111")
	if err != nil || p.ID != "pn-1" {
		t.Fatalf("expected repository answer with redis down: %+v %v", p, err)
	}
	if next.phone != 1 {
		t.Fatalf("expected one repository call, got %d", next.phone)
	}
}

func TestCachedRepo_PausedHotlineStopsAnsweringImmediately(t *testing.T) {
	c, next, _ := newCachedFixture(t)
	ctx := context.Background()

	before, err := c.FindActiveHotlines(ctx, "pn-1", 2)
	if err != nil || len(before) != 1 {
		t.Fatalf("unexpected hotlines: %+v %v", before, err)
	}

	next.mu.Lock()
	next.MemoryRepo.Hotlines[0].Status = HotlinePaused
	next.mu.Unlock()

	after, err := c.FindActiveHotlines(ctx, "pn-1", 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("paused hotline still resolved: %+v", after)
	}

	r := NewResolver(c, nil)
	if _, err := r.Resolve(ctx, "+15550001111"); !errors.Is(err, ErrNoActiveHotline) {
		t.Fatalf("expected ErrNoActiveHotline after pause, got %v", err)
	}
}

func TestCachedRepo_PlaylistReadsBypassCache(t *testing.T) {
	c, next, mr := newCachedFixture(t)
	next.MemoryRepo.Assets = []AudioAsset{{ID: "a1", OrgID: "org-1", StoragePath: "org-1/a1.mp3", Source: AudioSourceUpload}}
	next.MemoryRepo.Playlist = []HotlineAudioFile{{ID: "f-1", HotlineID: "h-1", AudioAssetID: "a1", CreatedAt: t0}}

	for i := 0; i < 2; i++ {
		fs, err := c.ListHotlineAudio(context.Background(), "h-1", 1)
		if err != nil || len(fs) != 1 || fs[0].Asset.StoragePath != "org-1/a1.mp3" {
			t.Fatalf("unexpected playlist: %+v %v", fs, err)
		}
	}
	if next.playlist != 2 {
		t.Fatalf("expected every playlist read to reach the repository, got %d", next.playlist)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected nothing cached, got %v", keys)
	}
}
