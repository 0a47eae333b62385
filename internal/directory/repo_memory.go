package directory

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory directory for tests and local development.
// It applies the same ordering rules as the Postgres queries.
type MemoryRepo struct {
	mu sync.Mutex

	PhoneNumbers []PhoneNumber
	Hotlines     []Hotline
	Assets       []AudioAsset
	Playlist     []HotlineAudioFile

	// Err, when set, is returned from every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) FindPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return PhoneNumber{}, r.Err
	}
	for _, p := range r.PhoneNumbers {
		if p.E164 == e164 {
			return p, nil
		}
	}
	return PhoneNumber{}, ErrNotFound
}

func (r *MemoryRepo) FindActiveHotlines(ctx context.Context, phoneNumberID string, limit int) ([]Hotline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]Hotline, 0)
	for _, h := range r.Hotlines {
		if h.PhoneNumberID == phoneNumberID && h.Status == HotlineActive {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]HotlineAudioFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	assets := make(map[string]AudioAsset, len(r.Assets))
	for _, a := range r.Assets {
		assets[a.ID] = a
	}
	out := make([]HotlineAudioFile, 0)
	for _, f := range r.Playlist {
		if f.HotlineID != hotlineID {
			continue
		}
		a, ok := assets[f.AudioAssetID]
		if !ok {
			// deleted asset; the join row cascades away in storage
			continue
		}
		f.Asset = a
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
