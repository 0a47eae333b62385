package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory call-log store for tests and local development.
// It enforces organization isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Rows []CallLog

	// Err, when set, is returned from every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, c CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.Rows {
		if existing.CallSid == c.CallSid {
			return nil
		}
	}
	r.Rows = append(r.Rows, c)
	return nil
}

func (r *MemoryRepo) UpdateByCallSid(ctx context.Context, u StatusUpdate, endedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for i := range r.Rows {
		row := &r.Rows[i]
		if row.CallSid != u.CallSid {
			continue
		}
		row.Status = u.Status
		if row.EndedAt == nil {
			t := endedAt
			row.EndedAt = &t
		}
		if u.DurationSeconds != nil {
			d := *u.DurationSeconds
			row.DurationSeconds = &d
		}
		if u.RecordingURL != "" {
			row.RecordingURL = u.RecordingURL
		}
		return true, nil
	}
	return false, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]CallLog, error) {
	if f.OrgID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]CallLog, 0)
	for _, c := range r.Rows {
		if c.OrgID != f.OrgID {
			continue
		}
		if f.HotlineID != "" && c.HotlineID != f.HotlineID {
			continue
		}
		if !f.From.IsZero() && c.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.StartedAt.Before(f.To) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Get returns the row for callSid, for assertions in tests.
func (r *MemoryRepo) Get(callSid string) (CallLog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Rows {
		if c.CallSid == callSid {
			return c, true
		}
	}
	return CallLog{}, false
}
