package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
)

var t0 = time.Unix(1700000000, 0).UTC()

func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := t0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func intPtr(n int) *int { return &n }

func TestRecordAttempt_InsertsOneRingingRow(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)
	rec.Now = fixedClock()

	a := Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1", From: "+15551230000", To: "+15550001111"}
	rec.RecordAttempt(context.Background(), a)
	// a retried webhook must not create a second row
	rec.RecordAttempt(context.Background(), a)

	if len(repo.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.Rows))
	}
	row := repo.Rows[0]
	if row.Status != CallStatusRinging || row.OrgID != "org-1" || row.HotlineID != "h-1" || row.From != a.From || row.To != a.To {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.ID == "" || row.StartedAt.IsZero() || row.EndedAt != nil {
		t.Fatalf("unexpected defaults: %+v", row)
	}
}

func TestRecordAttempt_SkipsWithoutTenant(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)

	rec.RecordAttempt(context.Background(), Attempt{CallSid: "CA1", To: "+1555"})
	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1"})

	if len(repo.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(repo.Rows))
	}
}

func TestRecordAttempt_SwallowsStorageFailure(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Err = errors.New("disk full")
	rec := NewRecorder(repo, nil)

	// must not panic or block
	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1"})
}

type signalRepo struct {
	*MemoryRepo
	inserted chan struct{}
}

func (s signalRepo) Insert(ctx context.Context, c CallLog) error {
	err := s.MemoryRepo.Insert(ctx, c)
	s.inserted <- struct{}{}
	return err
}

func TestRecordAttempt_AsyncPool(t *testing.T) {
	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Release()

	repo := signalRepo{MemoryRepo: NewMemoryRepo(), inserted: make(chan struct{}, 1)}
	rec := NewRecorder(repo, nil)
	rec.Pool = pool

	ctx, cancel := context.WithCancel(context.Background())
	rec.RecordAttempt(ctx, Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA-async"})
	// the request finishing must not abort the write
	cancel()

	select {
	case <-repo.inserted:
	case <-time.After(2 * time.Second):
		t.Fatalf("async insert did not run")
	}
	if _, ok := repo.Get("CA-async"); !ok {
		t.Fatalf("expected row for CA-async")
	}
}

func TestRecordAttempt_ReleasedPoolWritesInline(t *testing.T) {
	pool, err := ants.NewPool(1)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	pool.Release()

	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)
	rec.Pool = pool

	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA-inline"})

	if _, ok := repo.Get("CA-inline"); !ok {
		t.Fatalf("expected inline write when the pool is closed")
	}
}

func TestReconcile_TerminalUpdateIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)
	rec.Now = fixedClock()
	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1"})

	u := StatusUpdate{CallSid: "CA1", Status: CallStatusCompleted, DurationSeconds: intPtr(42), RecordingURL: "https://rec.example.com/RE1"}
	if err := rec.Reconcile(context.Background(), u); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	first, _ := repo.Get("CA1")

	if err := rec.Reconcile(context.Background(), u); err != nil {
		t.Fatalf("reconcile again: %v", err)
	}
	second, _ := repo.Get("CA1")

	if second.Status != CallStatusCompleted || *second.DurationSeconds != 42 || second.RecordingURL != u.RecordingURL {
		t.Fatalf("unexpected row: %+v", second)
	}
	if first.EndedAt == nil || second.EndedAt == nil || !first.EndedAt.Equal(*second.EndedAt) {
		t.Fatalf("expected ended_at to be kept from first update: %v vs %v", first.EndedAt, second.EndedAt)
	}
}

func TestReconcile_KeepsFieldsAbsentFromUpdate(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)
	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1"})

	_ = rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA1", Status: CallStatusCompleted, DurationSeconds: intPtr(10), RecordingURL: "https://rec/1"})
	_ = rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA1", Status: CallStatusCompleted})

	row, _ := repo.Get("CA1")
	if row.DurationSeconds == nil || *row.DurationSeconds != 10 || row.RecordingURL != "https://rec/1" {
		t.Fatalf("expected previous duration and recording kept: %+v", row)
	}
}

func TestReconcile_IgnoresNonTerminalStatus(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)
	rec.RecordAttempt(context.Background(), Attempt{OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1"})
	_ = rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA1", Status: CallStatusBusy})

	if err := rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA1", Status: CallStatusRinging}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	row, _ := repo.Get("CA1")
	if row.Status != CallStatusBusy {
		t.Fatalf("expected busy to survive a late ringing, got %s", row.Status)
	}
}

func TestReconcile_UnknownCallSidNeverInserts(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo, nil)

	if err := rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA-missing", Status: CallStatusCompleted}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(repo.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(repo.Rows))
	}
}

func TestReconcile_RequiresCallSid(t *testing.T) {
	rec := NewRecorder(NewMemoryRepo(), nil)
	err := rec.Reconcile(context.Background(), StatusUpdate{Status: CallStatusCompleted})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestReconcile_ReturnsStorageError(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Err = errors.New("db down")
	rec := NewRecorder(repo, nil)
	if err := rec.Reconcile(context.Background(), StatusUpdate{CallSid: "CA1", Status: CallStatusCompleted}); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestMemoryRepo_ListIsolatesOrganizations(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Rows = []CallLog{
		{ID: "1", OrgID: "org-1", HotlineID: "h-1", CallSid: "CA1", StartedAt: t0},
		{ID: "2", OrgID: "org-2", HotlineID: "h-2", CallSid: "CA2", StartedAt: t0},
		{ID: "3", OrgID: "org-1", HotlineID: "h-3", CallSid: "CA3", StartedAt: t0.Add(time.Minute)},
	}

	rows, err := repo.List(context.Background(), Filter{OrgID: "org-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "3" || rows[1].ID != "1" {
		t.Fatalf("expected org-1 rows newest first, got %+v", rows)
	}
	if _, err := repo.List(context.Background(), Filter{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument without org, got %v", err)
	}
}
