package calls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hotline-platform/internal/metrics"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

const defaultWriteTimeout = 3 * time.Second

// Recorder writes call logs for the inbound call path.
//
// RecordAttempt is best-effort: failures are logged and counted, never returned,
// so a storage problem cannot change what the caller hears.
type Recorder struct {
	repo Repository
	log  *slog.Logger

	// Pool, when set, runs inserts off the request goroutine. A full pool drops the write.
	Pool *ants.Pool

	// Timeout bounds each write. Defaults to 3s.
	Timeout time.Duration

	Now func() time.Time
}

func NewRecorder(repo Repository, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{repo: repo, log: log, Now: time.Now}
}

// RecordAttempt inserts one ringing row for the call. Attempts without a resolved
// tenant or call id are skipped.
func (r *Recorder) RecordAttempt(ctx context.Context, a Attempt) {
	if a.OrgID == "" || a.HotlineID == "" || strings.TrimSpace(a.CallSid) == "" {
		r.log.Debug("call log skipped", "org_id", a.OrgID, "hotline_id", a.HotlineID, "call_sid", a.CallSid)
		return
	}

	row := CallLog{
		ID:        uuid.NewString(),
		OrgID:     a.OrgID,
		HotlineID: a.HotlineID,
		CallSid:   a.CallSid,
		From:      a.From,
		To:        a.To,
		Status:    CallStatusRinging,
		StartedAt: r.now(),
	}

	// Detach from the request so an async write outlives the webhook response.
	base := context.WithoutCancel(ctx)
	insert := func() {
		wctx, cancel := context.WithTimeout(base, r.timeout())
		defer cancel()
		if err := r.repo.Insert(wctx, row); err != nil {
			metrics.CallLogWriteFailures.WithLabelValues("insert").Inc()
			r.log.Warn("call log insert failed", "org_id", row.OrgID, "call_sid", row.CallSid, "err", err)
		}
	}

	if r.Pool == nil {
		insert()
		return
	}
	if err := r.Pool.Submit(insert); err != nil {
		// Saturated or released pool: write inline rather than lose the row.
		r.log.Debug("call log pool unavailable, writing inline", "call_sid", row.CallSid, "err", err)
		insert()
	}
}

// Reconcile applies a status callback to the matching row.
//
// Non-terminal statuses are ignored so a late "ringing" can never overwrite a final state.
// Unknown call ids are a no-op. Applying the same callback twice yields the same row.
func (r *Recorder) Reconcile(ctx context.Context, u StatusUpdate) error {
	u.CallSid = strings.TrimSpace(u.CallSid)
	if u.CallSid == "" {
		return fmt.Errorf("%w: call_sid required", ErrInvalidArgument)
	}
	if !u.Status.IsTerminal() {
		r.log.Debug("non-terminal status ignored", "call_sid", u.CallSid, "status", u.Status)
		return nil
	}
	if u.DurationSeconds != nil && *u.DurationSeconds < 0 {
		u.DurationSeconds = nil
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	found, err := r.repo.UpdateByCallSid(wctx, u, r.now())
	if err != nil {
		metrics.CallLogWriteFailures.WithLabelValues("update").Inc()
		return err
	}
	if !found {
		r.log.Info("status callback for unknown call", "call_sid", u.CallSid, "status", u.Status)
	}
	return nil
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func (r *Recorder) timeout() time.Duration {
	if r.Timeout <= 0 {
		return defaultWriteTimeout
	}
	return r.Timeout
}
