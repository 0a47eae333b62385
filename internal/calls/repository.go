package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidArgument = errors.New("calls: invalid argument")

const (
	defaultListLimit = 100
	MaxListLimit     = 1000
)

// Repository persists call logs.
type Repository interface {
	// Insert stores a new row. A row with the same CallSid already present is left untouched.
	Insert(ctx context.Context, c CallLog) error

	// UpdateByCallSid applies a terminal update. It never inserts; found is false when no row matches.
	// EndedAt is only set the first time; duration and recording are only overwritten when present.
	UpdateByCallSid(ctx context.Context, u StatusUpdate, endedAt time.Time) (found bool, err error)

	// List returns rows for one organization, newest first.
	List(ctx context.Context, f Filter) ([]CallLog, error)
}

// PostgresRepo implements Repository on the call_logs table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, c CallLog) error {
	const q = `
INSERT INTO call_logs (
  id, org_id, hotline_id, call_sid, from_number, to_number, status, started_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (call_sid) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.OrgID,
		c.HotlineID,
		c.CallSid,
		c.From,
		c.To,
		c.Status,
		c.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert call log: %w", err)
	}
	return nil
}

func (r *PostgresRepo) UpdateByCallSid(ctx context.Context, u StatusUpdate, endedAt time.Time) (bool, error) {
	const q = `
UPDATE call_logs
SET status        = $2,
    ended_at      = COALESCE(ended_at, $3),
    duration_s    = COALESCE($4, duration_s),
    recording_url = COALESCE(NULLIF($5, ''), recording_url)
WHERE call_sid = $1
`
	var dur sql.NullInt64
	if u.DurationSeconds != nil {
		dur = sql.NullInt64{Int64: int64(*u.DurationSeconds), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, u.CallSid, u.Status, endedAt, dur, u.RecordingURL)
	if err != nil {
		return false, fmt.Errorf("update call log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]CallLog, error) {
	if f.OrgID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT id, org_id, hotline_id, call_sid, from_number, to_number, status,
       started_at, ended_at, duration_s, COALESCE(recording_url, '')
FROM call_logs
WHERE org_id = $1
  AND ($2 = '' OR hotline_id::text = $2)
  AND ($3::timestamptz IS NULL OR started_at >= $3)
  AND ($4::timestamptz IS NULL OR started_at < $4)
ORDER BY started_at DESC, id DESC
LIMIT $5
`
	rows, err := r.db.QueryContext(ctx, q, f.OrgID, f.HotlineID, nullTime(f.From), nullTime(f.To), clampLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	out := make([]CallLog, 0)
	for rows.Next() {
		var (
			c     CallLog
			ended sql.NullTime
			dur   sql.NullInt64
		)
		if err := rows.Scan(
			&c.ID,
			&c.OrgID,
			&c.HotlineID,
			&c.CallSid,
			&c.From,
			&c.To,
			&c.Status,
			&c.StartedAt,
			&ended,
			&dur,
			&c.RecordingURL,
		); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			c.EndedAt = &t
		}
		if dur.Valid {
			d := int(dur.Int64)
			c.DurationSeconds = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}
