package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("directory: not found")

	// ErrNotConfigured means the dialed number is unknown or could not be looked up.
	ErrNotConfigured = errors.New("directory: number not configured")
	// ErrNoActiveHotline means the number exists but nothing active is bound to it.
	ErrNoActiveHotline = errors.New("directory: no active hotline")
)

// Repository is the read-only data access used on the inbound call path.
type Repository interface {
	// FindPhoneNumber returns ErrNotFound when no row matches e164 exactly.
	FindPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error)

	// FindActiveHotlines returns up to limit active hotlines bound to the number,
	// ordered by created_at then id. More than one row is a data-integrity fault.
	FindActiveHotlines(ctx context.Context, phoneNumberID string, limit int) ([]Hotline, error)

	// ListHotlineAudio returns up to limit playlist entries ordered by
	// display_order, created_at, id.
	ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]HotlineAudioFile, error)
}

// PostgresRepo implements Repository over database/sql (pgx stdlib driver).
//
// It assumes the tables created by migrations/000001_init.up.sql:
// phone_numbers, hotlines, audio_assets, hotline_audio_files.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	const q = `
SELECT id, org_id, e164, status, created_at
FROM phone_numbers
WHERE e164 = $1
`
	var p PhoneNumber
	if err := r.db.QueryRowContext(ctx, q, e164).Scan(
		&p.ID,
		&p.OrgID,
		&p.E164,
		&p.Status,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PhoneNumber{}, ErrNotFound
		}
		return PhoneNumber{}, fmt.Errorf("find phone number: %w", err)
	}
	return p, nil
}

func (r *PostgresRepo) FindActiveHotlines(ctx context.Context, phoneNumberID string, limit int) ([]Hotline, error) {
	const q = `
SELECT id, org_id, COALESCE(phone_number_id::text, ''), name, mode, COALESCE(tts_text, ''), status, created_at
FROM hotlines
WHERE phone_number_id = $1 AND status = 'active'
ORDER BY created_at ASC, id ASC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, phoneNumberID, limit)
	if err != nil {
		return nil, fmt.Errorf("find active hotlines: %w", err)
	}
	defer rows.Close()

	var out []Hotline
	for rows.Next() {
		var h Hotline
		if err := rows.Scan(
			&h.ID,
			&h.OrgID,
			&h.PhoneNumberID,
			&h.Name,
			&h.Mode,
			&h.TTSText,
			&h.Status,
			&h.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]HotlineAudioFile, error) {
	const q = `
SELECT f.id, f.hotline_id, f.audio_asset_id, f.display_order, f.created_at,
       a.id, a.org_id, COALESCE(a.title, ''), a.storage_path, a.duration_ms, a.source, COALESCE(a.hash, '')
FROM hotline_audio_files f
JOIN audio_assets a ON a.id = f.audio_asset_id
WHERE f.hotline_id = $1
ORDER BY f.display_order ASC, f.created_at ASC, f.id ASC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, hotlineID, limit)
	if err != nil {
		return nil, fmt.Errorf("list hotline audio: %w", err)
	}
	defer rows.Close()

	var out []HotlineAudioFile
	for rows.Next() {
		var (
			f   HotlineAudioFile
			dur sql.NullInt64
		)
		if err := rows.Scan(
			&f.ID,
			&f.HotlineID,
			&f.AudioAssetID,
			&f.DisplayOrder,
			&f.CreatedAt,
			&f.Asset.ID,
			&f.Asset.OrgID,
			&f.Asset.Title,
			&f.Asset.StoragePath,
			&dur,
			&f.Asset.Source,
			&f.Asset.Hash,
		); err != nil {
			return nil, err
		}
		if dur.Valid {
			v := dur.Int64
			f.Asset.DurationMS = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
