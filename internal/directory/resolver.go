package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hotline-platform/internal/metrics"
)

// Resolver maps a dialed number to the owning organization and its single active hotline.
// It is read-only and holds no state between calls.
type Resolver struct {
	repo Repository
	log  *slog.Logger

	// Timeout bounds each repository call. Zero means the caller's context only.
	Timeout time.Duration
}

func NewResolver(repo Repository, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{repo: repo, log: log}
}

// Resolve returns ErrNotConfigured when the number is unknown (or the lookup failed)
// and ErrNoActiveHotline when nothing active is bound to it.
//
// Matching is exact on E.164 after trimming surrounding whitespace.
func (r *Resolver) Resolve(ctx context.Context, dialed string) (Binding, error) {
	dialed = strings.TrimSpace(dialed)
	if dialed == "" {
		return Binding{}, ErrNotConfigured
	}

	pn, err := r.findPhoneNumber(ctx, dialed)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("phone number lookup failed", "to", dialed, "err", err)
		}
		return Binding{}, ErrNotConfigured
	}

	hotlines, err := r.findActiveHotlines(ctx, pn.ID)
	if err != nil {
		r.log.Warn("active hotline lookup failed", "org_id", pn.OrgID, "phone_number_id", pn.ID, "err", err)
		return Binding{}, ErrNoActiveHotline
	}
	if len(hotlines) == 0 {
		return Binding{}, ErrNoActiveHotline
	}
	if len(hotlines) > 1 {
		// Storage enforces one active hotline per number; getting here means the index is missing.
		metrics.DirectoryIntegrityFaults.Inc()
		r.log.Warn("multiple active hotlines bound to number",
			"org_id", pn.OrgID,
			"phone_number_id", pn.ID,
			"selected_hotline_id", hotlines[0].ID,
		)
	}

	return Binding{OrgID: pn.OrgID, PhoneNumber: pn, Hotline: hotlines[0]}, nil
}

func (r *Resolver) findPhoneNumber(ctx context.Context, e164 string) (PhoneNumber, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.repo.FindPhoneNumber(ctx, e164)
}

func (r *Resolver) findActiveHotlines(ctx context.Context, phoneNumberID string) ([]Hotline, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	// Two rows are enough to detect a violated uniqueness rule.
	return r.repo.FindActiveHotlines(ctx, phoneNumberID, 2)
}

func (r *Resolver) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.Timeout)
}
