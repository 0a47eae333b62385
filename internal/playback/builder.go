package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hotline-platform/internal/directory"
	"hotline-platform/internal/metrics"
	"hotline-platform/internal/storage"
)

// ErrContentUnavailable means a hotline's content could not be turned into playable actions.
var ErrContentUnavailable = errors.New("playback: content unavailable")

// errSignFailed marks the case where a clip exists but no URL could be issued for it.
var errSignFailed = errors.New("playback: audio locator could not be signed")

// Only the first playlist entry is played. Hotline owners rely on this today;
// multi-clip playback needs a product decision first.
const playlistLimit = 1

// AudioLister is the playlist read the builder needs from the directory.
type AudioLister interface {
	ListHotlineAudio(ctx context.Context, hotlineID string, limit int) ([]directory.HotlineAudioFile, error)
}

type Options struct {
	Voice Voice

	// AudioURLTTL is raised to storage.MinTTL when shorter.
	AudioURLTTL time.Duration

	// Timeout bounds each collaborator call. Zero means the caller's context only.
	Timeout time.Duration
}

// Builder produces plans. It never fails: every problem degrades to a spoken notice.
type Builder struct {
	audio  AudioLister
	signer storage.Signer
	opts   Options
	log    *slog.Logger
}

func NewBuilder(audio AudioLister, signer storage.Signer, opts Options, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	opts.Voice = opts.Voice.withDefaults()
	if opts.AudioURLTTL < storage.MinTTL {
		opts.AudioURLTTL = storage.MinTTL
	}
	return &Builder{audio: audio, signer: signer, opts: opts, log: log}
}

// Build maps a resolved hotline to its plan.
func (b *Builder) Build(ctx context.Context, h directory.Hotline) Plan {
	switch h.Mode {
	case directory.ModeTTS:
		script := strings.TrimSpace(h.TTSText)
		if script == "" {
			return b.unconfigured(h)
		}
		return Plan{Outcome: OutcomeSpoken, Actions: []Action{b.opts.Voice.speak(script), hangup}}

	case directory.ModeAudio:
		url, err := b.firstClipURL(ctx, h)
		switch {
		case err == nil:
			return Plan{Outcome: OutcomeAudio, Actions: []Action{{Kind: ActionPlay, URLs: []string{url}}, hangup}}
		case errors.Is(err, errSignFailed):
			b.log.Warn("audio unavailable", "org_id", h.OrgID, "hotline_id", h.ID, "err", err)
			return Plan{Outcome: OutcomeContentUnavailable, Actions: []Action{b.opts.Voice.speak(MsgAudioUnavailable), hangup}}
		default:
			b.log.Info("hotline has no playable audio", "org_id", h.OrgID, "hotline_id", h.ID, "err", err)
			return b.unconfigured(h)
		}

	case directory.ModeSimpleIVR:
		return Declined(ReasonMenuUnavailable, b.opts.Voice)

	default:
		b.log.Warn("unknown hotline mode", "org_id", h.OrgID, "hotline_id", h.ID, "mode", h.Mode)
		return b.unconfigured(h)
	}
}

func (b *Builder) unconfigured(h directory.Hotline) Plan {
	return Plan{
		Outcome: OutcomeUnconfigured,
		Actions: []Action{b.opts.Voice.speak(WelcomeUnfinished(h.Name)), hangup},
	}
}

// firstClipURL returns a signed URL for the first playlist entry.
// Errors wrap ErrContentUnavailable; signing problems also wrap errSignFailed.
func (b *Builder) firstClipURL(ctx context.Context, h directory.Hotline) (string, error) {
	files, err := b.listAudio(ctx, h.ID)
	if err != nil {
		return "", fmt.Errorf("%w: list playlist: %v", ErrContentUnavailable, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: empty playlist", ErrContentUnavailable)
	}

	url, err := b.sign(ctx, files[0].Asset.StoragePath)
	if err != nil {
		metrics.AudioSignFailures.Inc()
		return "", fmt.Errorf("%w: %w: %v", ErrContentUnavailable, errSignFailed, err)
	}
	return url, nil
}

func (b *Builder) listAudio(ctx context.Context, hotlineID string) ([]directory.HotlineAudioFile, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return b.audio.ListHotlineAudio(ctx, hotlineID, playlistLimit)
}

func (b *Builder) sign(ctx context.Context, storagePath string) (string, error) {
	if b.signer == nil {
		return "", errors.New("no signer configured")
	}
	ctx, cancel := b.bound(ctx)
	defer cancel()
	return b.signer.SignAudioURL(ctx, storagePath, b.opts.AudioURLTTL)
}

func (b *Builder) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.opts.Timeout)
}
