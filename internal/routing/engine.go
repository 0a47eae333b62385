package routing

import (
	"context"
	"errors"

	"hotline-platform/internal/calls"
	"hotline-platform/internal/directory"
	"hotline-platform/internal/metrics"
	"hotline-platform/internal/playback"
	"hotline-platform/internal/telephony"
	"hotline-platform/pkg/logger"
)

// Engine answers inbound calls: it resolves the dialed number, builds the playback
// plan and records the attempt.
//
// Stages run in order Resolving, Logging, PlanBuilding. Each stage degrades instead of
// failing, so HandleInbound always returns a plan that ends the call cleanly.
// No retries happen here; a slow collaborator is cut off by its own timeout.
type Engine struct {
	directory DirectoryResolver
	playback  PlanBuilder
	calls     AttemptRecorder
	voice     playback.Voice
}

// DirectoryResolver is satisfied by *directory.Resolver.
type DirectoryResolver interface {
	Resolve(ctx context.Context, dialed string) (directory.Binding, error)
}

// PlanBuilder is satisfied by *playback.Builder.
type PlanBuilder interface {
	Build(ctx context.Context, h directory.Hotline) playback.Plan
}

// AttemptRecorder is satisfied by *calls.Recorder.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a calls.Attempt)
}

func NewEngine(dir DirectoryResolver, builder PlanBuilder, recorder AttemptRecorder, voice playback.Voice) *Engine {
	return &Engine{directory: dir, playback: builder, calls: recorder, voice: voice}
}

// Stage names used in logs.
const (
	stageResolving    = "resolving"
	stagePlanBuilding = "plan_building"
	stageLogging      = "logging"
)

func (e *Engine) HandleInbound(ctx context.Context, req telephony.InboundCallRequest) (plan playback.Plan) {
	log := logger.From(ctx).With("call_sid", req.CallSid, "to", req.To)
	stage := stageResolving

	defer func() {
		if p := recover(); p != nil {
			log.Error("inbound routing panicked", "stage", stage, "panic", p)
			plan = playback.Declined(playback.ReasonProcessingError, e.voice)
		}
		metrics.InboundCalls.WithLabelValues(string(plan.Outcome)).Inc()
	}()

	binding, err := e.directory.Resolve(ctx, req.To)
	if err != nil {
		reason := playback.ReasonNotConfigured
		if errors.Is(err, directory.ErrNoActiveHotline) {
			reason = playback.ReasonNoActiveHotline
		}
		log.Info("inbound call declined", "stage", stage, "reason", reason)
		return playback.Declined(reason, e.voice)
	}
	log = log.With("org_id", binding.OrgID, "hotline_id", binding.Hotline.ID)

	// Logged before building so a routed call keeps its row even if building fails.
	stage = stageLogging
	e.calls.RecordAttempt(ctx, calls.Attempt{
		OrgID:     binding.OrgID,
		HotlineID: binding.Hotline.ID,
		CallSid:   req.CallSid,
		From:      req.From,
		To:        req.To,
	})

	stage = stagePlanBuilding
	plan = e.playback.Build(ctx, binding.Hotline)

	log.Info("inbound call routed", "mode", binding.Hotline.Mode, "outcome", plan.Outcome)
	return plan
}
