package telephony

import (
	"context"
	"net/http"
	"time"

	"hotline-platform/internal/calls"
	"hotline-platform/internal/metrics"
	"hotline-platform/internal/playback"
	"hotline-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const contentTypeXML = "text/xml; charset=utf-8"

// InboundRouter decides how an inbound call is answered.
type InboundRouter interface {
	HandleInbound(ctx context.Context, req InboundCallRequest) playback.Plan
}

// StatusReconciler applies status callbacks to call logs.
type StatusReconciler interface {
	Reconcile(ctx context.Context, u calls.StatusUpdate) error
}

// WebhookHandler converts Twilio webhooks to internal types, delegates, and writes TwiML.
//
// No business logic here. The voice endpoint always answers 200 with a playable
// document; faults become a spoken apology.
type WebhookHandler struct {
	Router InboundRouter
	Calls  StatusReconciler

	// Voice is used for responses produced here, before any routing happens.
	Voice playback.Voice

	Now func() time.Time
}

func (h WebhookHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			log.Error("inbound call handler panicked", "panic", p)
			metrics.InboundCalls.WithLabelValues(string(playback.OutcomeError)).Inc()
			writeTwiML(c, FallbackTwiML())
		}
	}()

	plan := h.route(c)

	doc, err := Encode(plan)
	if err != nil {
		metrics.EncodeFaults.Inc()
		log.Error("twiml encode failed", "outcome", plan.Outcome, "err", err)
		doc = FallbackTwiML()
	}

	metrics.InboundDuration.Observe(time.Since(start).Seconds())
	writeTwiML(c, doc)
}

func (h WebhookHandler) route(c *gin.Context) playback.Plan {
	log := logger.FromGin(c)

	var form TwilioInboundForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		log.Info("inbound call rejected at boundary", "err", err)
		metrics.InboundCalls.WithLabelValues(string(playback.OutcomeDeclined)).Inc()
		return playback.Declined(playback.ReasonNotConfigured, h.Voice)
	}
	if h.Router == nil {
		log.Error("inbound router not configured")
		return playback.Declined(playback.ReasonProcessingError, h.Voice)
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	req := form.ToInboundCallRequest(now())
	ctx := logger.With(c.Request.Context(), log)
	return h.Router.HandleInbound(ctx, req)
}

// HandleStatusCallback records the final state of a call. Twilio only needs a 2xx.
func (h WebhookHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	var form TwilioStatusForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		log.Warn("status callback rejected", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid and CallStatus required"})
		return
	}

	u, ok := form.ToStatusUpdate()
	if !ok {
		log.Warn("status callback with unknown status", "call_sid", form.CallSid, "status", form.CallStatus)
		c.Status(http.StatusNoContent)
		return
	}
	if form.CallDuration != "" && u.DurationSeconds == nil {
		log.Warn("status callback with invalid duration", "call_sid", u.CallSid, "duration", form.CallDuration)
	}

	if h.Calls == nil {
		log.Error("call log reconciler not configured")
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Calls.Reconcile(c.Request.Context(), u); err != nil {
		// Twilio does not retry status callbacks; a 5xx would only add noise on their side.
		log.Warn("call log reconcile failed", "call_sid", u.CallSid, "status", u.Status, "err", err)
	}
	c.Status(http.StatusNoContent)
}

func writeTwiML(c *gin.Context, doc string) {
	c.Header("Content-Type", contentTypeXML)
	c.String(http.StatusOK, doc)
}
