package telephony

import (
	"strconv"
	"strings"
	"time"

	"hotline-platform/internal/calls"
)

// TwilioInboundForm captures the voice webhook fields we act on.
// Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/twiml#request-parameters
//
// A request without To is answered as an unconfigured number without touching storage.
type TwilioInboundForm struct {
	CallSid    string `form:"CallSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"`
	To         string `form:"To" binding:"required"`
	Direction  string `form:"Direction"`
	CallStatus string `form:"CallStatus"`
	CallerName string `form:"CallerName"`
}

// InboundCallRequest is the provider-agnostic view of an inbound call.
type InboundCallRequest struct {
	CallSid    string
	From       string
	To         string
	ReceivedAt time.Time
}

func (f TwilioInboundForm) ToInboundCallRequest(receivedAt time.Time) InboundCallRequest {
	return InboundCallRequest{
		CallSid:    strings.TrimSpace(f.CallSid),
		From:       normalizePhone(f.From),
		To:         normalizePhone(f.To),
		ReceivedAt: receivedAt,
	}
}

// TwilioStatusForm is the status callback payload.
type TwilioStatusForm struct {
	CallSid      string `form:"CallSid" binding:"required"`
	CallStatus   string `form:"CallStatus" binding:"required"`
	CallDuration string `form:"CallDuration"`
	RecordingUrl string `form:"RecordingUrl"`
}

// ToStatusUpdate converts the callback. ok is false when CallStatus is not a known
// value; a malformed CallDuration is dropped rather than rejected.
func (f TwilioStatusForm) ToStatusUpdate() (u calls.StatusUpdate, ok bool) {
	status, ok := calls.ParseCallStatus(f.CallStatus)
	if !ok {
		return calls.StatusUpdate{}, false
	}
	u = calls.StatusUpdate{
		CallSid:      strings.TrimSpace(f.CallSid),
		Status:       status,
		RecordingURL: strings.TrimSpace(f.RecordingUrl),
	}
	if d, err := strconv.Atoi(strings.TrimSpace(f.CallDuration)); err == nil && d >= 0 {
		u.DurationSeconds = &d
	}
	return u, true
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty for From; keep as-is.
	return strings.TrimSpace(s)
}
