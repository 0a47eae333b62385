package calls

import (
	"strings"
	"time"
)

// CallLog is one inbound call attempt on a hotline.
//
// Multi-tenant invariant: OrgID is required on every row.
// Rows are inserted once when the call is answered and updated by status callbacks; never deleted here.
type CallLog struct {
	ID        string `json:"id" db:"id"`
	OrgID     string `json:"org_id" db:"org_id"`
	HotlineID string `json:"hotline_id" db:"hotline_id"`

	// CallSid is the provider call identifier, unique per call.
	CallSid string `json:"call_sid" db:"call_sid"`

	From string `json:"from_number" db:"from_number"`
	To   string `json:"to_number" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	DurationSeconds *int `json:"duration_s,omitempty" db:"duration_s"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`
}

// CallStatus uses the provider's status vocabulary verbatim.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// ParseCallStatus accepts the provider's values case-insensitively.
func ParseCallStatus(s string) (CallStatus, bool) {
	switch st := CallStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case CallStatusQueued, CallStatusRinging, CallStatusInProgress, CallStatusCompleted,
		CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return st, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further status transitions follow.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	default:
		return false
	}
}

// Attempt is what the router knows about a call when it is answered.
type Attempt struct {
	OrgID     string
	HotlineID string
	CallSid   string
	From      string
	To        string
}

// StatusUpdate is the terminal report for a call.
type StatusUpdate struct {
	CallSid         string
	Status          CallStatus
	DurationSeconds *int
	RecordingURL    string
}

// Filter scopes call-log listings. OrgID is required.
type Filter struct {
	OrgID     string
	HotlineID string
	From      time.Time
	To        time.Time
	Limit     int
}
