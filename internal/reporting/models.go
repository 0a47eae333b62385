package reporting

import "time"

// TimeRange is half-open: From inclusive, To exclusive.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call-log metrics.
// Tenant isolation: OrgID is required.
type CallsSummaryRequest struct {
	OrgID     string    `json:"org_id"`
	Range     TimeRange `json:"range"`
	HotlineID string    `json:"hotline_id,omitempty"`
}

type CallsSummary struct {
	OrgID     string    `json:"org_id"`
	HotlineID string    `json:"hotline_id,omitempty"`
	Range     TimeRange `json:"range"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	CanceledCalls   int `json:"canceled_calls"`
	InProgressCalls int `json:"in_progress_calls"`
	// OpenCalls are rows still queued or ringing, usually because no status callback arrived yet.
	OpenCalls int `json:"open_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls int `json:"recorded_calls"`

	// Truncated is set when the range held more rows than one summary scans.
	Truncated bool `json:"truncated,omitempty"`
}
