package reporting

import (
	"context"
	"errors"

	"hotline-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// CallLister is the read side of calls.Repository. It must enforce org filtering.
type CallLister interface {
	List(ctx context.Context, f calls.Filter) ([]calls.CallLog, error)
}

type Service struct {
	calls CallLister
}

func NewService(c CallLister) *Service { return &Service{calls: c} }

// CallsSummary aggregates the organization's call logs started inside req.Range.
// Average duration is taken over rows that reported a duration.
func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.OrgID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.calls == nil {
		return CallsSummary{}, errors.New("reporting: call log store not configured")
	}

	rows, err := s.calls.List(ctx, calls.Filter{
		OrgID:     req.OrgID,
		HotlineID: req.HotlineID,
		From:      req.Range.From,
		To:        req.Range.To,
		Limit:     calls.MaxListLimit,
	})
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{OrgID: req.OrgID, HotlineID: req.HotlineID, Range: req.Range}
	out.Truncated = len(rows) >= calls.MaxListLimit

	timed := 0
	for _, c := range rows {
		out.TotalCalls++
		if c.DurationSeconds != nil {
			out.TotalDurationSeconds += *c.DurationSeconds
			timed++
		}
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusRinging, calls.CallStatusQueued:
			out.OpenCalls++
		}
	}
	if timed > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / timed
	}
	return out, nil
}
