package usage

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is wrapped by every window validation failure so callers
// can classify with errors.Is without matching message text.
var ErrInvalidWindow = errors.New("invalid report window")

func invalidWindowf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidWindow, fmt.Sprintf(format, args...))
}

// ArgumentError rejects an invocation whose flags cannot form a valid query.
// Same failure class as an invalid window: reported before any command runs.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return "invalid arguments: " + e.Reason
}

// AccessDeniedError is a decision, not a fault: the caller reports the reason
// and exits non-zero without producing any output.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// SourceUnavailableError means the accounting backend could not be queried at
// all. No report is produced; the failure is surfaced, never retried silently.
type SourceUnavailableError struct {
	Op  string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("accounting source unavailable (%s): %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// PartialDataError means the backend answered but some records in the window
// could not be used. The report is still produced and must carry the caveat.
type PartialDataError struct {
	Detail string
}

func (e *PartialDataError) Error() string {
	return "incomplete accounting data: " + e.Detail
}

// AggregationError marks an invariant violation in the input records. It is
// fatal: aborting beats producing a misleading report.
type AggregationError struct {
	Detail string
}

func (e *AggregationError) Error() string {
	return "aggregation invariant violated: " + e.Detail
}
