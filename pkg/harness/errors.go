package harness

import (
	"fmt"
	"time"
)

// TimeoutError reports that the child did not complete within the TTL and
// was force-terminated. It is never retried by the harness itself; callers
// may compose the run with the retry package.
type TimeoutError struct {
	Task string
	TTL  time.Duration
	Pid  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("failed to %s after %s", e.Task, e.TTL)
}

// InternalError reports a harness bug or race: the child exited without
// leaving an envelope, or the envelope had an unrecognized shape. It is
// always fatal and never suppressed by the expected-errors set.
type InternalError struct {
	Task  string
	Args  string
	Cause error
}

func (e *InternalError) Error() string {
	if e.Args != "" {
		return fmt.Sprintf("failed to get result from subprocess %s(%s): %v", e.Task, e.Args, e.Cause)
	}
	return fmt.Sprintf("failed to get result from subprocess %s: %v", e.Task, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}
