// Package harness runs registered units of work in isolated child processes
// with a wall-clock deadline, marshalling the result or failure back across
// the process boundary.
//
// The child is a re-exec of the current binary: ChildMain, called first
// thing in main, turns the new process into the child entry point. The
// result travels back as a one-shot gob envelope over a dedicated pipe;
// with fresh isolation, child log records are relayed to the parent's
// logging sinks through a forwarding bridge.
package harness

import (
	"fmt"
	"time"

	"github.com/psantana5/procbox/pkg/logging"
	"github.com/psantana5/procbox/pkg/metrics"
	"github.com/psantana5/procbox/pkg/proc"
	"github.com/psantana5/procbox/pkg/shutdown"
	"github.com/psantana5/procbox/pkg/task"
)

// DefaultTTL applies when Options.TTL is zero.
const DefaultTTL = 60 * time.Second

// Options configure a single run.
type Options struct {
	// TTL is the wall-clock deadline for the child.
	TTL time.Duration
	// Isolation selects the child's runtime context (default Inherit).
	Isolation Isolation
	// Expected lists error kinds whose failures skip verbose stack logging.
	// They are still returned to the caller.
	Expected task.KindSet
}

// Runner executes units of work in subprocesses. Concurrent Run calls are
// fully independent; the Runner itself holds no per-call state.
type Runner struct {
	// Log is the parent-side logger. With fresh isolation it is also the
	// sink the bridge replays child records into.
	Log *logging.Logger
	// Metrics, when set, receives run outcomes.
	Metrics *metrics.Collector
	// Shutdown, when set, gets bridge teardown registered as a safety net
	// for abnormal parent exit. Correctness never relies on it.
	Shutdown *shutdown.Manager
}

// New creates a Runner logging through log.
func New(log *logging.Logger) *Runner {
	if log == nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	return &Runner{Log: log}
}

// Run executes work in a subprocess with opts.TTL seconds to complete.
//
// The calling goroutine blocks for the whole run. On overrun the child is
// killed unconditionally and Run then joins it without a second deadline;
// that tail is unbounded and is a known latency risk, accepted so a killed
// child is never abandoned half-dead.
//
// Failure modes: *TimeoutError on overrun, a re-raised *task.Error when the
// work failed with an ordinary error (kind and message preserved), a generic
// wrapping error when the child terminated abnormally, and *InternalError
// when the child exited without writing an envelope.
func (r *Runner) Run(work task.T, opts Options) (any, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Isolation == "" {
		opts.Isolation = Inherit
	}

	c, err := r.launch(work, opts.Isolation)
	if err != nil {
		return nil, err
	}

	if r.Metrics != nil {
		r.Metrics.RunStarted()
	}
	start := time.Now()
	value, outcome, err := r.await(work, c, opts)
	if r.Metrics != nil {
		r.Metrics.RunFinished(work.Name, outcome, time.Since(start))
	}
	return value, err
}

// await blocks on the child's completion or the deadline, whichever is
// first, then tears down the bridge and interprets the envelope.
func (r *Runner) await(work task.T, c *child, opts Options) (any, string, error) {
	waitDone := make(chan error, 1)
	go func() {
		waitDone <- c.cmd.Wait()
	}()

	timedOut := false
	select {
	case <-waitDone:
		// Child exited within the deadline; the envelope decides success or
		// failure, not the exit status.
	case <-time.After(opts.TTL):
		timedOut = true
		_ = c.cmd.Process.Kill()
		// Unbounded join: guaranteed termination over bounded latency.
		<-waitDone
	}

	// Bridge teardown happens in every path before returning or failing.
	if c.bridge != nil {
		c.bridge.Stop()
	}

	if timedOut {
		pid := c.cmd.Process.Pid
		if proc.Alive(pid) {
			r.Log.Warn("child still visible after kill", map[string]any{"task": work.Name, "pid": pid})
		}
		return nil, metrics.OutcomeTimeout, &TimeoutError{Task: work.Name, TTL: opts.TTL, Pid: pid}
	}

	res, ok := <-c.result
	if !ok || res.err != nil {
		// The child died without writing an envelope (OS kill, crash before
		// the write). Never silently a success.
		cause := res.err
		if cause == nil {
			cause = fmt.Errorf("no envelope received")
		}
		return nil, metrics.OutcomeInternal, &InternalError{Task: work.Name, Args: argsString(work), Cause: cause}
	}

	return r.interpret(work, res.env, opts.Expected)
}

// interpret turns an envelope into the caller-facing value or error.
func (r *Runner) interpret(work task.T, env *envelope, expected task.KindSet) (any, string, error) {
	switch env.Status {
	case statusSuccess:
		return env.Value, metrics.OutcomeSuccess, nil

	case statusFailure:
		if env.Panicked {
			// Lower-level termination: always logged, surfaced as a generic
			// wrap. Callers must not depend on the kind here.
			r.Log.Error("panic in subprocess", map[string]any{"task": work.Name, "stack": env.Stack})
			return nil, metrics.OutcomePanic, fmt.Errorf("subprocess %s terminated abnormally: %s", work.Name, env.ErrMessage)
		}
		if !expected.Has(env.ErrKind) {
			r.Log.Error("error in subprocess", map[string]any{"task": work.Name, "kind": string(env.ErrKind), "stack": env.Stack})
		}
		return nil, metrics.OutcomeFailure, &task.Error{Kind: env.ErrKind, Message: env.ErrMessage}

	default:
		return nil, metrics.OutcomeInternal, &InternalError{
			Task:  work.Name,
			Args:  argsString(work),
			Cause: fmt.Errorf("unexpected result shape %q", env.Status),
		}
	}
}

func argsString(work task.T) string {
	return fmt.Sprintf("%v", work.Args)
}
