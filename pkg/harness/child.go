package harness

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"golang.org/x/sys/unix"

	"github.com/psantana5/procbox/pkg/logging"
	"github.com/psantana5/procbox/pkg/task"
)

const (
	childEnv = "PROCBOX_CHILD"

	// Pipe fds handed to the child via ExtraFiles: fd 3 carries the result
	// envelope back to the parent, fd 4 (fresh isolation only) carries
	// forwarded log records.
	envelopeFD = 3
	logFD      = 4

	// Raised open-file-descriptor ceiling. Concurrent fan-out of children
	// can exhaust a default 1024 limit.
	fdLimit = 65000
)

// ChildMain is the child entry point hook. main (and TestMain, for test
// binaries that exercise the harness) must call it before doing anything
// else: in the parent it returns immediately, in a re-exec'ed child it runs
// the unit of work, writes the result envelope and exits the process.
func ChildMain() {
	if os.Getenv(childEnv) != "1" {
		return
	}
	os.Exit(childRun())
}

func childRun() int {
	raiseFDLimit()

	envelopePipe := os.NewFile(envelopeFD, "envelope")
	if envelopePipe == nil {
		fmt.Fprintln(os.Stderr, "procbox child: envelope pipe missing")
		return 1
	}
	defer envelopePipe.Close()

	spec, err := readSpec(os.Stdin)
	if err != nil {
		// Still terminate through the envelope: the parent must never see a
		// child that died without one unless the harness itself is broken.
		_ = writeEnvelope(envelopePipe, &envelope{
			Status:     statusFailure,
			ErrKind:    task.KindError,
			ErrMessage: fmt.Sprintf("decoding work spec: %v", err),
			Stack:      string(debug.Stack()),
		})
		return 1
	}

	log := childLogger(spec)
	env := execute(spec, log)

	if err := writeEnvelope(envelopePipe, env); err != nil {
		fmt.Fprintf(os.Stderr, "procbox child: writing envelope: %v\n", err)
		return 1
	}
	return 0
}

// childLogger builds the logger handed to the unit of work. With fresh
// isolation the child re-initialized its runtime state, so visibility is
// recovered by forwarding records through the bridge pipe at INFO or above.
// Failure to wire the bridge is non-fatal; the child falls back to stderr.
func childLogger(spec *childSpec) *logging.Logger {
	if spec.ForwardLogs {
		logPipe := os.NewFile(logFD, "logbridge")
		if logPipe != nil {
			return logging.NewForwarder(logPipe, logging.INFO)
		}
		fmt.Fprintln(os.Stderr, "non-fatal: log bridge pipe missing, child logs stay local")
	}
	return logging.NewLogger(logging.INFO, false)
}

// execute runs the unit of work exactly once and folds every possible
// outcome into an envelope. A recovered panic becomes a Panicked failure;
// nothing propagates past this boundary.
func execute(spec *childSpec, log *logging.Logger) (env *envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			env = &envelope{
				Status:     statusFailure,
				ErrMessage: fmt.Sprintf("%v", rec),
				Stack:      string(debug.Stack()),
				Panicked:   true,
			}
		}
	}()

	fn, ok := task.Lookup(spec.Task)
	if !ok {
		return &envelope{
			Status:     statusFailure,
			ErrKind:    task.KindUnregistered,
			ErrMessage: fmt.Sprintf("task %q is not registered in this binary", spec.Task),
			Stack:      string(debug.Stack()),
		}
	}

	value, err := fn(context.Background(), log, spec.Args)
	if err != nil {
		return &envelope{
			Status:     statusFailure,
			ErrKind:    task.KindOf(err),
			ErrMessage: err.Error(),
			Stack:      string(debug.Stack()),
		}
	}
	return &envelope{Status: statusSuccess, Value: value}
}

// raiseFDLimit lifts RLIMIT_NOFILE to a high fixed ceiling. Best effort: a
// diagnostic convenience, not correctness-critical.
func raiseFDLimit() {
	lim := unix.Rlimit{Cur: fdLimit, Max: fdLimit}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		fmt.Fprintf(os.Stderr, "non-fatal: raising RLIMIT_NOFILE to %d: %v\n", fdLimit, err)
	}
}
