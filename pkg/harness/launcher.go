package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/psantana5/procbox/pkg/logging"
	"github.com/psantana5/procbox/pkg/task"
)

// Isolation selects how much of the parent's runtime context the child
// shares. It is a configuration choice, never auto-detected.
type Isolation string

const (
	// Inherit hands the parent's stderr/stdout to the child, so child log
	// output lands in the same sink without any relaying.
	Inherit Isolation = "inherit"
	// Fresh assumes the child re-initializes its logging; the launcher wires
	// a log forwarding bridge to recover visibility into the child's output.
	Fresh Isolation = "fresh"
)

// envelopeResult is what the decoder goroutine delivers: exactly one of
// these is sent per launch, then the channel is closed.
type envelopeResult struct {
	env *envelope
	err error
}

// child bundles everything the enforcer needs to own for one call.
type child struct {
	cmd    *exec.Cmd
	result <-chan envelopeResult
	bridge *logging.Listener
}

// launch spawns the unit of work in an isolated process and wires its
// communication channels. The returned child is exclusively owned by the
// calling run for its whole duration; nothing survives the call.
func (r *Runner) launch(work task.T, isolation Isolation) (*child, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving own executable: %w", err)
	}

	envelopeR, envelopeW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating envelope pipe: %w", err)
	}

	// The bridge is created before the spawn so the child can be handed the
	// queue end at construction time.
	var bridge *logging.Listener
	var logW *os.File
	if isolation == Fresh {
		logR, w, err := os.Pipe()
		if err != nil {
			envelopeR.Close()
			envelopeW.Close()
			return nil, fmt.Errorf("creating log bridge pipe: %w", err)
		}
		logW = w
		bridge = logging.NewListener(logR, r.Log)
		bridge.Start()
		if r.Shutdown != nil {
			// Safety net only: every run path below stops the bridge itself.
			b := bridge
			r.Shutdown.Register(func(context.Context) error {
				b.Abort()
				return nil
			})
		}
	}

	var spec bytes.Buffer
	if err := writeSpec(&spec, &childSpec{
		Task:        work.Name,
		Args:        work.Args,
		ForwardLogs: isolation == Fresh,
	}); err != nil {
		envelopeR.Close()
		envelopeW.Close()
		closeBridge(bridge, logW)
		return nil, fmt.Errorf("encoding work spec: %w", err)
	}

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), childEnv+"=1")
	cmd.Stdin = &spec
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{envelopeW}
	if logW != nil {
		cmd.ExtraFiles = append(cmd.ExtraFiles, logW)
	}

	if err := cmd.Start(); err != nil {
		envelopeR.Close()
		envelopeW.Close()
		closeBridge(bridge, logW)
		return nil, fmt.Errorf("starting subprocess for %s: %w", work.Name, err)
	}

	// Close the parent's duplicates of the child-side write ends. The pipes
	// now reach EOF exactly when the child exits, which is what makes the
	// post-wait envelope read deterministic.
	envelopeW.Close()
	if logW != nil {
		logW.Close()
	}

	result := make(chan envelopeResult, 1)
	go func() {
		defer close(result)
		defer envelopeR.Close()
		env, err := readEnvelope(envelopeR)
		result <- envelopeResult{env: env, err: err}
	}()

	return &child{cmd: cmd, result: result, bridge: bridge}, nil
}

func closeBridge(bridge *logging.Listener, logW *os.File) {
	if logW != nil {
		logW.Close()
	}
	if bridge != nil {
		bridge.Abort()
	}
}
