package harness

import (
	"encoding/gob"
	"io"
	"time"

	"github.com/psantana5/procbox/pkg/task"
)

// Envelope statuses. The zero value is deliberately neither of them: a
// decoded envelope that carries anything else is an unexpected result shape.
const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// envelope is the tagged result container written exactly once by the child
// and read by the parent. Success carries the task's return value; Failure
// carries the error kind, message and a rendered stack. Panicked marks a
// lower-level termination whose kind must not be relied upon by callers.
type envelope struct {
	Status     string
	Value      any
	ErrKind    task.Kind
	ErrMessage string
	Stack      string
	Panicked   bool
}

// childSpec is what the parent hands the child over stdin: the unit of work
// plus the bridge decision made at launch time.
type childSpec struct {
	Task        string
	Args        []any
	ForwardLogs bool
}

func init() {
	// Values and args cross the process boundary inside an interface, so
	// their concrete types must be known to gob on both sides. Callers with
	// custom payload types use RegisterType.
	gob.Register(int(0))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(uint64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
	gob.Register([]byte(nil))
	gob.Register([]string(nil))
	gob.Register([]any(nil))
	gob.Register(map[string]string(nil))
	gob.Register(map[string]any(nil))
	gob.Register(time.Duration(0))
	gob.Register(time.Time{})
}

// RegisterType makes a custom argument or return type encodable across the
// process boundary. Call it from init; parent and child share the binary,
// so one call site covers both.
func RegisterType(value any) {
	gob.Register(value)
}

func writeEnvelope(w io.Writer, env *envelope) error {
	return gob.NewEncoder(w).Encode(env)
}

func readEnvelope(r io.Reader) (*envelope, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func writeSpec(w io.Writer, spec *childSpec) error {
	return gob.NewEncoder(w).Encode(spec)
}

func readSpec(r io.Reader) (*childSpec, error) {
	var spec childSpec
	if err := gob.NewDecoder(r).Decode(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
