package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/psantana5/procbox/pkg/logging"
)

// Func is a unit of work body. It receives the logger of the process it runs
// in: in the parent that is the caller's logger, in a subprocess it is the
// child-side logger installed by the harness (a forwarding logger when the
// run uses fresh isolation).
type Func func(ctx context.Context, log *logging.Logger, args []any) (any, error)

// T is a unit of work: a registered function name with pre-bound arguments.
// Immutable once constructed.
type T struct {
	Name string
	Args []any
}

// New binds args to a registered task name.
func New(name string, args ...any) T {
	return T{Name: name, Args: args}
}

// String renders the work for diagnostics: name plus bound arguments.
func (t T) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(parts, ", "))
}

type entry struct {
	fn          Func
	description string
}

var (
	mu       sync.RWMutex
	registry = make(map[string]entry)
)

// Register adds a task to the process-wide registry. Tasks must be registered
// from init or main before any subprocess run, so that the re-exec'ed child
// binary knows the same names. Registering a duplicate name panics.
func Register(name, description string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("task: Register with empty name")
	}
	if fn == nil {
		panic(fmt.Sprintf("task: Register %q with nil func", name))
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("task: Register called twice for %q", name))
	}
	registry[name] = entry{fn: fn, description: description}
}

// Lookup returns the registered function for name.
func Lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[name]
	return e.fn, ok
}

// Description returns the registered description for name.
func Description(name string) string {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name].description
}

// Names returns all registered task names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
