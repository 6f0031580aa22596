package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/psantana5/procbox/pkg/logging"
	"github.com/psantana5/procbox/pkg/task"
)

// Built-in tasks. Real deployments register their own units of work the same
// way; these exist so the CLI is usable out of the box and double as smoke
// targets for the harness.
func init() {
	task.Register("echo", "return the joined arguments", func(ctx context.Context, log *logging.Logger, args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%v", a)
		}
		msg := strings.Join(parts, " ")
		log.Info("echoing", map[string]any{"message": msg})
		return msg, nil
	})

	task.Register("sleep", "sleep for the given duration (e.g. 2s)", func(ctx context.Context, log *logging.Logger, args []any) (any, error) {
		if len(args) != 1 {
			return nil, task.NewError("bad_args", "sleep wants exactly one duration argument, got %d", len(args))
		}
		d, err := time.ParseDuration(fmt.Sprintf("%v", args[0]))
		if err != nil {
			return nil, task.NewError("bad_args", "parsing duration: %v", err)
		}
		time.Sleep(d)
		return fmt.Sprintf("slept %s", d), nil
	})

	task.Register("fail", "fail with the given error kind and message", func(ctx context.Context, log *logging.Logger, args []any) (any, error) {
		if len(args) != 2 {
			return nil, task.NewError("bad_args", "fail wants <kind> <message>, got %d args", len(args))
		}
		return nil, task.NewError(task.Kind(fmt.Sprintf("%v", args[0])), "%v", args[1])
	})
}
