package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/procbox/pkg/harness"
	"github.com/psantana5/procbox/pkg/metrics"
	"github.com/psantana5/procbox/pkg/retry"
	"github.com/psantana5/procbox/pkg/task"
)

var (
	runTTL          time.Duration
	runIsolation    string
	runRetries      int
	runRetryDelay   time.Duration
	runExpect       []string
	runPrintMetrics bool
)

var runCmd = &cobra.Command{
	Use:   "run <task> [args...]",
	Short: "Run a registered task in a subprocess with a deadline",
	Long: `Run executes a registered task in an isolated child process. The child has
--ttl to complete; on overrun it is killed unconditionally and the run fails
with a timeout error.

Isolation modes:
  inherit  the child shares the parent's stderr/stdout, so its log output
           lands in the same sink directly
  fresh    the child re-initializes logging; a forwarding bridge relays its
           records back into the parent's sink

Example:
  procbox run echo hello world
  procbox run sleep 2s --ttl 5s --isolation fresh
  procbox run fail not_found "artifact missing" --expect not_found --retries 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTTL, "ttl", 0, "wall-clock deadline for the child (default from config)")
	runCmd.Flags().StringVar(&runIsolation, "isolation", "", "isolation mode: inherit or fresh (default from config)")
	runCmd.Flags().IntVar(&runRetries, "retries", 1, "total attempts with constant backoff")
	runCmd.Flags().DurationVar(&runRetryDelay, "retry-delay", 1*time.Second, "delay between attempts")
	runCmd.Flags().StringSliceVar(&runExpect, "expect", nil, "error kinds that skip verbose failure logging")
	runCmd.Flags().BoolVar(&runPrintMetrics, "print-metrics", false, "dump run metrics to stderr afterwards")
}

func runTask(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Close()

	opts, err := runOptions()
	if err != nil {
		return err
	}

	runner := harness.New(log)
	var collector *metrics.Collector
	if runPrintMetrics {
		collector = metrics.NewCollector()
		runner.Metrics = collector
	}

	work := task.New(args[0], stringArgs(args[1:])...)

	value, err := retry.RunWithRetry(func() (any, error) {
		return runner.Run(work, opts)
	}, runRetries, runRetryDelay)

	if collector != nil {
		if werr := collector.WriteText(os.Stderr); werr != nil {
			log.Warn("failed to dump metrics", map[string]any{"error": werr.Error()})
		}
	}
	if err != nil {
		return err
	}

	if value != nil {
		fmt.Printf("%v\n", value)
	}
	return nil
}

// runOptions resolves flag and config defaults into harness options.
func runOptions() (harness.Options, error) {
	ttl := runTTL
	if ttl == 0 {
		ttl = time.Duration(viper.GetInt("default_ttl_seconds")) * time.Second
	}

	isolation := runIsolation
	if isolation == "" {
		isolation = viper.GetString("default_isolation")
	}
	switch harness.Isolation(isolation) {
	case harness.Inherit, harness.Fresh:
	default:
		return harness.Options{}, fmt.Errorf("invalid isolation mode %q (want inherit or fresh)", isolation)
	}

	expected := make(task.KindSet, len(runExpect))
	for _, kind := range runExpect {
		expected[task.Kind(kind)] = struct{}{}
	}

	return harness.Options{
		TTL:       ttl,
		Isolation: harness.Isolation(isolation),
		Expected:  expected,
	}, nil
}

func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
