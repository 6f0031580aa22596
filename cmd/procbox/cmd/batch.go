package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/procbox/pkg/harness"
	"github.com/psantana5/procbox/pkg/ident"
	"github.com/psantana5/procbox/pkg/logging"
	"github.com/psantana5/procbox/pkg/metrics"
	"github.com/psantana5/procbox/pkg/retry"
	"github.com/psantana5/procbox/pkg/shutdown"
	"github.com/psantana5/procbox/pkg/task"
)

var (
	batchFilePath    string
	batchMetricsAddr string
)

// batchFile is the YAML job-file format.
type batchFile struct {
	Jobs []batchJob `yaml:"jobs"`
}

type batchJob struct {
	Task      string   `yaml:"task"`
	Args      []string `yaml:"args"`
	Artifact  string   `yaml:"artifact"` // optional <namespace>/<name>, prepended to args
	TTL       int      `yaml:"ttl_seconds"`
	Isolation string   `yaml:"isolation"`
	Retries   int      `yaml:"retries"`
	Delay     int      `yaml:"delay_seconds"`
	Expected  []string `yaml:"expected_errors"`
}

var batchCmd = &cobra.Command{
	Use:   "batch --file <jobs.yaml>",
	Short: "Run a YAML-defined list of subprocess jobs",
	Long: `Batch runs each job from a YAML file sequentially, each in its own child
process with its own deadline, isolation mode and retry policy.

Job file format:
  jobs:
    - task: echo
      args: ["hello"]
      ttl_seconds: 30
      isolation: fresh
      retries: 3
      delay_seconds: 1
      expected_errors: [not_found]`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchFilePath, "file", "", "YAML job file")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address while the batch runs")
	batchCmd.MarkFlagRequired("file")
}

type batchResult struct {
	job     batchJob
	elapsed time.Duration
	err     error
}

func runBatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(batchFilePath)
	if err != nil {
		return fmt.Errorf("reading job file: %w", err)
	}
	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing job file %s: %w", batchFilePath, err)
	}
	if len(file.Jobs) == 0 {
		return fmt.Errorf("job file %s declares no jobs", batchFilePath)
	}

	collector := metrics.NewCollector()
	manager := shutdown.New(10*time.Second, log)
	manager.Register(shutdown.CloseResource(log, "log file"))
	defer manager.Shutdown()

	runner := harness.New(log)
	runner.Metrics = collector
	runner.Shutdown = manager

	if batchMetricsAddr != "" {
		startMetricsServer(batchMetricsAddr, collector, manager, log)
	}

	results := make([]batchResult, 0, len(file.Jobs))
	failed := 0
	for _, job := range file.Jobs {
		res := runBatchJob(runner, job)
		if res.err != nil {
			failed++
			log.Error("batch job failed", map[string]any{"task": job.Task, "error": res.err.Error()})
		}
		results = append(results, res)
	}

	printBatchSummary(results)

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(file.Jobs))
	}
	return nil
}

func runBatchJob(runner *harness.Runner, job batchJob) batchResult {
	workArgs := make([]any, 0, len(job.Args)+2)
	if job.Artifact != "" {
		namespace, name, err := ident.Parse(job.Artifact)
		if err != nil {
			return batchResult{job: job, err: err}
		}
		workArgs = append(workArgs, namespace, name)
	}
	for _, a := range job.Args {
		workArgs = append(workArgs, a)
	}

	ttl := time.Duration(job.TTL) * time.Second
	if job.TTL == 0 {
		ttl = time.Duration(viper.GetInt("default_ttl_seconds")) * time.Second
	}
	isolation := harness.Isolation(job.Isolation)
	if job.Isolation == "" {
		isolation = harness.Isolation(viper.GetString("default_isolation"))
	}
	retries := job.Retries
	if retries < 1 {
		retries = 1
	}

	expected := make(task.KindSet, len(job.Expected))
	for _, kind := range job.Expected {
		expected[task.Kind(kind)] = struct{}{}
	}

	opts := harness.Options{TTL: ttl, Isolation: isolation, Expected: expected}
	work := task.New(job.Task, workArgs...)

	start := time.Now()
	_, err := retry.RunWithRetry(func() (any, error) {
		return runner.Run(work, opts)
	}, retries, time.Duration(job.Delay)*time.Second)

	return batchResult{job: job, elapsed: time.Since(start), err: err}
}

func printBatchSummary(results []batchResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Task", "Outcome", "Duration", "Error")

	for _, res := range results {
		outcome := "ok"
		errText := ""
		if res.err != nil {
			outcome = "failed"
			errText = res.err.Error()
		}
		table.Append(res.job.Task, outcome, res.elapsed.Round(time.Millisecond).String(), errText)
	}

	table.Render()
}

// startMetricsServer exposes the collector while the batch runs. The server
// is torn down through the shutdown manager when the batch finishes.
func startMetricsServer(addr string, collector *metrics.Collector, manager *shutdown.Manager, log *logging.Logger) {
	router := mux.NewRouter()
	router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	server := &http.Server{Addr: addr, Handler: router}
	manager.Register(shutdown.StopHTTPServer(server, "metrics"))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", map[string]any{"error": err.Error()})
		}
	}()
	log.Info("metrics server listening", map[string]any{"addr": addr})
}
