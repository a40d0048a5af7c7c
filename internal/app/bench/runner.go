package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/metrics"
	"github.com/dennishilgert/benchvm/pkg/results"
	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/google/uuid"
)

var log = logger.NewLogger("benchvm.bench")

// Options contains the options for `NewRunner`.
type Options struct {
	// Sink receives the datapoints of every suite run. May be nil.
	Sink results.Sink

	// ExtraArgs are appended to the arguments of every benchmark.
	ExtraArgs []string

	// Machine samples the machine load before every benchmark. May be nil.
	Machine metrics.MachineService
}

// Summary is the outcome of a suite run.
type Summary struct {
	RunUuid    string
	Benchmarks int
	Datapoints []results.Datapoint
}

// Incomplete reports whether the run stopped before every benchmark ran.
func (s Summary) Incomplete() bool {
	return len(s.Datapoints) < s.Benchmarks
}

// Failed returns the number of failed benchmarks.
func (s Summary) Failed() int {
	failed := 0
	for _, dp := range s.Datapoints {
		if dp.Failed() {
			failed++
		}
	}
	return failed
}

// Progress is a snapshot of the suite a runner is working on.
type Progress struct {
	Suite     string
	Benchmark string
	Done      int
	Total     int
}

// Runner runs benchmark suites against guest vms.
type Runner struct {
	sink      results.Sink
	extraArgs []string
	machine   metrics.MachineService

	lock     sync.Mutex
	progress Progress
}

// NewRunner creates a new suite runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		sink:      opts.Sink,
		extraArgs: append([]string{}, opts.ExtraArgs...),
		machine:   opts.Machine,
	}
}

// RunSuite runs every benchmark of suite with guest in cwd and publishes the datapoints.
// A benchmark that exits non-zero or prints no score yields a failed datapoint.
// The returned error joins guest vm failures and sink failures.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite, guest vm.GuestVm, cwd string) (Summary, error) {
	summary := Summary{
		RunUuid:    uuid.NewString(),
		Benchmarks: len(suite.Benchmarks),
		Datapoints: make([]results.Datapoint, 0, len(suite.Benchmarks)),
	}
	r.setProgress(Progress{Suite: suite.Name, Total: len(suite.Benchmarks)})
	runLog := log.WithLogType(logger.LogTypeRun).WithFields(map[string]any{
		"run":   summary.RunUuid,
		"suite": suite.Name,
		"vm":    guest.Name() + ":" + guest.ConfigName(),
	})
	runLog.Infof("running suite %s with %d benchmarks", suite.Name, len(suite.Benchmarks))
	ctx = logger.NewContext(ctx, runLog)

	errs := make([]error, 0)
	for _, benchmark := range suite.Benchmarks {
		if err := ctx.Err(); err != nil {
			runLog.Warnf("suite run cancelled before benchmark %s", benchmark.Name)
			errs = append(errs, err)
			break
		}

		r.setProgress(Progress{Suite: suite.Name, Benchmark: benchmark.Name, Done: len(summary.Datapoints), Total: len(suite.Benchmarks)})
		dp, err := r.runBenchmark(ctx, suite, benchmark, guest, cwd, summary.RunUuid)
		if err != nil {
			errs = append(errs, err)
		}
		if dp.Failed() {
			runLog.Errorf("benchmark %s failed: %s", benchmark.Name, dp.Error)
		} else {
			runLog.Infof("benchmark %s: %s = %g %s", benchmark.Name, dp.Metric, dp.Value, dp.Unit)
		}
		summary.Datapoints = append(summary.Datapoints, dp)
	}
	r.setProgress(Progress{Suite: suite.Name, Done: len(summary.Datapoints), Total: len(suite.Benchmarks)})

	if r.sink != nil && len(summary.Datapoints) > 0 {
		// Results of a cancelled run are still published.
		if err := r.sink.Publish(context.WithoutCancel(ctx), summary.Datapoints); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish results of run %s: %w", summary.RunUuid, err))
		}
	}

	return summary, errors.Join(errs...)
}

// Progress returns the progress of the running suite.
func (r *Runner) Progress() Progress {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.progress
}

func (r *Runner) setProgress(progress Progress) {
	r.lock.Lock()
	r.progress = progress
	r.lock.Unlock()
}

func (r *Runner) runBenchmark(ctx context.Context, suite *Suite, benchmark Benchmark, guest vm.GuestVm, cwd string, runUuid string) (results.Datapoint, error) {
	args := make([]string, 0, len(benchmark.Args)+len(r.extraArgs))
	args = append(args, benchmark.Args...)
	args = append(args, r.extraArgs...)

	dp := results.Datapoint{
		RunUuid:       runUuid,
		Suite:         suite.Name,
		Benchmark:     benchmark.Name,
		Metric:        benchmark.Metric,
		Unit:          benchmark.Unit,
		Better:        benchmark.Better,
		GuestVm:       guest.Name(),
		GuestVmConfig: guest.ConfigName(),
		Args:          args,
		Timestamp:     time.Now().UTC(),
	}
	if host := guest.HostVm(); host != nil {
		dp.HostVm = host.Name()
		dp.HostVmConfig = host.ConfigName()
	}

	var load vm.Dimensions
	if r.machine != nil {
		sampled, err := r.machine.Load()
		if err != nil {
			log.Debugf("failed to sample machine load: %v", err)
		}
		load = sampled
	}

	ctx = logger.NewContext(ctx, logger.FromContextOrDefault(ctx, log).WithFields(map[string]any{"benchmark": benchmark.Name}))
	result, err := guest.Run(ctx, cwd, args)
	if err != nil {
		dp.ExitCode = -1
		dp.Error = err.Error()
		return dp, fmt.Errorf("benchmark %s: %w", benchmark.Name, err)
	}

	dp.ExitCode = result.Code
	dp.Dimensions = result.Dimensions
	if len(load) > 0 {
		dp.Dimensions = result.Dimensions.Merge(load)
	}
	if result.Code != 0 {
		dp.Error = fmt.Sprintf("exit code %d", result.Code)
		return dp, nil
	}

	score, ok := benchmark.ParseScore(result.Output)
	if !ok {
		dp.Error = "no score found in output"
		return dp, nil
	}
	dp.Value = score
	return dp, nil
}
