package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/vm"
)

var log = logger.NewLogger("benchvm.results")

const (
	BetterHigher = "higher"
	BetterLower  = "lower"
)

// Datapoint is a single measured benchmark value.
type Datapoint struct {
	RunUuid       string        `json:"run-uuid"`
	Suite         string        `json:"bench-suite"`
	Benchmark     string        `json:"benchmark"`
	Metric        string        `json:"metric.name"`
	Value         float64       `json:"metric.value"`
	Unit          string        `json:"metric.unit"`
	Better        string        `json:"metric.better"`
	GuestVm       string        `json:"guest-vm"`
	GuestVmConfig string        `json:"guest-vm-config"`
	HostVm        string        `json:"host-vm"`
	HostVmConfig  string        `json:"host-vm-config"`
	Args          []string      `json:"args"`
	ExitCode      int           `json:"exit-code"`
	Error         string        `json:"error,omitempty"`
	Dimensions    vm.Dimensions `json:"dimensions,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Key identifies the series a datapoint belongs to.
func (d Datapoint) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s:%s/%s:%s", d.Suite, d.Benchmark, d.Metric, d.GuestVm, d.GuestVmConfig, d.HostVm, d.HostVmConfig)
}

// Failed reports whether the run producing the datapoint failed.
func (d Datapoint) Failed() bool {
	return d.Error != ""
}

// Report is the document written by file and object store sinks.
type Report struct {
	Queries []Datapoint `json:"queries"`
}

// Sink receives the datapoints of benchmark runs.
type Sink interface {
	Name() string
	Publish(ctx context.Context, datapoints []Datapoint) error
	Close() error
}

type multiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink that publishes to every given sink.
func NewMultiSink(sinks ...Sink) Sink {
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Name() string {
	return "multi"
}

// Publish publishes to all sinks, a failing sink does not stop the others.
func (m *multiSink) Publish(ctx context.Context, datapoints []Datapoint) error {
	errs := make([]error, 0)
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, datapoints); err != nil {
			log.Errorf("failed to publish %d datapoints to sink %s: %v", len(datapoints), sink.Name(), err)
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		log.Debugf("published %d datapoints to sink %s", len(datapoints), sink.Name())
	}
	return errors.Join(errs...)
}

func (m *multiSink) Close() error {
	errs := make([]error, 0)
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func groupByRun(datapoints []Datapoint) ([]string, map[string][]Datapoint) {
	order := make([]string, 0)
	groups := map[string][]Datapoint{}
	for _, dp := range datapoints {
		if _, ok := groups[dp.RunUuid]; !ok {
			order = append(order, dp.RunUuid)
		}
		groups[dp.RunUuid] = append(groups[dp.RunUuid], dp)
	}
	return order, groups
}
