package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDatapoint(runUuid string, benchmark string, value float64) Datapoint {
	return Datapoint{
		RunUuid:       runUuid,
		Suite:         "octane",
		Benchmark:     benchmark,
		Metric:        "score",
		Value:         value,
		Unit:          "points",
		Better:        BetterHigher,
		GuestVm:       "graal-js",
		GuestVmConfig: "default",
		HostVm:        "server",
		HostVmConfig:  "default",
		Args:          []string{"run.js", benchmark},
		Dimensions:    vm.Dimensions{"machine.arch": "x86_64"},
		Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type recordingSink struct {
	name      string
	err       error
	published []Datapoint
	closed    bool
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Publish(_ context.Context, datapoints []Datapoint) error {
	if r.err != nil {
		return r.err
	}
	r.published = append(r.published, datapoints...)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestDatapointKey(t *testing.T) {
	dp := sampleDatapoint("run-1", "richards", 1)
	assert.Equal(t, "octane/richards/score/graal-js:default/server:default", dp.Key())
	assert.False(t, dp.Failed())

	dp.Error = "exit code 1"
	assert.True(t, dp.Failed())
}

func TestMultiSinkPublishesToAllSinks(t *testing.T) {
	failing := &recordingSink{name: "broken", err: errors.New("unreachable")}
	healthy := &recordingSink{name: "healthy"}
	sink := NewMultiSink(failing, healthy)

	err := sink.Publish(context.Background(), []Datapoint{sampleDatapoint("run-1", "richards", 1)})
	assert.ErrorContains(t, err, "sink broken: unreachable")
	assert.Len(t, healthy.published, 1)

	require.NoError(t, sink.Close())
	assert.True(t, failing.closed)
	assert.True(t, healthy.closed)
}

func TestGroupByRunKeepsOrder(t *testing.T) {
	order, groups := groupByRun([]Datapoint{
		sampleDatapoint("run-2", "a", 1),
		sampleDatapoint("run-1", "b", 1),
		sampleDatapoint("run-2", "c", 1),
	})
	assert.Equal(t, []string{"run-2", "run-1"}, order)
	assert.Len(t, groups["run-2"], 2)
	assert.Len(t, groups["run-1"], 1)
}
