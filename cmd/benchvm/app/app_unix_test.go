//go:build unix

package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dennishilgert/benchvm/internal/app/graaljs"
	"github.com/dennishilgert/benchvm/pkg/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shellSuite = `
name: shell
benchmarks:
  - name: fast
    args: ["-c", "echo Score: 42"]
    score: 'Score: ([0-9.]+)'
  - name: broken
    args: ["-c", "exit 2"]
    score: 'Score: ([0-9.]+)'
`

func TestRunSuiteLocally(t *testing.T) {
	dir := t.TempDir()
	suiteFile := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(suiteFile, []byte(shellSuite), 0o644))

	cfg := testConfig(t)
	cfg.NodeBinaryPath = "/bin/sh"
	cfg.ResultsFile = filepath.Join(dir, "results.json")

	a, err := NewWithConfig(cfg, Options{Machine: idleMachine{}})
	require.NoError(t, err)

	summary, err := a.RunSuite(context.Background(), RunOptions{
		SuiteFile: suiteFile,
		HostKind:  HostLocal,
		VmName:    graaljs.VmName,
		Cwd:       dir,
	})
	require.NoError(t, err)
	a.Close()

	require.Len(t, summary.Datapoints, 2)
	assert.Equal(t, 42.0, summary.Datapoints[0].Value)
	assert.Equal(t, 2, summary.Datapoints[1].ExitCode)
	assert.Equal(t, 1, summary.Failed())

	data, err := os.ReadFile(cfg.ResultsFile)
	require.NoError(t, err)
	var report results.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Len(t, report.Queries, 2)
	assert.Equal(t, "x86_64", report.Queries[0].Dimensions["machine.arch"])
}

const slowSuite = `
name: slow
benchmarks:
  - name: sleep
    args: ["-c", "sleep 5; echo Score: 1"]
    score: 'Score: ([0-9.]+)'
  - name: fast
    args: ["-c", "echo Score: 2"]
    score: 'Score: ([0-9.]+)'
`

func TestRunSuiteCancelledKeepsSinkError(t *testing.T) {
	dir := t.TempDir()
	suiteFile := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(suiteFile, []byte(slowSuite), 0o644))

	cfg := testConfig(t)
	cfg.NodeBinaryPath = "/bin/sh"
	cfg.ResultsFile = unwritablePath(t, dir)

	a, err := NewWithConfig(cfg, Options{Machine: idleMachine{}})
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	started := time.Now()
	summary, err := a.RunSuite(ctx, RunOptions{
		SuiteFile: suiteFile,
		HostKind:  HostLocal,
		VmName:    graaljs.VmName,
		Cwd:       dir,
	})
	assert.Less(t, time.Since(started), 4*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "failed to create report directory")
	require.Len(t, summary.Datapoints, 1)
	assert.True(t, summary.Datapoints[0].Failed())
	assert.True(t, summary.Incomplete())
}
