//go:build unix

package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnerCapturesCombinedOutput(t *testing.T) {
	capture := NewOutputCapture()
	s := NewSpawner(Options{})

	code, err := s.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo out; echo err 1>&2"},
		Stdout: capture,
		Stderr: capture,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, capture.Data(), "out\n")
	assert.Contains(t, capture.Data(), "err\n")
}

func TestSpawnerNonZeroIsNotFatalByDefault(t *testing.T) {
	s := NewSpawner(Options{})

	code, err := s.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestSpawnerNonZeroIsFatal(t *testing.T) {
	s := NewSpawner(Options{})

	code, err := s.Run(context.Background(), Command{
		Binary:         "/bin/sh",
		Args:           []string{"-c", "exit 4"},
		NonZeroIsFatal: true,
	})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exitErr.Code)
	assert.Equal(t, 4, code)
}

func TestSpawnerUsesWorkingDirectoryAndEnv(t *testing.T) {
	dir := t.TempDir()
	capture := NewOutputCapture()
	s := NewSpawner(Options{})

	_, err := s.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "pwd -P; echo $BENCHVM_SPAWN_TEST"},
		Cwd:    dir,
		Env:    map[string]string{"BENCHVM_SPAWN_TEST": "present"},
		Stdout: capture,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(capture.Data()), "\n")
	require.Len(t, lines, 2)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, lines[0])
	assert.Equal(t, "present", lines[1])
}

func TestSpawnerGraalVmArgs(t *testing.T) {
	capture := NewOutputCapture()
	s := NewSpawner(Options{GraalVmArgs: []string{"-c", "echo graal"}})

	_, err := s.Run(context.Background(), Command{
		Binary:         "/bin/sh",
		AddGraalVmArgs: true,
		Stdout:         capture,
	})
	require.NoError(t, err)
	assert.Equal(t, "graal\n", capture.Data())
}

func TestSpawnerMissingBinary(t *testing.T) {
	s := NewSpawner(Options{})

	_, err := s.Run(context.Background(), Command{
		Binary: filepath.Join(os.TempDir(), "benchvm-does-not-exist"),
	})
	assert.Error(t, err)
}

func TestSpawnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := NewSpawner(Options{}).Run(ctx, Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "sleep 5"},
	})
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpawnerCancelKillsChildrenHoldingOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	started := time.Now()
	code, err := NewSpawner(Options{}).Run(ctx, Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "(sleep 5; echo late) & echo started; wait"},
		Stdout: &out,
	})
	assert.Less(t, time.Since(started), waitDelay)
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, out.String(), "late")
}
