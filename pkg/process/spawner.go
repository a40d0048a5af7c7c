package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dennishilgert/benchvm/pkg/logger"
)

var log = logger.NewLogger("benchvm.process")

// waitDelay bounds how long a cancelled command may keep its output pipes open.
const waitDelay = 2 * time.Second

// ExitError is returned for non-zero exits of commands that treat them as fatal.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.Code)
}

// Command describes a single process invocation.
type Command struct {
	Binary string
	Args   []string
	Cwd    string
	Env    map[string]string

	// AddGraalVmArgs prepends the spawner's graal vm arguments to Args.
	AddGraalVmArgs bool

	// NonZeroIsFatal turns a non-zero exit code into an *ExitError.
	NonZeroIsFatal bool

	Stdout io.Writer
	Stderr io.Writer
}

// Spawner runs commands and reports their exit code.
type Spawner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

type Options struct {
	// GraalVmArgs are prepended when a command asks for them.
	GraalVmArgs []string
}

type spawner struct {
	graalVmArgs []string
}

// NewSpawner creates a Spawner backed by os/exec.
func NewSpawner(opts Options) Spawner {
	return &spawner{
		graalVmArgs: append([]string(nil), opts.GraalVmArgs...),
	}
}

// Run starts the command, waits for it and returns its exit code.
func (s *spawner) Run(ctx context.Context, command Command) (int, error) {
	args := command.Args
	if command.AddGraalVmArgs && len(s.graalVmArgs) > 0 {
		args = append(append([]string{}, s.graalVmArgs...), command.Args...)
	}

	cmd := exec.CommandContext(ctx, command.Binary, args...)
	cmd.Dir = command.Cwd
	cmd.Stdout = command.Stdout
	cmd.Stderr = command.Stderr
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	if len(command.Env) > 0 {
		cmd.Env = os.Environ()
		for key, value := range command.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}
	}

	log.Debugf("spawning %s %s in %s", command.Binary, strings.Join(args, " "), command.Cwd)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("%s was stopped: %w", command.Binary, ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, fmt.Errorf("failed to run %s: %w", command.Binary, err)
	}
	code := exitCodeForError(exitErr)
	if command.NonZeroIsFatal {
		return code, &ExitError{Command: command.Binary, Code: code}
	}
	return code, nil
}
