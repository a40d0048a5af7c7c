//go:build !unix

package process

import "os/exec"

func killProcessGroup(*exec.Cmd) {}

func exitCodeForError(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}
