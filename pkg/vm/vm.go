package vm

import (
	"context"
	"maps"
)

// Dimensions are the labels and metrics a host vm derives from a benchmark run.
type Dimensions map[string]any

// Merge returns a copy of d with the entries of other added. Entries of other win.
func (d Dimensions) Merge(other Dimensions) Dimensions {
	out := make(Dimensions, len(d)+len(other))
	maps.Copy(out, d)
	maps.Copy(out, other)
	return out
}

// Result is the outcome of a single guest vm run.
type Result struct {
	Code       int
	Output     string
	Dimensions Dimensions
}

// Vm is anything that can be selected by name and configuration.
type Vm interface {
	Name() string
	ConfigName() string
}

// HostVm is a vm that hosts a guest vm.
type HostVm interface {
	Vm

	// PostProcessCommandLineArgs adapts the guest arguments before they are passed to the process.
	PostProcessCommandLineArgs(args []string) []string

	// Dimensions derives the dimensions of a finished run.
	Dimensions(cwd string, args []string, code int, output string) Dimensions
}

// Launcher is implemented by host vms that know how to start a named executable themselves.
type Launcher interface {
	HostVm

	RunLauncher(ctx context.Context, cmd string, args []string, cwd string) (Result, error)
}

// GuestVm is a runtime being benchmarked on top of a host vm.
type GuestVm interface {
	Vm

	// HostingRegistry returns the registry of the host vms this guest vm can run on.
	HostingRegistry() *Registry

	// HostVm returns the bound host vm, nil if none is bound.
	HostVm() HostVm

	// WithHostVm returns a copy of the guest vm bound to host.
	WithHostVm(host HostVm) GuestVm

	Run(ctx context.Context, cwd string, args []string) (Result, error)
}

// AsLauncher returns the launcher capability of host if it has one.
func AsLauncher(host HostVm) (Launcher, bool) {
	l, ok := host.(Launcher)
	return l, ok
}
