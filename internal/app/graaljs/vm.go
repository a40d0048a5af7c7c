package graaljs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/process"
	"github.com/dennishilgert/benchvm/pkg/vm"
)

var log = logger.NewLogger("benchvm.graaljs")

const (
	// VmName is the name the guest vm is registered under.
	VmName = "graal-js"

	// LauncherName is the executable a launcher capable host vm is asked to start.
	LauncherName = "node"

	defaultNodeBinary = "node"
)

var ErrNoHostVm = errors.New("graal-js has no host vm bound")

// Options contains the options for `NewGraalNodeJsVm`.
type Options struct {
	// NodeBinaryPath is the node executable spawned when the host vm has no launcher.
	NodeBinaryPath string

	// Spawner runs the node executable. Defaults to an os/exec spawner.
	Spawner process.Spawner

	// Registry is the registry of the vms hosting graal-js.
	Registry *vm.Registry

	// HostVm is the host vm to bind right away.
	HostVm vm.HostVm

	// Output receives a copy of the process output while it is captured.
	Output io.Writer
}

// GraalNodeJsVm runs the graal-js engine through the node launcher as a guest vm.
type GraalNodeJsVm struct {
	configName string
	options    []string
	hostVm     vm.HostVm

	nodeBinary  string
	spawner     process.Spawner
	registry    *vm.Registry
	passthrough io.Writer
}

// NewGraalNodeJsVm creates a guest vm with the given configuration name and options.
func NewGraalNodeJsVm(configName string, options []string, opts Options) *GraalNodeJsVm {
	nodeBinary := opts.NodeBinaryPath
	if nodeBinary == "" {
		nodeBinary = defaultNodeBinary
	}
	spawner := opts.Spawner
	if spawner == nil {
		spawner = process.NewSpawner(process.Options{})
	}
	return &GraalNodeJsVm{
		configName:  configName,
		options:     append([]string{}, options...),
		hostVm:      opts.HostVm,
		nodeBinary:  nodeBinary,
		spawner:     spawner,
		registry:    opts.Registry,
		passthrough: opts.Output,
	}
}

func (g *GraalNodeJsVm) Name() string {
	return VmName
}

func (g *GraalNodeJsVm) ConfigName() string {
	return g.configName
}

// Options returns a copy of the options appended to every run.
func (g *GraalNodeJsVm) Options() []string {
	return append([]string{}, g.options...)
}

func (g *GraalNodeJsVm) HostingRegistry() *vm.Registry {
	return g.registry
}

func (g *GraalNodeJsVm) HostVm() vm.HostVm {
	return g.hostVm
}

// WithHostVm returns a new guest vm bound to host. g itself is left untouched.
func (g *GraalNodeJsVm) WithHostVm(host vm.HostVm) vm.GuestVm {
	bound := *g
	bound.options = append([]string{}, g.options...)
	bound.hostVm = host
	return &bound
}

// Run runs graal-js in cwd with args followed by the vm options.
// A non-zero exit code is part of the result and not an error.
func (g *GraalNodeJsVm) Run(ctx context.Context, cwd string, args []string) (vm.Result, error) {
	if g.hostVm == nil {
		return vm.Result{}, ErrNoHostVm
	}

	log := logger.FromContextOrDefault(ctx, log)

	forwarded := make([]string, 0, len(args)+len(g.options))
	forwarded = append(forwarded, args...)
	forwarded = append(forwarded, g.options...)

	if launcher, ok := vm.AsLauncher(g.hostVm); ok {
		log.Debugf("delegating %s to the launcher of host vm %s", g.Name(), launcher.Name())
		return launcher.RunLauncher(ctx, LauncherName, forwarded, cwd)
	}

	out := process.NewTeeCapture(process.NewOutputCapture(), g.passthrough)
	forwarded = g.hostVm.PostProcessCommandLineArgs(forwarded)
	log.Infof("Running %s with args: %v", g.Name(), forwarded)

	code, err := g.spawner.Run(ctx, process.Command{
		Binary:         g.nodeBinary,
		Args:           forwarded,
		Cwd:            cwd,
		AddGraalVmArgs: false,
		NonZeroIsFatal: false,
		Stdout:         out,
		Stderr:         out,
	})
	if err != nil {
		return vm.Result{}, fmt.Errorf("failed to run %s: %w", g.Name(), err)
	}

	output := out.Underlying().Data()
	return vm.Result{
		Code:       code,
		Output:     output,
		Dimensions: g.hostVm.Dimensions(cwd, forwarded, code, output),
	}, nil
}

var _ vm.GuestVm = (*GraalNodeJsVm)(nil)
