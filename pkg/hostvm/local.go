package hostvm

import (
	"github.com/dennishilgert/benchvm/pkg/metrics"
	"github.com/dennishilgert/benchvm/pkg/vm"
)

const (
	LocalName          = "server"
	DefaultLocalConfig = "default"
)

type LocalOptions struct {
	Name       string
	ConfigName string

	// ExtraArgs are put in front of the guest arguments.
	ExtraArgs []string

	Machine metrics.MachineService
}

// Local is a host vm without a launcher. Guest vms spawn their process themselves.
type Local struct {
	name       string
	configName string
	extraArgs  []string
	machine    metrics.MachineService
}

// NewLocal creates a new local host vm.
func NewLocal(opts LocalOptions) *Local {
	name := opts.Name
	if name == "" {
		name = LocalName
	}
	configName := opts.ConfigName
	if configName == "" {
		configName = DefaultLocalConfig
	}
	return &Local{
		name:       name,
		configName: configName,
		extraArgs:  append([]string{}, opts.ExtraArgs...),
		machine:    opts.Machine,
	}
}

func (l *Local) Name() string {
	return l.name
}

func (l *Local) ConfigName() string {
	return l.configName
}

func (l *Local) PostProcessCommandLineArgs(args []string) []string {
	return prependArgs(l.extraArgs, args)
}

func (l *Local) Dimensions(cwd string, args []string, code int, output string) vm.Dimensions {
	return runDimensions(l, l.machine, cwd, args, code, output)
}

var _ vm.HostVm = (*Local)(nil)
