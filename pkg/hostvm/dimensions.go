package hostvm

import (
	"github.com/dennishilgert/benchvm/pkg/metrics"
	"github.com/dennishilgert/benchvm/pkg/vm"
)

const (
	DimensionHostVm       = "host-vm"
	DimensionHostVmConfig = "host-vm-config"
	DimensionExitCode     = "exit-code"
	DimensionArgCount     = "arg-count"
	DimensionOutputBytes  = "output-bytes"
	DimensionWorkingDir   = "cwd"
)

func runDimensions(host vm.Vm, machine metrics.MachineService, cwd string, args []string, code int, output string) vm.Dimensions {
	dims := vm.Dimensions{}
	if machine != nil {
		dims = machine.Dimensions()
	}
	return dims.Merge(vm.Dimensions{
		DimensionHostVm:       host.Name(),
		DimensionHostVmConfig: host.ConfigName(),
		DimensionExitCode:     code,
		DimensionArgCount:     len(args),
		DimensionOutputBytes:  len(output),
		DimensionWorkingDir:   cwd,
	})
}

func prependArgs(prefix []string, args []string) []string {
	out := make([]string, 0, len(prefix)+len(args))
	out = append(out, prefix...)
	return append(out, args...)
}
