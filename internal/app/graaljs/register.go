package graaljs

import (
	"fmt"

	"github.com/dennishilgert/benchvm/pkg/vm"
)

const (
	// SuiteName is the suite the graal-js vm belongs to.
	SuiteName = "graal-nodejs"

	// CompanionSuiteName is the optional benchmark suite graal-js is registered with.
	CompanionSuiteName = "nodejs-benchmarks"

	DefaultConfigName = "default"
	DefaultPriority   = 10
)

// CompanionSuite is the nodejs benchmark suite guest vms are added to.
type CompanionSuite interface {
	AddVm(registry *vm.Registry, guest vm.GuestVm, suite string, priority int) error
}

// RegisterNodeJsVms registers the default graal-js vm with the companion suite.
// Without a companion suite nothing is registered.
func RegisterNodeJsVms(registry *vm.Registry, companion CompanionSuite, opts Options) error {
	if companion == nil {
		log.Debugf("suite %s is not available, skipping registration of %s", CompanionSuiteName, VmName)
		return nil
	}
	if opts.Registry == nil {
		opts.Registry = registry
	}

	guest := NewGraalNodeJsVm(DefaultConfigName, []string{}, opts)
	if err := companion.AddVm(registry, guest, SuiteName, DefaultPriority); err != nil {
		return fmt.Errorf("failed to register %s:%s: %w", VmName, DefaultConfigName, err)
	}
	log.Debugf("registered %s:%s with the %s registry", VmName, DefaultConfigName, registry.Name())
	return nil
}
