package bench

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dennishilgert/benchvm/internal/app/graaljs"
	"github.com/dennishilgert/benchvm/pkg/vm"
)

var ErrNoCompanionSuite = errors.New("companion suite is not available")

// NodeJsBenchmarks is the companion suite guest vms for node benchmarks register with.
type NodeJsBenchmarks struct {
	lock   sync.Mutex
	guests []vm.GuestVm
}

// NewNodeJsBenchmarks creates an empty companion suite.
func NewNodeJsBenchmarks() *NodeJsBenchmarks {
	return &NodeJsBenchmarks{}
}

// Name returns the name of the companion suite.
func (n *NodeJsBenchmarks) Name() string {
	return graaljs.CompanionSuiteName
}

// AddVm registers guest in registry and remembers it as runnable by the suite.
func (n *NodeJsBenchmarks) AddVm(registry *vm.Registry, guest vm.GuestVm, suite string, priority int) error {
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNoCompanionSuite, graaljs.CompanionSuiteName)
	}
	if err := registry.Add(guest, suite, priority); err != nil {
		return fmt.Errorf("failed to add %s:%s to the %s registry: %w", guest.Name(), guest.ConfigName(), registry.Name(), err)
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	n.guests = append(n.guests, guest)

	log.Debugf("added guest vm %s:%s for suite %s with priority %d", guest.Name(), guest.ConfigName(), suite, priority)
	return nil
}

// Lookup returns the guest vm registered under name and configName.
func (n *NodeJsBenchmarks) Lookup(name string, configName string) (vm.GuestVm, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, guest := range n.guests {
		if guest.Name() == name && guest.ConfigName() == configName {
			return guest, nil
		}
	}
	return nil, fmt.Errorf("%w: %s:%s", vm.ErrVmNotFound, name, configName)
}

var _ graaljs.CompanionSuite = (*NodeJsBenchmarks)(nil)
