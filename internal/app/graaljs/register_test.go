package graaljs

import (
	"errors"
	"testing"

	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSuite struct {
	suites     []string
	priorities []int
	err        error
}

func (s *recordingSuite) AddVm(registry *vm.Registry, guest vm.GuestVm, suite string, priority int) error {
	if s.err != nil {
		return s.err
	}
	s.suites = append(s.suites, suite)
	s.priorities = append(s.priorities, priority)
	return registry.Add(guest, suite, priority)
}

func TestRegisterNodeJsVmsWithCompanionSuite(t *testing.T) {
	registry := vm.NewJavaVmRegistry()
	companion := &recordingSuite{}

	require.NoError(t, RegisterNodeJsVms(registry, companion, Options{}))

	assert.Equal(t, 1, registry.Len())
	entries := registry.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultPriority, entries[0].Priority)
	assert.Equal(t, SuiteName, entries[0].Suite)

	guest, ok := entries[0].Vm.(*GraalNodeJsVm)
	require.True(t, ok)
	assert.Equal(t, "graal-js", guest.Name())
	assert.Equal(t, "default", guest.ConfigName())
	assert.Empty(t, guest.Options())
	assert.Nil(t, guest.HostVm())
	assert.Same(t, registry, guest.HostingRegistry())
	assert.Equal(t, []int{10}, companion.priorities)
}

func TestRegisterNodeJsVmsWithoutCompanionSuite(t *testing.T) {
	registry := vm.NewJavaVmRegistry()

	require.NoError(t, RegisterNodeJsVms(registry, nil, Options{}))
	assert.Equal(t, 0, registry.Len())
}

func TestRegisterNodeJsVmsTwiceFails(t *testing.T) {
	registry := vm.NewJavaVmRegistry()
	companion := &recordingSuite{}

	require.NoError(t, RegisterNodeJsVms(registry, companion, Options{}))
	err := RegisterNodeJsVms(registry, companion, Options{})
	assert.ErrorIs(t, err, vm.ErrVmAlreadyRegistered)
	assert.Equal(t, 1, registry.Len())
}

func TestRegisterNodeJsVmsPropagatesSuiteError(t *testing.T) {
	registry := vm.NewJavaVmRegistry()
	companion := &recordingSuite{err: errors.New("suite closed")}

	err := RegisterNodeJsVms(registry, companion, Options{})
	assert.ErrorContains(t, err, "suite closed")
	assert.Equal(t, 0, registry.Len())
}
