package vm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedVm struct {
	name   string
	config string
}

func (v namedVm) Name() string       { return v.name }
func (v namedVm) ConfigName() string { return v.config }

func TestRegistryAddAndGet(t *testing.T) {
	r := NewJavaVmRegistry()
	assert.Equal(t, "Java", r.Name())
	assert.Equal(t, "jvm", r.ShortName())

	v := namedVm{name: "graal-js", config: "default"}
	require.NoError(t, r.Add(v, "graal-nodejs", 10))

	got, err := r.Get("graal-js", "default")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = r.Get("graal-js", "missing")
	assert.ErrorIs(t, err, ErrVmNotFound)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewJavaVmRegistry()
	require.NoError(t, r.Add(namedVm{"graal-js", "default"}, "graal-nodejs", 10))

	err := r.Add(namedVm{"graal-js", "default"}, "other", 5)
	assert.ErrorIs(t, err, ErrVmAlreadyRegistered)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryDefaultPicksHighestPriority(t *testing.T) {
	r := NewJavaVmRegistry()
	require.NoError(t, r.Add(namedVm{"graal-js", "interpreter"}, "graal-nodejs", 5))
	require.NoError(t, r.Add(namedVm{"graal-js", "default"}, "graal-nodejs", 10))
	require.NoError(t, r.Add(namedVm{"graal-js", "jit"}, "graal-nodejs", 10))

	got, err := r.Default("graal-js")
	require.NoError(t, err)
	assert.Equal(t, "default", got.ConfigName())

	_, err = r.Default("v8")
	assert.ErrorIs(t, err, ErrVmNotFound)
}

func TestRegistryEntriesOrdering(t *testing.T) {
	r := NewJavaVmRegistry()
	require.NoError(t, r.Add(namedVm{"server", "default"}, "compiler", 1))
	require.NoError(t, r.Add(namedVm{"graal-js", "default"}, "graal-nodejs", 10))
	require.NoError(t, r.Add(namedVm{"graal-js", "aot"}, "graal-nodejs", 10))

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "aot", entries[0].Vm.ConfigName())
	assert.Equal(t, "default", entries[1].Vm.ConfigName())
	assert.Equal(t, "server", entries[2].Vm.Name())
	assert.Equal(t, "graal-nodejs", entries[0].Suite)
}

func TestRegistryConcurrentAdd(t *testing.T) {
	r := NewJavaVmRegistry()
	configs := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, c := range configs {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			assert.NoError(t, r.Add(namedVm{"graal-js", c}, "graal-nodejs", 1))
		}(c)
	}
	wg.Wait()

	assert.Equal(t, len(configs), r.Len())
}

func TestDimensionsMerge(t *testing.T) {
	base := Dimensions{"host-vm": "server", "guest-vm": "graal-js"}
	merged := base.Merge(Dimensions{"host-vm": "native", "machine.arch": "x86_64"})

	assert.Equal(t, Dimensions{"host-vm": "native", "guest-vm": "graal-js", "machine.arch": "x86_64"}, merged)
	assert.Equal(t, "server", base["host-vm"])
}
