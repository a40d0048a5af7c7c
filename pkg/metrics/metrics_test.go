package metrics

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineDimensions(t *testing.T) {
	m := NewMachineService()

	dims := m.Dimensions()
	assert.Equal(t, runtime.GOOS, dims[DimensionOs])
	assert.NotEmpty(t, dims[DimensionArch])

	// Callers get a copy, the cache stays untouched.
	dims[DimensionOs] = "plan9"
	assert.Equal(t, runtime.GOOS, m.Dimensions()[DimensionOs])
}

func TestMachineLoad(t *testing.T) {
	dims, err := NewMachineService().Load()
	require.NoError(t, err)
	assert.Contains(t, dims, DimensionRamUsage)
}
