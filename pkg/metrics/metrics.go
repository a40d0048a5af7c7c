package metrics

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/utils"
	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var log = logger.NewLogger("benchvm.metrics")

const (
	DimensionCpuCores = "machine.cpu-cores"
	DimensionCpuModel = "machine.cpu-model"
	DimensionRamBytes = "machine.ram"
	DimensionArch     = "machine.arch"
	DimensionOs       = "machine.os"
	DimensionCpuUsage = "machine.cpu-usage"
	DimensionRamUsage = "machine.ram-usage"
)

type MachineService interface {
	// Dimensions returns the static dimensions of the machine the benchmarks run on.
	Dimensions() vm.Dimensions

	// Load returns the current cpu and memory usage in percent.
	Load() (vm.Dimensions, error)
}

type machineService struct {
	once       sync.Once
	dimensions vm.Dimensions
}

// NewMachineService creates a new MachineService instance.
func NewMachineService() MachineService {
	return &machineService{}
}

// Dimensions returns the machine dimensions. They are collected once and cached.
func (m *machineService) Dimensions() vm.Dimensions {
	m.once.Do(func() {
		m.dimensions = m.collect()
	})
	return m.dimensions.Merge(nil)
}

func (m *machineService) collect() vm.Dimensions {
	dims := vm.Dimensions{
		DimensionArch: utils.DetectArchitecture().String(),
		DimensionOs:   runtime.GOOS,
	}
	cores, err := cpu.Counts(true)
	if err != nil {
		log.Warnf("failed to get cpu core count: %v", err)
	} else {
		dims[DimensionCpuCores] = cores
	}
	infos, err := cpu.Info()
	if err != nil {
		log.Warnf("failed to get cpu info: %v", err)
	} else if len(infos) > 0 {
		dims[DimensionCpuModel] = strings.TrimSpace(infos[0].ModelName)
	}
	stat, err := mem.VirtualMemory()
	if err != nil {
		log.Warnf("failed to get memory info: %v", err)
	} else {
		dims[DimensionRamBytes] = stat.Total
	}
	return dims
}

// Load returns the current usage of the machine.
func (m *machineService) Load() (vm.Dimensions, error) {
	percent, err := cpu.Percent(0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu usage: %w", err)
	}
	stat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory usage: %w", err)
	}
	dims := vm.Dimensions{DimensionRamUsage: stat.UsedPercent}
	if len(percent) > 0 {
		dims[DimensionCpuUsage] = percent[0]
	}
	return dims, nil
}
