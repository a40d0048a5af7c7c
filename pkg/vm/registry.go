package vm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrVmAlreadyRegistered = errors.New("vm already registered")
	ErrVmNotFound          = errors.New("vm not found")
)

// Entry is a vm registered for a suite at a priority.
type Entry struct {
	Vm       Vm
	Suite    string
	Priority int
}

// Registry maps vm name and configuration to vms of one kind.
type Registry struct {
	name      string
	shortName string

	lock    sync.RWMutex
	entries map[string]map[string]Entry
}

// NewRegistry creates an empty registry for the given vm kind.
func NewRegistry(name string, shortName string) *Registry {
	return &Registry{
		name:      name,
		shortName: shortName,
		entries:   map[string]map[string]Entry{},
	}
}

// NewJavaVmRegistry creates an empty registry for java vms.
func NewJavaVmRegistry() *Registry {
	return NewRegistry("Java", "jvm")
}

// Name returns the kind of vms the registry holds.
func (r *Registry) Name() string {
	return r.name
}

// ShortName returns the short kind name, used in dimensions and flags.
func (r *Registry) ShortName() string {
	return r.shortName
}

// Add registers vm for suite at the given priority.
func (r *Registry) Add(vm Vm, suite string, priority int) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	configs, ok := r.entries[vm.Name()]
	if !ok {
		configs = map[string]Entry{}
		r.entries[vm.Name()] = configs
	}
	if _, ok := configs[vm.ConfigName()]; ok {
		return fmt.Errorf("%w: %s %s:%s", ErrVmAlreadyRegistered, r.name, vm.Name(), vm.ConfigName())
	}
	configs[vm.ConfigName()] = Entry{Vm: vm, Suite: suite, Priority: priority}
	return nil
}

// Get returns the vm registered under name and config.
func (r *Registry) Get(name string, config string) (Vm, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if entry, ok := r.entries[name][config]; ok {
		return entry.Vm, nil
	}
	return nil, fmt.Errorf("%w: %s %s:%s", ErrVmNotFound, r.name, name, config)
}

// Default returns the configuration of name with the highest priority.
func (r *Registry) Default(name string) (Vm, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var best *Entry
	for _, entry := range r.entries[name] {
		entry := entry
		if best == nil || entry.Priority > best.Priority ||
			(entry.Priority == best.Priority && entry.Vm.ConfigName() < best.Vm.ConfigName()) {
			best = &entry
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrVmNotFound, r.name, name)
	}
	return best.Vm, nil
}

// Entries returns all entries ordered by descending priority, then name and config.
func (r *Registry) Entries() []Entry {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]Entry, 0)
	for _, configs := range r.entries {
		for _, entry := range configs {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].Vm.Name() != out[j].Vm.Name() {
			return out[i].Vm.Name() < out[j].Vm.Name()
		}
		return out[i].Vm.ConfigName() < out[j].Vm.ConfigName()
	})
	return out
}

// Len returns the number of registered vms.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	n := 0
	for _, configs := range r.entries {
		n += len(configs)
	}
	return n
}
