package defers

import "sync"

// Defers maintains an ordered lifo list of cleanup functions.
type Defers interface {
	// Add adds a new function to the beginning of the list.
	Add(func())

	// CallAll invokes all deferred functions in reverse order of their addition.
	CallAll()

	// Trigger tells the instance to (true) or not to (false) process the defers.
	Trigger(bool)
}

type defaultDefers struct {
	sync.Mutex

	fs      []func()
	trigger bool
}

// NewDefers returns a new instance of Defers.
func NewDefers() Defers {
	return &defaultDefers{
		fs:      []func(){},
		trigger: true,
	}
}

func (df *defaultDefers) Add(fn func()) {
	df.Lock()
	defer df.Unlock()
	df.fs = append([]func(){fn}, df.fs...)
}

// CallAll runs every deferred function once. Later calls are no-ops.
func (df *defaultDefers) CallAll() {
	df.Lock()
	fs := df.fs
	trigger := df.trigger
	df.fs = nil
	df.Unlock()

	if !trigger {
		return
	}
	for _, fn := range fs {
		fn()
	}
}

func (df *defaultDefers) Trigger(input bool) {
	df.Lock()
	defer df.Unlock()
	df.trigger = input
}
