package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrManagerAlreadyStarted = errors.New("runner manager already started")

// Runner is a function that runs a task until it is done or ctx is cancelled.
type Runner func(ctx context.Context) error

type RunnerManager interface {
	Add(runner ...Runner) error
	Run(ctx context.Context) error
}

// runnerManager runs all runners in parallel. As soon as one runner returns,
// the context of the others is cancelled. Run returns once all of them returned.
type runnerManager struct {
	runners []Runner
	lock    sync.Mutex
	running atomic.Bool
}

// NewRunnerManager creates a new RunnerManager.
func NewRunnerManager(runners ...Runner) RunnerManager {
	return &runnerManager{
		runners: runners,
	}
}

// Add adds runners to the manager. It fails once the manager is running.
func (r *runnerManager) Add(runner ...Runner) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.running.Load() {
		return ErrManagerAlreadyStarted
	}
	r.runners = append(r.runners, runner...)
	return nil
}

// Run runs all runners and joins their errors. An error made only of context
// cancellations is dropped, it only mirrors the shutdown of another runner.
func (r *runnerManager) Run(ctx context.Context) error {
	r.lock.Lock()
	if !r.running.CompareAndSwap(false, true) {
		r.lock.Unlock()
		return ErrManagerAlreadyStarted
	}
	runners := append([]Runner{}, r.runners...)
	r.lock.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(runners))
	for _, runner := range runners {
		go func(runner Runner) {
			defer cancel()

			err := runner(ctx)
			if err != nil && !cancelledOnly(err) {
				errCh <- err
				return
			}
			errCh <- nil
		}(runner)
	}

	errs := make([]error, 0)
	for range runners {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// cancelledOnly reports whether every error joined into err is a context cancellation.
func cancelledOnly(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !cancelledOnly(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, context.Canceled)
}
