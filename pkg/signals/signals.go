package signals

import (
	"context"
	"os"
	"os/signal"

	"github.com/dennishilgert/benchvm/pkg/logger"
)

var (
	log = logger.NewLogger("benchvm.signals")

	// Inspired by
	// https://github.com/kubernetes-sigs/controller-runtime/blob/8499b67e316a03b260c73f92d0380de8cd2e97a1/pkg/manager/signals/signal.go#L25
	onlyOneSignalHandler = make(chan struct{})
)

// Context returns a context which is cancelled when a shutdown signal is caught.
// A second signal terminates the program immediately with exit code 1.
// Context panics when called twice.
func Context() context.Context {
	close(onlyOneSignalHandler)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	return notifyContext(context.Background(), sigCh, func(sig os.Signal) {
		log.Fatalf(`Received signal '%s' during shutdown; exiting immediately`, sig)
	})
}

// notifyContext cancels the returned context on the first signal of sigCh and
// calls onSecond with the next one.
func notifyContext(parent context.Context, sigCh <-chan os.Signal, onSecond func(os.Signal)) context.Context {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sig := <-sigCh
		log.Infof(`Received signal '%s'; beginning shutdown`, sig)
		cancel()

		sig = <-sigCh
		onSecond(sig)
	}()

	return ctx
}
