package signals

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2/klogr"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

type options struct {
	Exit          func(code int)
	SignalChannel func() chan os.Signal
	Log           logr.Logger
}

// defaultOptions are the default options for Execute which uses os.Exit as the
// exit command, and uses the host os.Signal channel to capture signals. All
// non-test consumers will want to use these options.
func defaultOptions() options {
	return options{
		Log:           klogr.New(),
		Exit:          os.Exit,
		SignalChannel: func() chan os.Signal { return make(chan os.Signal, 2) },
	}
}

// Execute will execute the given function, passing in a context which is
// managed by os signals.
// Upon receiving a SIGINT or SIGTERM, the context will be cancelled and the
// run is aborted at the next activity boundary. Upon receiving 3 more SIGINT
// or SIGTERM signals, the process will exit with code 1 immediately.
// The error returned by the function is returned unchanged.
func Execute(cmdFn func(context.Context) error) error {
	return executeWithOptions(cmdFn, defaultOptions())
}

// executeWithOptions is the same as Execute, but allows for custom options to
// be passed. Only needed for testing.
func executeWithOptions(cmdFn func(context.Context) error, opts options) error {
	log := opts.Log.WithName("signals")
	ch := opts.SignalChannel()
	signal.Notify(ch, shutdownSignals...)
	defer signal.Stop(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdStopped, gofuncStopped := make(chan struct{}), make(chan struct{})

	go func() {
		defer close(gofuncStopped)

		var sig os.Signal
		select {
		case sig = <-ch:
		case <-cmdStopped:
			return
		}

		cancel()
		for i := 0; i < 3; i++ {
			log.Info("received signal, aborting run...", "signal", sig.String())
			select {
			case <-cmdStopped:
				return
			case sig = <-ch:
			}
		}

		log.Error(errors.New("received signal"), "force closing", "signal", sig)

		opts.Exit(1)
	}()

	err := cmdFn(ctx)
	close(cmdStopped)
	<-gofuncStopped

	return err
}
