package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/ghostkeys/internal/cli"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/feed"
	"github.com/rbright/ghostkeys/internal/indicator"
	"github.com/rbright/ghostkeys/internal/ipc"
	"github.com/rbright/ghostkeys/internal/logging"
	"github.com/rbright/ghostkeys/internal/output"
	"github.com/rbright/ghostkeys/internal/session"
	"golang.org/x/sync/errgroup"
)

const (
	probeTimeout    = 180 * time.Millisecond
	acquireRetries  = 8
	shutdownTimeout = 3 * time.Second
	indicatorBuffer = 128
)

// Daemon owns the control socket and runs the typing controller until ctx is
// cancelled. The IPC server, indicator and optional event feed share one
// errgroup; the first failure stops them all.
func (r Runner) Daemon(ctx context.Context, inv cli.Invocation, verbose bool) error {
	opts := logging.Options{Level: slog.LevelInfo}
	if verbose {
		opts.Console = r.Stderr
		opts.Level = slog.LevelDebug
	}
	env, err := r.bootstrap(inv, "daemon", opts)
	if err != nil {
		return err
	}
	defer env.close()

	logger := env.logger
	cfg := env.loaded.Config

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}
	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: probeTimeout,
		Retries:      acquireRetries,
		OnStale: func(context.Context) {
			logger.Warn("removed stale socket", "socket", socketPath)
		},
	})
	if err != nil {
		logger.Error("acquire socket failed", "socket", socketPath, "error", err.Error())
		return err
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	broker := events.NewBroker()
	defer broker.Close()

	injector := output.NewInjector(cfg.Keyboard, logger)
	controller := session.NewController(logger, keyboardOpener(injector), broker, cfg.Typing)
	notifier := indicator.NewNotifier(cfg.Indicator, logger)
	indicatorEvents, unsubscribe := broker.Subscribe(indicatorBuffer)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ipc.Serve(groupCtx, listener, controller)
	})
	group.Go(func() error {
		defer unsubscribe()
		return notifier.Run(groupCtx, indicatorEvents)
	})
	if cfg.Feed.Enable {
		server := feed.New(controller, broker, logger)
		group.Go(func() error {
			return server.ListenAndServe(groupCtx, cfg.Feed.Listen)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return controller.Close(closeCtx)
	})

	logger.Info("daemon ready",
		"socket", socketPath,
		"config", env.loaded.Path,
		"backend", cfg.Keyboard.Backend,
		"feed", cfg.Feed.Enable,
	)

	if err := group.Wait(); err != nil {
		logger.Error("daemon failed", "error", err.Error())
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

// keyboardOpener adapts the exec injector to the session's keyboard contract.
func keyboardOpener(injector *output.Injector) session.KeyboardOpener {
	return session.OpenerFunc(func(ctx context.Context) (session.Keyboard, error) {
		kb, err := injector.Open(ctx)
		if err != nil {
			return nil, err
		}
		return kb, nil
	})
}
