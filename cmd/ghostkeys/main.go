// Package main is the ghostkeys entrypoint. The same binary runs the daemon
// and every client command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/ghostkeys/internal/app"
)

func main() {
	// SIGHUP covers the daemon's terminal or session going away.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
