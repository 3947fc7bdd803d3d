// Command volunteerbot manages the bot database and serves its operational
// endpoints.
//
// Subcommands:
//
//	migrate  apply pending migrations and exit
//	status   print applied and pending migrations
//	serve    migrate, then serve /healthz and /metrics until interrupted
//
// Configuration is read from BOT_5VERST_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
