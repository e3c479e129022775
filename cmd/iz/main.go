// Command iz manages IEEE 802.15.4 interfaces through the kernel MAC.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/dispatch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := App{}.New()

	err := app.RunContext(ctx, os.Args)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// interrupted by the user, e.g. while listening for events
		err = nil
	}
	if err != nil {
		log.Error(err.Error())
	}

	stop()
	os.Exit(dispatch.ExitCode(err))
}
