// Command boatrace scrapes race pages and imports fanbook statistics.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/padraicbc/boatrace/cmd/boatrace/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
