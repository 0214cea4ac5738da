package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/satishbabariya/dbprobe/cli/commands"
	"github.com/satishbabariya/dbprobe/cli/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		ui.PrintError(os.Stderr, "%v", err)
		stop()
		os.Exit(1)
	}
}
