package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mycitadel/citadel/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		stop()
		os.Exit(1)
	}
}
