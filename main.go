package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"discord-gif/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Cmd.Run(ctx, os.Args)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
