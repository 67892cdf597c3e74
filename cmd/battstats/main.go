package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BattGenie/battstats/cmd/battstats/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.RootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
