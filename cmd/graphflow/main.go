// Package main provides the GraphFlow command line client
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/hyder110/GraphFlow/internal/infrastructure/config"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, config.Load)
	stop()
	os.Exit(code)
}
