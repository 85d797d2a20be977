// Package main runs a local stand-in for the graph service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hyder110/GraphFlow/internal/adapters/stub"
	"github.com/hyder110/GraphFlow/internal/catalog"
	coregraph "github.com/hyder110/GraphFlow/internal/core/graph"
	"github.com/hyder110/GraphFlow/internal/infrastructure/config"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "graphflow-stub:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("graphflow-stub", pflag.ContinueOnError)
	addr := flags.String("addr", cfg.App.StubAddr, "listen address")
	token := flags.String("token", cfg.API.Token, "bearer token required on /api/graphs (empty disables)")
	seed := flags.Bool("seed", false, "store every catalog template at startup")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger := logging.New(logging.Options{Environment: cfg.App.Environment, Module: "stub"})
	srv := stub.New(stub.Config{Token: *token, Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		if err := seedTemplates(ctx, srv); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/", srv.Handler())

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting stub server", logging.WithData(map[string]interface{}{"addr": *addr, "auth": *token != ""}))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down stub server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func seedTemplates(ctx context.Context, srv *stub.Server) error {
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	for _, tmpl := range cat.List(catalog.FilterAll) {
		if _, err := srv.Seed(ctx, &coregraph.Graph{
			Name:        tmpl.Name,
			Description: tmpl.Description,
			Definition:  tmpl.Definition,
		}); err != nil {
			return fmt.Errorf("seed %s: %w", tmpl.ID, err)
		}
	}
	return nil
}
