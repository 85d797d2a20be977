package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/hyder110/GraphFlow/internal/app/services"
	"github.com/hyder110/GraphFlow/internal/catalog"
	"github.com/hyder110/GraphFlow/internal/infrastructure/config"
	"github.com/hyder110/GraphFlow/internal/infrastructure/logging"
	"github.com/hyder110/GraphFlow/pkg/client"
)

// command is one CLI verb.
type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"templates", "[--filter <difficulty|tag>]", "List starter templates", runTemplates},
	{"instantiate", "<template-id>", "Create a new graph from a template", runInstantiate},
	{"list", "", "List stored graphs", runList},
	{"get", "<id>", "Show a graph as JSON", runGet},
	{"create", "--name <name> --file <definition.json|.jsonc> [--description <text>]", "Create a graph from a definition file", runCreate},
	{"update", "<id> [--name <name>] [--description <text>] [--file <definition>]", "Replace a graph's name, description or definition", runUpdate},
	{"delete", "<id>", "Delete a graph", runDelete},
	{"run", "<id> --input <json|text>", "Run a graph and record the exchange", runRun},
	{"runs", "[--graph <id>] [--status success|error] [--limit <n>]", "Show recorded runs, newest first", runRuns},
	{"validate", "--file <definition> [--strict]", "Check a definition file locally", runValidate},
	{"health", "", "Check that the graph service is reachable", runHealth},
	{"version", "", "Print version information", nil},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// execute runs one CLI invocation and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, load func(files ...string) (*config.Config, error)) int {
	global := pflag.NewFlagSet("graphflow", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	verbose := global.BoolP("verbose", "v", false, "log requests to stderr")
	envFile := global.String("env-file", "", "load settings from this .env file")
	help := global.BoolP("help", "h", false, "show help")

	if err := global.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr, global)
		return 1
	}
	rest := global.Args()
	if *help {
		printUsage(stdout, global)
		return 0
	}
	if len(rest) == 0 {
		printUsage(stderr, global)
		return 1
	}

	name := rest[0]
	if name == "version" {
		fmt.Fprintf(stdout, "GraphFlow %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		return 0
	}
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\nRun 'graphflow --help' for usage.\n", name)
		return 1
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := load(files...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	a := newApp(cfg, stdout, stderr, *verbose)
	defer a.close()

	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		a.logger.Debug("command failed", logging.WithData(map[string]string{"command": name, "error": err.Error()}))
		fmt.Fprintf(stderr, "Error: %s\n", client.UserMessage(err))
		return 1
	}
	return 0
}

func printUsage(w io.Writer, global *pflag.FlagSet) {
	fmt.Fprintln(w, "GraphFlow - compose, store and run agent workflow graphs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: graphflow [global flags] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprint(w, global.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings come from GRAPHFLOW_* environment variables or a .env file.")
}

// app holds what commands share for one invocation.
type app struct {
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer
	logger  *logging.Logger
	styles  styles
	api     *client.Client
	journal *services.JournalService
	closers []func() error
}

func newApp(cfg *config.Config, stdout, stderr io.Writer, verbose bool) *app {
	logOut := io.Discard
	if verbose {
		logOut = stderr
	}
	return &app{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
		logger: logging.New(logging.Options{Environment: cfg.App.Environment, Stdout: logOut, Stderr: logOut, Module: "cli"}),
		styles: newStyles(stdout),
	}
}

// client returns the graph service client, created on first use.
func (a *app) client() (*client.Client, error) {
	if a.api != nil {
		return a.api, nil
	}
	c, err := client.New(client.Config{
		BaseURL: a.cfg.API.BaseURL,
		Token:   a.cfg.API.Token,
		Timeout: a.cfg.API.Timeout,
		Logger:  a.logger.Slog(),
	})
	if err != nil {
		return nil, err
	}
	a.api = c
	return c, nil
}

// runJournal opens the configured run journal on first use.
func (a *app) runJournal(ctx context.Context) (*services.JournalService, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	store, closeFn, err := openJournal(ctx, a.cfg.Journal)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeFn)
	a.journal = services.NewJournalService(store, a.cfg.Journal.Backend, a.logger)
	return a.journal, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", logging.WithData(map[string]string{"error": err.Error()}))
		}
	}
}

// flagSet returns a flag set whose errors and help go to stderr.
func (a *app) flagSet(name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: graphflow %s %s\n", name, args)
		if fs.HasFlags() {
			fmt.Fprint(a.stderr, fs.FlagUsages())
		}
	}
	return fs
}

// defaultCatalog is shared by the template commands.
func defaultCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("template catalog: %w", err)
	}
	return cat, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
