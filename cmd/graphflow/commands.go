package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/hyder110/GraphFlow/internal/app/dto"
	"github.com/hyder110/GraphFlow/internal/app/usecases"
	"github.com/hyder110/GraphFlow/internal/catalog"
	"github.com/hyder110/GraphFlow/internal/core/run"
	"github.com/hyder110/GraphFlow/pkg/client"
	"github.com/hyder110/GraphFlow/pkg/serialization"
	"github.com/hyder110/GraphFlow/pkg/validation"
)

var errUsage = errors.New("invalid usage")

// positionalID parses the single <id> argument of a command.
func positionalID(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: graphflow %s expects exactly one graph id", errUsage, name)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a graph id", errUsage, args[0])
	}
	return id, nil
}

func runTemplates(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("templates", "[--filter <difficulty|tag>]")
	filter := fs.String("filter", catalog.FilterAll, "difficulty (beginner, intermediate, advanced) or tag")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := defaultCatalog()
	if err != nil {
		return err
	}
	templates := cat.List(*filter)
	if len(templates) == 0 {
		fmt.Fprintf(a.stdout, "No templates match %q.\n", *filter)
		return nil
	}

	for i, t := range templates {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		fmt.Fprintf(a.stdout, "%s  %s\n", a.styles.heading.Render(t.Name), a.styles.difficulty(t.Difficulty))
		fmt.Fprintf(a.stdout, "  id:    %s\n", t.ID)
		fmt.Fprintf(a.stdout, "  %s\n", t.Description)
		fmt.Fprintf(a.stdout, "  %s\n", a.styles.muted.Render(fmt.Sprintf("%d nodes, %d edges  [%s]", t.Nodes, t.Edges, joinTags(t.Tags))))
	}
	return nil
}

func runInstantiate(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("instantiate", "<template-id>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: graphflow instantiate expects one template id", errUsage)
	}

	cat, err := defaultCatalog()
	if err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}

	flow := usecases.NewInstantiationFlow(cat, api, a.logger, usecases.WithOwnerID(a.cfg.API.UserID))
	outcome, err := flow.Select(ctx, fs.Arg(0))
	if err != nil {
		if msg := flow.LastError(); msg != "" {
			return errors.New(msg)
		}
		return err
	}

	fmt.Fprintf(a.stdout, "Created graph %d: %s\n", outcome.GraphID, outcome.GraphName)
	fmt.Fprintf(a.stdout, "Open %s\n", outcome.RedirectPath)
	flow.NavigationStarted()
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("list", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}
	graphs, err := api.ListGraphs(ctx)
	if err != nil {
		return err
	}
	if len(graphs) == 0 {
		fmt.Fprintln(a.stdout, "No graphs yet. Create one with 'graphflow instantiate <template-id>'.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tUPDATED")
	for _, g := range graphs {
		updated := "-"
		if g.UpdatedAt != nil {
			updated = formatTime(g.UpdatedAt.Time)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Name, formatTime(g.CreatedAt.Time), updated)
	}
	return tw.Flush()
}

func runGet(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("get", "<id>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID("get", fs.Args())
	if err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}
	g, err := api.GetGraph(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, g)
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("create", "--name <name> --file <definition> [--description <text>]")
	name := fs.String("name", "", "graph name (required)")
	description := fs.String("description", "", "graph description")
	file := fs.StringP("file", "f", "", "definition file, JSON or JSONC (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *file == "" {
		return fmt.Errorf("%w: --name and --file are required", errUsage)
	}

	def, err := readDefinition(*file)
	if err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}
	owner := a.cfg.API.UserID
	g, err := api.CreateGraph(ctx, client.CreateGraphRequest{
		Name:        *name,
		Description: *description,
		Definition:  *def,
		UserID:      &owner,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Created graph %d: %s\n", g.ID, g.Name)
	fmt.Fprintf(a.stdout, "Open %s\n", dto.EditorPath(g.ID))
	return nil
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("update", "<id> [--name <name>] [--description <text>] [--file <definition>]")
	name := fs.String("name", "", "new graph name")
	description := fs.String("description", "", "new graph description")
	file := fs.StringP("file", "f", "", "new definition file, JSON or JSONC")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID("update", fs.Args())
	if err != nil {
		return err
	}
	if !fs.Changed("name") && !fs.Changed("description") && !fs.Changed("file") {
		return fmt.Errorf("%w: nothing to update; pass --name, --description or --file", errUsage)
	}

	api, err := a.client()
	if err != nil {
		return err
	}
	// The service replaces all three fields, so unchanged ones are re-sent.
	current, err := api.GetGraph(ctx, id)
	if err != nil {
		return err
	}
	patch := client.GraphPatch{Name: current.Name, Description: current.Description, Definition: current.Definition}
	if fs.Changed("name") {
		patch.Name = *name
	}
	if fs.Changed("description") {
		patch.Description = *description
	}
	if fs.Changed("file") {
		def, err := readDefinition(*file)
		if err != nil {
			return err
		}
		patch.Definition = *def
	}

	g, err := api.UpdateGraph(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated graph %d: %s\n", g.ID, g.Name)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("delete", "<id>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID("delete", fs.Args())
	if err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}
	res, err := api.DeleteGraph(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, res.Message)
	return nil
}

func runRun(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("run", "<id> --input <json|text>")
	input := fs.StringP("input", "i", "", "run input: JSON, or plain text sent as a string (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positionalID("run", fs.Args())
	if err != nil {
		return err
	}
	if !fs.Changed("input") {
		return fmt.Errorf("%w: --input is required", errUsage)
	}

	api, err := a.client()
	if err != nil {
		return err
	}
	journal, err := a.runJournal(ctx)
	if err != nil {
		return err
	}
	svc := usecases.NewRunService(api, journal, a.logger)
	resp, err := svc.Run(ctx, dto.RunRequest{GraphID: id, Input: parseInput(*input)})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Output: %s\n", formatValue(resp.Output))
	if resp.FinalOutput != nil {
		fmt.Fprintf(a.stdout, "Final output: %s\n", formatValue(resp.FinalOutput))
	}
	fmt.Fprintln(a.stdout, a.styles.muted.Render(fmt.Sprintf("run %s in %s", resp.RunID, resp.Duration.Round(time.Millisecond))))
	if !resp.Journaled {
		fmt.Fprintln(a.stderr, "Warning: the run could not be recorded in the journal.")
	}
	return nil
}

func runRuns(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("runs", "[--graph <id>] [--status success|error] [--limit <n>]")
	graphID := fs.Int("graph", 0, "only runs of this graph")
	status := fs.String("status", "", "only runs with this status (success or error)")
	limit := fs.Int("limit", 20, "maximum number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch run.Status(*status) {
	case "", run.StatusSuccess, run.StatusError:
	default:
		return fmt.Errorf("%w: --status must be success or error", errUsage)
	}

	journal, err := a.runJournal(ctx)
	if err != nil {
		return err
	}
	records, err := journal.History(ctx, run.Filter{GraphID: *graphID, Status: run.Status(*status), Limit: *limit})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "No recorded runs.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tGRAPH\tSTATUS\tSTARTED\tDURATION\tRESULT")
	for _, r := range records {
		result := formatValue(r.FinalOutput)
		if r.FinalOutput == nil {
			result = formatValue(r.Output)
		}
		if r.Status == run.StatusError {
			result = r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.GraphID, a.styles.status(r.Status), formatTime(r.StartedAt), r.Duration().Round(time.Millisecond), truncate(result, 60))
	}
	return tw.Flush()
}

func runValidate(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("validate", "--file <definition> [--strict]")
	file := fs.StringP("file", "f", "", "definition file, JSON or JSONC (required)")
	strict := fs.Bool("strict", false, "also reject unknown models and cycles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: --file is required", errUsage)
	}

	opts := validation.GraphValidationOptions{RequireKnownModels: *strict, CheckCycles: *strict}
	def, err := readDefinition(*file, opts)
	if err != nil {
		return err
	}
	hash, err := serialization.Fingerprint(def)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %d nodes, %d edges\n", a.styles.success.Render("valid:"), len(def.Nodes), len(def.Edges))
	fmt.Fprintf(a.stdout, "fingerprint: %s\n", hash)
	return nil
}

func runHealth(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("health", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.client()
	if err != nil {
		return err
	}
	if err := api.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s\n", a.styles.success.Render("ok"), a.cfg.API.BaseURL)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
