package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"20"`
	Build string `help:"Show one build with its artifacts"`
	JSON  bool   `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.State.Path == "" {
		return derrors.ValidationFailed("state.path", "the build ledger is disabled")
	}
	store, err := eventstore.NewSQLiteStore(cfg.State.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), os.Stdout, eventstore.NewHistory(store, h.Limit))
}

func (h *HistoryCmd) print(ctx context.Context, w io.Writer, history *eventstore.History) error {
	if h.Build != "" {
		summary, ok, err := history.Build(ctx, h.Build)
		if err != nil {
			return err
		}
		if !ok {
			return derrors.ValidationFailed("build", "no such build: "+h.Build)
		}
		if h.JSON {
			return writeJSON(w, summary)
		}
		printSummary(w, summary)
		return nil
	}

	builds, err := history.Builds(ctx)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(w, builds)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTATUS\tSTARTED\tDURATION\tARTIFACTS")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			b.BuildID, b.Status, b.StartedAt.Local().Format(time.DateTime), b.Duration.Round(time.Millisecond), len(b.Artifacts))
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s *eventstore.BuildSummary) {
	_, _ = fmt.Fprintf(w, "Build %s: %s\n", s.BuildID, s.Status)
	_, _ = fmt.Fprintf(w, "  root:       %s\n", s.Root)
	_, _ = fmt.Fprintf(w, "  started:    %s\n", s.StartedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(w, "  modules:    %d (documented %d)\n", s.Modules, s.Documented)
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "  error:      %s\n", s.Error)
	}
	for _, a := range s.Artifacts {
		_, _ = fmt.Fprintf(w, "  - %s\n", a)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
