package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cgast/ssmdox/internal/cli"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Document string `arg:"" optional:"" help:"Only show this source directory, relative to the source root"`
	Limit    int    `short:"n" help:"Maximum number of records" default:"20"`
}

func (h *HistoryCmd) Run(g *Global) error {
	ledger, err := g.Ledger()
	if err != nil {
		return err
	}
	if ledger == nil {
		return &cli.ConfigError{Err: errors.New("state is disabled (state.enabled: false)")}
	}
	records, err := ledger.History(h.Document, h.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tDOX\tSHA256\tRUN")
	for _, r := range records {
		sum := r.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		run := r.Run
		if len(run) > 8 {
			run = run[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.At.Local().Format(time.RFC3339), r.Event, r.Document, sum, run)
	}
	return tw.Flush()
}
