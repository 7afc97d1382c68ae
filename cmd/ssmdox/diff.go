package main

import (
	"fmt"

	"github.com/cgast/ssmdox/internal/cli"
	"github.com/cgast/ssmdox/pkg/textdiff"
)

// DiffCmd implements the 'diff' command.
type DiffCmd struct {
	SourceArgs
	OutputFlag
	ExitCode bool `name:"exit-code" help:"Exit with status 6 when any document differs"`
}

func (d *DiffCmd) Run(g *Global) error {
	_, units, err := d.units(g)
	if err != nil {
		return err
	}
	out := d.OutputFlag.dir(g)

	var failures cli.Failures
	changed := 0
	for _, u := range units {
		name := unitName(u)
		lines, err := u.Diff(out)
		if err != nil {
			failures.Add(name, err)
			continue
		}
		added, removed := textdiff.Stats(lines)
		if added == 0 && removed == 0 {
			continue
		}
		changed++
		fmt.Fprintf(g.Stdout, "--- %s\n+++ %s\n", u.BuiltDocumentPath(out), u.Path)
		fmt.Fprintln(g.Stdout, textdiff.Format(lines))
	}
	if err := failures.Err(); err != nil {
		return err
	}
	if d.ExitCode && changed > 0 {
		return &diffFound{count: changed}
	}
	return nil
}

type diffFound struct {
	count int
}

func (e *diffFound) Error() string {
	return fmt.Sprintf("%d documents differ from their sources", e.count)
}

func (e *diffFound) ExitCode() int { return cli.ExitDrift }
