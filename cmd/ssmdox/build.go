package main

import (
	"fmt"
	"os"

	"github.com/cgast/ssmdox/internal/cli"
	"github.com/cgast/ssmdox/internal/state"
	"github.com/cgast/ssmdox/pkg/dox"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SourceArgs
	OutputFlag
}

func (b *BuildCmd) Run(g *Global) error {
	_, units, err := b.units(g)
	if err != nil {
		return err
	}
	out := b.OutputFlag.dir(g)
	built, err := buildAll(g, units, out)
	fmt.Fprintf(g.Stdout, "built %d of %d documents into %s\n", built, len(units), out)
	return err
}

// buildAll builds every unit, continuing past failures.
func buildAll(g *Global, units []*dox.Dox, out string) (int, error) {
	var failures cli.Failures
	built := 0
	for _, u := range units {
		name := unitName(u)
		path, err := u.Build(out)
		if err != nil {
			g.Logger.Error("build failed", "dox", name, "error", err)
			failures.Add(name, err)
			continue
		}
		built++

		rec := state.Record{Document: name, Artifact: path, Event: state.EventBuild}
		if data, err := os.ReadFile(path); err == nil {
			rec.SHA256 = state.Checksum(data)
		}
		g.record(rec)
	}
	return built, failures.Err()
}
