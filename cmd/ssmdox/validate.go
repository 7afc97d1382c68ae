package main

import (
	"fmt"

	"github.com/cgast/ssmdox/internal/cli"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	SourceArgs
}

func (v *ValidateCmd) Run(g *Global) error {
	_, units, err := v.units(g)
	if err != nil {
		return err
	}
	var failures cli.Failures
	for _, u := range units {
		name := unitName(u)
		doc, err := u.Content()
		if err != nil {
			failures.Add(name, err)
			continue
		}
		fmt.Fprintf(g.Stdout, "ok\t%s\t%d steps\n", name, len(doc.MainSteps))
	}
	return failures.Err()
}
