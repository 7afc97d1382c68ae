package main

import (
	"fmt"
	"text/tabwriter"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	SourceArgs
	OutputFlag
}

func (l *ListCmd) Run(g *Global) error {
	_, units, err := l.units(g)
	if err != nil {
		return err
	}
	out := l.OutputFlag.dir(g)

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOX\tBUILT DOCUMENT")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\n", unitName(u), u.BuiltDocumentPath(out))
	}
	return tw.Flush()
}
