package main

import (
	"errors"
	"fmt"

	"github.com/cgast/ssmdox/internal/cli"
	"github.com/cgast/ssmdox/internal/github"
	"github.com/cgast/ssmdox/internal/state"
	"github.com/cgast/ssmdox/pkg/dox"
	"github.com/cgast/ssmdox/pkg/textdiff"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	SourceArgs
	OutputFlag
	Report    bool   `help:"Open a GitHub issue listing drifted documents"`
	GitHubAPI string `name:"github-api" help:"GitHub API base URL" hidden:""`
}

func (c *CheckCmd) Run(g *Global) error {
	_, units, err := c.units(g)
	if err != nil {
		return err
	}
	out := c.OutputFlag.dir(g)

	var failures cli.Failures
	var findings []github.Finding
	current := 0
	for _, u := range units {
		name := unitName(u)
		rec := state.Record{Document: name, Artifact: u.BuiltDocumentPath(out), Event: state.EventCheck}
		err := u.Check(out)

		var drift *dox.DocumentDrift
		switch {
		case err == nil:
			current++
			g.record(rec)
			continue
		case errors.As(err, &drift):
			rec.Event = state.EventDrift
			g.record(rec)
			findings = append(findings, finding(u, name, out, drift))
			g.Logger.Warn("document drift", "dox", name, "document", drift.DocumentPath)
		default:
			g.Logger.Error("check failed", "dox", name, "error", err)
		}
		failures.Add(name, err)
	}
	fmt.Fprintf(g.Stdout, "%d of %d documents up to date\n", current, len(units))

	if c.Report && len(findings) > 0 {
		if err := c.report(g, findings); err != nil {
			return err
		}
	}
	return failures.Err()
}

func finding(u *dox.Dox, name, out string, drift *dox.DocumentDrift) github.Finding {
	f := github.Finding{Document: name, Artifact: drift.DocumentPath, Source: drift.DoxPath}
	if lines, err := u.Diff(out); err == nil {
		f.Diff = textdiff.Format(lines)
	} else {
		f.Diff = drift.Report()
	}
	return f
}

func (c *CheckCmd) report(g *Global, findings []github.Finding) error {
	gc := g.Config.GitHub
	if gc.Token == "" || gc.Repo == "" {
		return &cli.ConfigError{Err: errors.New("--report needs github.token and github.repo")}
	}
	owner, repo, err := gc.OwnerRepo()
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	client, err := github.NewClient(gc.Token, c.GitHubAPI)
	if err != nil {
		return &cli.ConfigError{Err: err}
	}
	issue, err := github.NewReporter(client, owner, repo, gc.Labels, g.Logger).Report(g.Ctx, findings)
	if err != nil {
		return fmt.Errorf("report drift: %w", err)
	}
	fmt.Fprintf(g.Stdout, "drift reported in %s\n", issue.URL)
	return nil
}
