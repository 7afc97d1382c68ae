package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// Finding is one built document that no longer matches its source.
type Finding struct {
	Document string // source directory relative to the source root
	Artifact string
	Source   string
	Diff     string
}

// Reporter opens, or comments on, a single issue listing drifted documents.
type Reporter struct {
	client *Client
	owner  string
	repo   string
	labels []string
	log    *slog.Logger
}

// NewReporter creates a Reporter that files issues in owner/repo.
func NewReporter(client *Client, owner, repo string, labels []string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: client, owner: owner, repo: repo, labels: labels, log: logger}
}

// Issue identifies the issue a report landed on.
type Issue struct {
	Number  int
	URL     string
	Created bool
}

// Title returns the issue title used for a report on n findings.
func Title(n int) string {
	if n == 1 {
		return "ssmdox: 1 built document is out of date"
	}
	return fmt.Sprintf("ssmdox: %d built documents are out of date", n)
}

// Body renders the markdown issue body.
func Body(findings []Finding) string {
	var b strings.Builder
	b.WriteString("The following built documents differ from their sources. Run `ssmdox build` and commit the result.\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "\n### `%s`\n\n", f.Document)
		fmt.Fprintf(&b, "- artifact: `%s`\n- source: `%s`\n", f.Artifact, f.Source)
		if f.Diff != "" {
			fmt.Fprintf(&b, "\n```diff\n%s\n```\n", strings.TrimRight(f.Diff, "\n"))
		}
	}
	return b.String()
}

// Report files findings. An open issue with the same title gets a comment
// instead of a duplicate issue. Reporting nothing is a no-op.
func (r *Reporter) Report(ctx context.Context, findings []Finding) (*Issue, error) {
	if len(findings) == 0 {
		return nil, nil
	}
	title := Title(len(findings))
	body := Body(findings)

	existing, err := r.findOpen(ctx, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, _, err := r.client.inner.Issues.CreateComment(ctx, r.owner, r.repo, existing.GetNumber(), &gh.IssueComment{Body: gh.String(body)})
		if err != nil {
			return nil, fmt.Errorf("comment on issue #%d: %w", existing.GetNumber(), err)
		}
		r.log.Info("drift report added to issue", "number", existing.GetNumber(), "url", existing.GetHTMLURL())
		return &Issue{Number: existing.GetNumber(), URL: existing.GetHTMLURL()}, nil
	}

	req := &gh.IssueRequest{
		Title: gh.String(title),
		Body:  gh.String(body),
	}
	if len(r.labels) > 0 {
		labels := append([]string(nil), r.labels...)
		req.Labels = &labels
	}
	issue, _, err := r.client.inner.Issues.Create(ctx, r.owner, r.repo, req)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	r.log.Info("drift report opened", "number", issue.GetNumber(), "url", issue.GetHTMLURL())
	return &Issue{Number: issue.GetNumber(), URL: issue.GetHTMLURL(), Created: true}, nil
}

func (r *Reporter) findOpen(ctx context.Context, title string) (*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      r.labels,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	issues, _, err := r.client.inner.Issues.ListByRepo(ctx, r.owner, r.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		if issue.GetTitle() == title {
			return issue, nil
		}
	}
	return nil, nil
}
