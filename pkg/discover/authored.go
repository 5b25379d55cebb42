package discover

import (
	"context"
	"strings"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// AuthoredQuery selects pull requests by their author.
type AuthoredQuery struct {
	Window     prs.Window
	Author     string // empty matches any author
	MergedOnly bool
}

// Authored returns the pull requests merged inside the window that match q,
// most recently updated first. Retained pull requests carry their diff
// statistics. On error the result is nil.
func (f *Finder) Authored(ctx context.Context, repo prs.Repo, q AuthoredQuery) ([]prs.PullRequest, error) {
	w := q.Window.Resolve(f.now())
	f.logger.InfoContext(ctx, "finding authored pull requests",
		"repo", repo.String(), "author", q.Author, "window", w.String(), "scan", f.scan.String())

	var found []prs.PullRequest
	for pr, err := range f.source.ClosedPullRequests(ctx, repo) {
		if err != nil {
			return nil, f.classify(ctx, "authored", repo, err)
		}
		if q.Author != "" && !strings.EqualFold(pr.Author, q.Author) {
			continue
		}
		if q.MergedOnly && !pr.Merged() {
			continue
		}
		if pr.MergedAt == nil {
			continue
		}
		if pr.MergedAt.Before(w.Start) {
			if f.scan == ScanEarlyExit {
				f.logger.DebugContext(ctx, "stopping scan at pull request merged before window",
					"repo", repo.String(), "pr", pr.Number, "merged_at", *pr.MergedAt)
				break
			}
			continue
		}
		if pr.MergedAt.After(w.End) {
			continue
		}
		found = append(found, *pr)
	}

	for i := range found {
		detail, err := f.source.PullRequest(ctx, repo, found[i].Number)
		if err != nil {
			return nil, f.classify(ctx, "authored", repo, err)
		}
		found[i] = withStats(found[i], detail)
	}

	f.logger.InfoContext(ctx, "found authored pull requests", "repo", repo.String(), "count", len(found))
	return found, nil
}
