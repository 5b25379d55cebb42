package discover

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

const (
	// minSubstantiveLength is the trimmed length a review body must exceed to count.
	minSubstantiveLength = 10
	// minSubstantiveReviews is how many substantive reviews a reviewer must leave.
	minSubstantiveReviews = 2
)

// ReviewedQuery selects pull requests a reviewer engaged with.
type ReviewedQuery struct {
	Window   prs.Window
	Reviewer string
}

// Reviewed returns the pull requests merged inside the window that the
// reviewer did not author and left at least two substantive reviews on. Every
// closed pull request is scanned. Any retrieval error aborts the scan and the
// result is nil.
func (f *Finder) Reviewed(ctx context.Context, repo prs.Repo, q ReviewedQuery) ([]prs.ReviewedPullRequest, error) {
	if strings.TrimSpace(q.Reviewer) == "" {
		return nil, errors.New("reviewer is required")
	}
	w := q.Window.Resolve(f.now())
	f.logger.InfoContext(ctx, "finding reviewed pull requests",
		"repo", repo.String(), "reviewer", q.Reviewer, "window", w.String())

	var found []prs.ReviewedPullRequest
	for pr, err := range f.source.ClosedPullRequests(ctx, repo) {
		if err != nil {
			return nil, f.classify(ctx, "reviewed", repo, err)
		}
		if !inWindow(pr, w) {
			continue
		}
		if strings.EqualFold(pr.Author, q.Reviewer) {
			continue
		}
		if pattern, ok := f.excludedTitle(pr.Title); ok {
			f.logger.DebugContext(ctx, "skipping pull request with excluded title",
				"repo", repo.String(), "pr", pr.Number, "title", pr.Title, "pattern", pattern)
			continue
		}

		reviews, err := f.source.Reviews(ctx, repo, pr.Number)
		if err != nil {
			return nil, f.classify(ctx, "reviewed", repo, err)
		}
		bodies, substantive := reviewerBodies(reviews, q.Reviewer)
		if substantive < minSubstantiveReviews {
			f.logger.DebugContext(ctx, "skipping pull request with too few substantive reviews",
				"repo", repo.String(), "pr", pr.Number, "substantive", substantive)
			continue
		}

		detail, err := f.source.PullRequest(ctx, repo, pr.Number)
		if err != nil {
			return nil, f.classify(ctx, "reviewed", repo, err)
		}
		found = append(found, prs.ReviewedPullRequest{
			PullRequest: withStats(*pr, detail),
			Reviews:     bodies,
		})
	}

	f.logger.InfoContext(ctx, "found reviewed pull requests", "repo", repo.String(), "count", len(found))
	return found, nil
}

// reviewerBodies returns the non-empty bodies reviewer submitted, in order,
// and how many of them are substantive.
func reviewerBodies(reviews []prs.Review, reviewer string) (bodies []string, substantive int) {
	for _, r := range reviews {
		if !strings.EqualFold(r.Reviewer, reviewer) || r.Body == "" {
			continue
		}
		bodies = append(bodies, r.Body)
		if isSubstantive(r.Body) {
			substantive++
		}
	}
	return bodies, substantive
}

func isSubstantive(body string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(body)) > minSubstantiveLength
}
