package discover

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/moehared/analyze-pr-impact/pkg/github"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

var (
	// ErrRepositoryAccess means the repository does not exist or the token cannot see it.
	ErrRepositoryAccess = errors.New("repository not found or inaccessible")
	// ErrRetrieval covers every other failure to read from the source.
	ErrRetrieval = errors.New("retrieval failed")
)

// classify wraps err with ErrRepositoryAccess or ErrRetrieval and logs it.
func (f *Finder) classify(ctx context.Context, op string, repo prs.Repo, err error) error {
	class := ErrRetrieval
	var apiErr *github.Error
	if errors.As(err, &apiErr) && apiErr.NotFoundOrForbidden() && !rateLimited(apiErr) {
		class = ErrRepositoryAccess
	}
	f.logger.ErrorContext(ctx, "pull request discovery failed",
		"op", op, "repo", repo.String(), "class", class.Error(), "error", err)
	return fmt.Errorf("%s %s: %w: %w", op, repo, class, err)
}

// rateLimited reports whether a 403 is GitHub's primary or secondary rate limit.
func rateLimited(e *github.Error) bool {
	return e.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(e.Body), "rate limit")
}
