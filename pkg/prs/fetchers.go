package prs

import (
	"context"
	"fmt"
	"iter"

	"github.com/moehared/analyze-pr-impact/pkg/github"
)

const maxPerPage = 100

// ghostLogin stands in for deleted GitHub accounts.
const ghostLogin = "ghost"

// ClosedPullRequests streams the repository's closed pull requests, most
// recently updated first. Pages are requested lazily: stopping the range loop
// stops the fetching. A retrieval error is yielded once and ends the stream.
func (c *Client) ClosedPullRequests(ctx context.Context, repo Repo) iter.Seq2[*PullRequest, error] {
	return func(yield func(*PullRequest, error) bool) {
		page := 1
		for {
			c.logger.DebugContext(ctx, "fetching closed pull requests", "repo", repo.String(), "page", page)
			path := fmt.Sprintf("/repos/%s/%s/pulls?state=closed&sort=updated&direction=desc&page=%d&per_page=%d",
				repo.Owner, repo.Name, page, maxPerPage)
			var pulls []*github.PullRequest
			resp, err := c.github.Get(ctx, path, &pulls)
			if err != nil {
				yield(nil, fmt.Errorf("listing closed pull requests: %w", err))
				return
			}

			for _, pull := range pulls {
				if !yield(convertPullRequest(pull), nil) {
					return
				}
			}

			if resp.NextPage == 0 {
				return
			}
			page = resp.NextPage
		}
	}
}

// PullRequest fetches a single pull request including its diff statistics.
func (c *Client) PullRequest(ctx context.Context, repo Repo, number int) (*PullRequest, error) {
	c.logger.DebugContext(ctx, "fetching pull request", "repo", repo.String(), "pr", number)

	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", repo.Owner, repo.Name, number)
	var pull github.PullRequest
	if _, err := c.github.Get(ctx, path, &pull); err != nil {
		return nil, fmt.Errorf("fetching pull request #%d: %w", number, err)
	}
	return convertPullRequest(&pull), nil
}

// Reviews fetches every review submitted on a pull request.
func (c *Client) Reviews(ctx context.Context, repo Repo, number int) ([]Review, error) {
	c.logger.DebugContext(ctx, "fetching reviews", "repo", repo.String(), "pr", number)

	var reviews []Review
	page := 1

	for {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews?page=%d&per_page=%d",
			repo.Owner, repo.Name, number, page, maxPerPage)
		var batch []*github.Review
		resp, err := c.github.Get(ctx, path, &batch)
		if err != nil {
			return nil, fmt.Errorf("fetching reviews for #%d: %w", number, err)
		}

		for _, review := range batch {
			reviews = append(reviews, Review{
				SubmittedAt: review.SubmittedAt,
				Reviewer:    login(review.User),
				Body:        review.Body,
				State:       review.State,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	c.logger.DebugContext(ctx, "fetched reviews", "pr", number, "count", len(reviews))
	return reviews, nil
}

// Viewer returns the login of the authenticated user.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	var user github.User
	if _, err := c.github.Get(ctx, "/user", &user); err != nil {
		return "", fmt.Errorf("fetching authenticated user: %w", err)
	}
	return user.Login, nil
}

func convertPullRequest(pull *github.PullRequest) *PullRequest {
	pr := &PullRequest{
		CreatedAt:    pull.CreatedAt,
		UpdatedAt:    pull.UpdatedAt,
		MergedAt:     pull.MergedAt,
		Title:        pull.Title,
		URL:          pull.HTMLURL,
		Author:       login(pull.User),
		Number:       pull.Number,
		ChangedFiles: pull.ChangedFiles,
		Additions:    pull.Additions,
		Deletions:    pull.Deletions,
	}
	if pull.Body != nil {
		pr.Body = *pull.Body
	}
	return pr
}

func login(user *github.User) string {
	if user == nil || user.Login == "" {
		return ghostLogin
	}
	return user.Login
}
