// Package prs models closed pull requests and fetches them from GitHub.
package prs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PullRequest is a closed pull request as observed at fetch time.
type PullRequest struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Title        string     `json:"title"`
	Body         string     `json:"body,omitempty"`
	URL          string     `json:"url"`
	Author       string     `json:"author"`
	Number       int        `json:"number"`
	ChangedFiles int        `json:"changed_files"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
}

// Merged reports whether the pull request was merged.
func (pr *PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// Review is a single review submitted on a pull request.
type Review struct {
	SubmittedAt time.Time `json:"submitted_at"`
	Reviewer    string    `json:"reviewer"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
}

// ReviewedPullRequest is a pull request together with the non-empty review
// bodies a particular reviewer left on it, in submission order.
type ReviewedPullRequest struct {
	PullRequest
	Reviews []string `json:"reviews"`
}

// Repo identifies a repository as owner/name.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses an "owner/name" string.
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSpace(s)
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("repository %q must be in owner/name form", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// ParseRepos parses a list of repositories, splitting entries on commas and
// skipping blanks.
func ParseRepos(entries []string) ([]Repo, error) {
	var repos []Repo
	var errs []error
	for _, entry := range entries {
		for part := range strings.SplitSeq(entry, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			repo, err := ParseRepo(part)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			repos = append(repos, repo)
		}
	}
	return repos, errors.Join(errs...)
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// MarshalText renders the repository as owner/name.
func (r Repo) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
