package github

import "time"

// User represents a GitHub user.
type User struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// PullRequest is the REST representation of a pull request. The list endpoint
// leaves Merged, ChangedFiles, Additions and Deletions at their zero values;
// only the single pull request endpoint fills them in.
type PullRequest struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	MergedAt     *time.Time `json:"merged_at"`
	User         *User      `json:"user"`
	Body         *string    `json:"body"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	HTMLURL      string     `json:"html_url"`
	Number       int        `json:"number"`
	ChangedFiles int        `json:"changed_files"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	Merged       bool       `json:"merged"`
}

// Review represents a pull request review.
type Review struct {
	SubmittedAt time.Time `json:"submitted_at"`
	User        *User     `json:"user"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	ID          int64     `json:"id"`
}
