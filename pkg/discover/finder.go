// Package discover finds the pull requests a developer authored or reviewed
// within a time window.
package discover

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// Source streams closed pull requests and fetches the per-PR data the
// filters need. *prs.Client implements it.
type Source interface {
	ClosedPullRequests(ctx context.Context, repo prs.Repo) iter.Seq2[*prs.PullRequest, error]
	PullRequest(ctx context.Context, repo prs.Repo, number int) (*prs.PullRequest, error)
	Reviews(ctx context.Context, repo prs.Repo, number int) ([]prs.Review, error)
}

// ScanMode controls how far the authored filter walks the closed-PR stream.
type ScanMode int

const (
	// ScanEarlyExit stops at the first pull request merged before the window.
	// The stream is ordered by update time, not merge time, so a PR that was
	// updated recently but merged long ago ends the scan early. This is a
	// heuristic.
	ScanEarlyExit ScanMode = iota
	// ScanFull walks every closed pull request in the repository.
	ScanFull
)

func (m ScanMode) String() string {
	switch m {
	case ScanEarlyExit:
		return "early-exit"
	case ScanFull:
		return "full"
	default:
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
}

// ParseScanMode parses "early-exit" or "full". An empty string selects ScanEarlyExit.
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "early-exit", "early_exit", "earlyexit":
		return ScanEarlyExit, nil
	case "full":
		return ScanFull, nil
	default:
		return ScanEarlyExit, fmt.Errorf("unknown scan mode %q (want early-exit or full)", s)
	}
}

// DefaultTitleExclusions are the title substrings that keep a pull request out
// of the reviewed set. Matching is case-insensitive, so "translation" also
// covers "Translations".
var DefaultTitleExclusions = []string{"translation"}

// Finder applies the authored and reviewed filters to a Source.
type Finder struct {
	source     Source
	logger     *slog.Logger
	now        func() time.Time
	exclusions []string
	scan       ScanMode
}

// Option is a function that configures a Finder.
type Option func(*Finder)

// WithLogger sets a custom logger for the finder.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// WithScanMode selects how the authored filter traverses the stream.
func WithScanMode(mode ScanMode) Option {
	return func(f *Finder) {
		f.scan = mode
	}
}

// WithTitleExclusions replaces the default title exclusion patterns.
func WithTitleExclusions(patterns ...string) Option {
	return func(f *Finder) {
		f.exclusions = nil
		for _, p := range patterns {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				f.exclusions = append(f.exclusions, p)
			}
		}
	}
}

// WithClock sets the clock used to resolve open-ended windows.
func WithClock(now func() time.Time) Option {
	return func(f *Finder) {
		f.now = now
	}
}

// New creates a Finder reading from source.
func New(source Source, opts ...Option) *Finder {
	f := &Finder{
		source:     source,
		logger:     slog.Default(),
		now:        time.Now,
		exclusions: DefaultTitleExclusions,
		scan:       ScanEarlyExit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// excludedTitle returns the exclusion pattern the title matches, if any.
func (f *Finder) excludedTitle(title string) (string, bool) {
	lower := strings.ToLower(title)
	for _, p := range f.exclusions {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// inWindow reports whether pr was merged inside w.
func inWindow(pr *prs.PullRequest, w prs.Window) bool {
	return pr.MergedAt != nil && w.Contains(*pr.MergedAt)
}

// withStats copies the diff statistics of detail into pr.
func withStats(pr prs.PullRequest, detail *prs.PullRequest) prs.PullRequest {
	pr.ChangedFiles = detail.ChangedFiles
	pr.Additions = detail.Additions
	pr.Deletions = detail.Deletions
	if pr.Body == "" {
		pr.Body = detail.Body
	}
	return pr
}
