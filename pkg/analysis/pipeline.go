// Package analysis turns retained pull requests into impact statements.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moehared/analyze-pr-impact/pkg/generate"
	"github.com/moehared/analyze-pr-impact/pkg/output"
	"github.com/moehared/analyze-pr-impact/pkg/pacing"
	"github.com/moehared/analyze-pr-impact/pkg/prompt"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// ErrorMarker prefixes the text of a failed analysis.
const ErrorMarker = "Error analyzing PR: "

// Result is the outcome of analyzing one pull request.
type Result struct {
	PR      prs.PullRequest `json:"pr"`
	Kind    prompt.Kind     `json:"kind"`
	Text    string          `json:"text"`
	Path    string          `json:"path,omitempty"`
	Reviews []string        `json:"reviews,omitempty"`
	Failed  bool            `json:"failed,omitempty"`
}

// Pipeline analyzes pull requests one at a time, pausing after each call.
type Pipeline struct {
	generator generate.Generator
	pacer     pacing.Pacer
	templates *prompt.Set
	dir       *output.Dir
	logger    *slog.Logger
	model     string
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithPacer sets the pacing policy applied after each generation call.
func WithPacer(pacer pacing.Pacer) Option {
	return func(p *Pipeline) {
		p.pacer = pacer
	}
}

// WithTemplates sets the prompt templates.
func WithTemplates(set *prompt.Set) Option {
	return func(p *Pipeline) {
		p.templates = set
	}
}

// WithModel sets the model named in each request.
func WithModel(model string) Option {
	return func(p *Pipeline) {
		p.model = model
	}
}

// NewPipeline creates a pipeline that writes its per-PR files to dir. It
// paces calls one second apart unless WithPacer says otherwise.
func NewPipeline(generator generate.Generator, dir *output.Dir, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator: generator,
		dir:       dir,
		pacer:     pacing.Fixed{Delay: time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.templates == nil {
		p.templates = prompt.Builtins()
	}
	return p
}

// AnalyzeAuthored analyzes each authored pull request in order. It only
// returns an error when ctx is done, along with the results so far.
func (p *Pipeline) AnalyzeAuthored(ctx context.Context, pulls []prs.PullRequest) ([]Result, error) {
	results := make([]Result, 0, len(pulls))
	for i := range pulls {
		pr := &pulls[i]
		r := p.analyze(ctx, prompt.KindAuthored, pr, nil, p.templates.Authored, prompt.AuthoredValues(pr))
		results = append(results, r)
		if err := p.pacer.Wait(ctx); err != nil {
			return results, err
		}
	}
	return results, nil
}

// AnalyzeReviewed analyzes each reviewed pull request in order. It only
// returns an error when ctx is done, along with the results so far.
func (p *Pipeline) AnalyzeReviewed(ctx context.Context, pulls []prs.ReviewedPullRequest) ([]Result, error) {
	results := make([]Result, 0, len(pulls))
	for i := range pulls {
		pr := &pulls[i]
		r := p.analyze(ctx, prompt.KindReviewed, &pr.PullRequest, pr.Reviews, p.templates.Reviewed, prompt.ReviewedValues(pr))
		results = append(results, r)
		if err := p.pacer.Wait(ctx); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (p *Pipeline) analyze(ctx context.Context, kind prompt.Kind, pr *prs.PullRequest, reviews []string,
	tpl *prompt.Template, values prompt.Values,
) Result {
	p.logger.InfoContext(ctx, "analyzing pull request", "kind", kind, "pr", pr.Number, "title", pr.Title)

	r := Result{PR: *pr, Kind: kind, Reviews: reviews}
	text, err := p.generate(ctx, tpl, values)
	if err != nil {
		p.logger.ErrorContext(ctx, "analysis failed", "kind", kind, "pr", pr.Number, "error", err)
		r.Text = ErrorMarker + err.Error()
		r.Failed = true
	} else {
		r.Text = text
	}

	path, err := p.dir.Write(output.PRFileName(pr.Number, pr.Title), Document(pr, r.Text))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to write analysis", "pr", pr.Number, "error", err)
		return r
	}
	r.Path = path
	p.logger.DebugContext(ctx, "wrote analysis", "pr", pr.Number, "path", path)
	return r
}

func (p *Pipeline) generate(ctx context.Context, tpl *prompt.Template, values prompt.Values) (string, error) {
	text, err := tpl.Render(values)
	if err != nil {
		return "", err
	}
	return p.generator.Generate(ctx, generate.Request{
		Model:  p.model,
		System: prompt.ImpactSystem,
		Prompt: text,
	})
}

// Document renders the markdown file written for one pull request.
func Document(pr *prs.PullRequest, analysis string) string {
	created := "Not available"
	if !pr.CreatedAt.IsZero() {
		created = pr.CreatedAt.Format(time.DateOnly)
	}
	merged := "Not merged"
	if pr.MergedAt != nil {
		merged = pr.MergedAt.Format(time.DateOnly)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# PR #%d - %s - Impact Analysis\n\n", pr.Number, pr.Title)
	fmt.Fprintf(&b, "PR URL: %s\n", pr.URL)
	fmt.Fprintf(&b, "Author: %s\n", pr.Author)
	fmt.Fprintf(&b, "Created: %s\n", created)
	fmt.Fprintf(&b, "Merged: %s\n", merged)
	fmt.Fprintf(&b, "Changed Files: %d\n", pr.ChangedFiles)
	fmt.Fprintf(&b, "Additions: %d\n", pr.Additions)
	fmt.Fprintf(&b, "Deletions: %d\n", pr.Deletions)
	fmt.Fprintf(&b, "\n## Impact Analysis\n\n%s\n", analysis)
	return b.String()
}
