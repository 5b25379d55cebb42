// Package runner sequences discovery, analysis and reporting across repositories.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/moehared/analyze-pr-impact/pkg/analysis"
	"github.com/moehared/analyze-pr-impact/pkg/discover"
	"github.com/moehared/analyze-pr-impact/pkg/generate"
	"github.com/moehared/analyze-pr-impact/pkg/output"
	"github.com/moehared/analyze-pr-impact/pkg/pacing"
	"github.com/moehared/analyze-pr-impact/pkg/prompt"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
	"github.com/moehared/analyze-pr-impact/pkg/report"
)

// viewer is implemented by sources that can name the authenticated user.
type viewer interface {
	Viewer(ctx context.Context) (string, error)
}

// Request describes one run.
type Request struct {
	Window prs.Window
	Author string
	Repos  []prs.Repo
}

// RepoReport is what a run produced for one repository.
type RepoReport struct {
	Repo           prs.Repo          `json:"repo"`
	Dir            string            `json:"dir,omitempty"`
	SummaryPath    string            `json:"summary_path,omitempty"`
	ReflectionPath string            `json:"reflection_path,omitempty"`
	Authored       []analysis.Result `json:"authored,omitempty"`
	Reviewed       []analysis.Result `json:"reviewed,omitempty"`
	Errors         []string          `json:"errors,omitempty"`
	Skipped        bool              `json:"skipped,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID  string       `json:"run_id"`
	Window prs.Window   `json:"window"`
	Repos  []RepoReport `json:"repos"`
}

// Runner processes repositories one after another.
type Runner struct {
	source     discover.Source
	generator  generate.Generator
	pacer      pacing.Pacer
	templates  *prompt.Set
	logger     *slog.Logger
	now        func() time.Time
	finderOpts []discover.Option
	outputRoot string
	model      string
	criteria   string
}

// Option is a function that configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithPacer sets the pacing policy for generation calls.
func WithPacer(p pacing.Pacer) Option {
	return func(r *Runner) {
		r.pacer = p
	}
}

// WithTemplates sets the prompt templates.
func WithTemplates(set *prompt.Set) Option {
	return func(r *Runner) {
		r.templates = set
	}
}

// WithModel sets the model named in generation requests.
func WithModel(model string) Option {
	return func(r *Runner) {
		r.model = model
	}
}

// WithCriteria sets the leveling criteria for the self-reflection.
func WithCriteria(criteria string) Option {
	return func(r *Runner) {
		r.criteria = criteria
	}
}

// WithOutputRoot sets the directory run directories are created in.
func WithOutputRoot(dir string) Option {
	return func(r *Runner) {
		r.outputRoot = dir
	}
}

// WithClock sets the clock used for windows and file dates.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithFinderOptions passes options through to the discover.Finder.
func WithFinderOptions(opts ...discover.Option) Option {
	return func(r *Runner) {
		r.finderOpts = append(r.finderOpts, opts...)
	}
}

// New creates a Runner.
func New(source discover.Source, generator generate.Generator, opts ...Option) *Runner {
	r := &Runner{
		source:     source,
		generator:  generator,
		pacer:      pacing.Fixed{Delay: time.Second},
		logger:     slog.Default(),
		now:        time.Now,
		outputRoot: ".",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.templates == nil {
		r.templates = prompt.Builtins()
	}
	return r
}

func (r *Runner) finder(logger *slog.Logger) *discover.Finder {
	opts := append([]discover.Option{discover.WithLogger(logger), discover.WithClock(r.now)}, r.finderOpts...)
	return discover.New(r.source, opts...)
}

// probe logs who the token belongs to when the source can tell.
func (r *Runner) probe(ctx context.Context, logger *slog.Logger) {
	v, ok := r.source.(viewer)
	if !ok {
		return
	}
	login, err := v.Viewer(ctx)
	if err != nil {
		logger.WarnContext(ctx, "could not identify authenticated user", "error", err)
		return
	}
	logger.InfoContext(ctx, "authenticated", "login", login)
}

// Run discovers, analyzes and reports on each repository in turn. Discovery
// and reporting failures are logged and recorded on the repository's report.
// Only context cancellation stops the run early.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	window := req.Window.Resolve(r.now())
	rep := &Report{RunID: runID, Window: window}

	logger.InfoContext(ctx, "starting run", "author", req.Author, "repos", len(req.Repos), "window", window.String())
	r.probe(ctx, logger)

	finder := r.finder(logger)
	for _, repo := range req.Repos {
		rr, err := r.runRepo(ctx, logger.With("repo", repo.String()), finder, repo, req.Author, window)
		rep.Repos = append(rep.Repos, rr)
		if err != nil {
			return rep, err
		}
	}

	logger.InfoContext(ctx, "run complete", "repos", len(rep.Repos))
	return rep, nil
}

func (r *Runner) runRepo(ctx context.Context, logger *slog.Logger, finder *discover.Finder,
	repo prs.Repo, author string, window prs.Window,
) (RepoReport, error) {
	rr := RepoReport{Repo: repo}

	authored, reviewed, errs := find(ctx, finder, repo, author, window)
	if err := ctx.Err(); err != nil {
		return rr, err
	}
	for _, err := range errs {
		logger.WarnContext(ctx, "treating repository as having no pull requests", "error", err)
		rr.Errors = append(rr.Errors, err.Error())
	}
	if len(authored) == 0 && len(reviewed) == 0 {
		logger.InfoContext(ctx, "no relevant pull requests, skipping repository")
		rr.Skipped = true
		return rr, nil
	}

	date := output.Date(r.now())
	dir := output.NewDir(filepath.Join(r.outputRoot, output.RunDirName(repo, author, date)))
	rr.Dir = dir.Path()

	pipeline := analysis.NewPipeline(r.generator, dir,
		analysis.WithPacer(r.pacer),
		analysis.WithTemplates(r.templates),
		analysis.WithModel(r.model),
		analysis.WithLogger(logger))

	var err error
	if rr.Authored, err = pipeline.AnalyzeAuthored(ctx, authored); err != nil {
		return rr, err
	}
	if rr.Reviewed, err = pipeline.AnalyzeReviewed(ctx, reviewed); err != nil {
		return rr, err
	}

	assembler := report.NewAssembler(r.generator, dir,
		report.WithTemplates(r.templates),
		report.WithModel(r.model),
		report.WithClock(r.now),
		report.WithLogger(logger))

	rr.SummaryPath, err = assembler.Summary(ctx, repo, window, rr.Authored, rr.Reviewed)
	if err != nil {
		logger.ErrorContext(ctx, "failed to write summary", "error", err)
		rr.Errors = append(rr.Errors, err.Error())
		return rr, nil
	}

	rr.ReflectionPath, err = assembler.SelfReflection(ctx, rr.SummaryPath, r.criteria)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rr, ctxErr
		}
		logger.ErrorContext(ctx, "failed to generate self-reflection", "error", err)
		rr.Errors = append(rr.Errors, err.Error())
	}
	return rr, nil
}

// find runs both filters. A failing filter contributes an empty set and its error.
func find(ctx context.Context, finder *discover.Finder, repo prs.Repo, author string, window prs.Window,
) (authored []prs.PullRequest, reviewed []prs.ReviewedPullRequest, errs []error) {
	authored, err := finder.Authored(ctx, repo, discover.AuthoredQuery{Window: window, Author: author, MergedOnly: true})
	if err != nil {
		errs = append(errs, err)
	}
	reviewed, err = finder.Reviewed(ctx, repo, discover.ReviewedQuery{Window: window, Reviewer: author})
	if err != nil {
		errs = append(errs, err)
	}
	return authored, reviewed, errs
}

// Discovery is the pull requests found in one repository, before analysis.
type Discovery struct {
	Repo     prs.Repo                  `json:"repo"`
	Authored []prs.PullRequest         `json:"authored"`
	Reviewed []prs.ReviewedPullRequest `json:"reviewed"`
	Errors   []string                  `json:"errors,omitempty"`
}

// Discover runs only the filters, calling emit once per repository.
func (r *Runner) Discover(ctx context.Context, req Request, emit func(Discovery) error) error {
	logger := r.logger.With("run_id", uuid.NewString())
	window := req.Window.Resolve(r.now())
	r.probe(ctx, logger)

	finder := r.finder(logger)
	for _, repo := range req.Repos {
		authored, reviewed, errs := find(ctx, finder, repo, req.Author, window)
		if err := ctx.Err(); err != nil {
			return err
		}
		d := Discovery{Repo: repo, Authored: authored, Reviewed: reviewed}
		for _, err := range errs {
			d.Errors = append(d.Errors, err.Error())
		}
		if err := emit(d); err != nil {
			return fmt.Errorf("emitting discovery for %s: %w", repo, err)
		}
	}
	return nil
}
