// Package report assembles the brag document and the self-reflection.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moehared/analyze-pr-impact/pkg/analysis"
	"github.com/moehared/analyze-pr-impact/pkg/generate"
	"github.com/moehared/analyze-pr-impact/pkg/output"
	"github.com/moehared/analyze-pr-impact/pkg/prompt"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// Section headings of the brag document.
const (
	AuthoredHeading = "## PRs Authored: Key Contributions & Impact"
	ReviewedHeading = "## PRs Reviewed: Key Contributions & Impact"
)

// ErrPersistence means a report file could not be written or read back.
var ErrPersistence = errors.New("report persistence failed")

// Assembler writes the summary and self-reflection documents.
type Assembler struct {
	generator generate.Generator
	dir       *output.Dir
	templates *prompt.Set
	logger    *slog.Logger
	now       func() time.Time
	model     string
}

// Option is a function that configures an Assembler.
type Option func(*Assembler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithTemplates sets the prompt templates.
func WithTemplates(set *prompt.Set) Option {
	return func(a *Assembler) {
		a.templates = set
	}
}

// WithModel sets the model named in the self-reflection request.
func WithModel(model string) Option {
	return func(a *Assembler) {
		a.model = model
	}
}

// WithClock sets the clock used for analysis dates.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler writing to dir.
func NewAssembler(generator generate.Generator, dir *output.Dir, opts ...Option) *Assembler {
	a := &Assembler{
		generator: generator,
		dir:       dir,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.templates == nil {
		a.templates = prompt.Builtins()
	}
	return a
}

// Summary writes the brag document for repo and returns its path.
func (a *Assembler) Summary(ctx context.Context, repo prs.Repo, window prs.Window, authored, reviewed []analysis.Result) (string, error) {
	date := output.Date(a.now())
	doc := SummaryDocument(repo, window, date, authored, reviewed)

	path, err := a.dir.Write(output.SummaryFileName(repo, date), doc)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	a.logger.InfoContext(ctx, "wrote brag document summary",
		"repo", repo.String(), "path", path, "authored", len(authored), "reviewed", len(reviewed))
	return path, nil
}

// SummaryDocument renders the brag document: every authored analysis, then
// every reviewed one, each as a list entry.
func SummaryDocument(repo prs.Repo, window prs.Window, date string, authored, reviewed []analysis.Result) string {
	var b strings.Builder
	b.WriteString("# Impact Assessment Brag Document\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", repo)
	fmt.Fprintf(&b, "Assessment Period: %s\n", window.Period())
	fmt.Fprintf(&b, "Analysis Date: %s\n\n", date)

	b.WriteString(AuthoredHeading + "\n\n")
	for _, r := range authored {
		fmt.Fprintf(&b, "- %s\n\n", r.Text)
	}
	b.WriteString("\n" + ReviewedHeading + "\n\n")
	for _, r := range reviewed {
		fmt.Fprintf(&b, "- %s\n\n", r.Text)
	}
	return b.String()
}

// SelfReflection reads the summary at summaryPath back, asks the generator to
// map it against criteria and writes the result. Nothing is written when
// generation fails.
func (a *Assembler) SelfReflection(ctx context.Context, summaryPath, criteria string) (string, error) {
	a.logger.InfoContext(ctx, "generating self-reflection", "summary", summaryPath)

	summary, err := a.dir.Read(summaryPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	text, err := a.templates.Reflection.Render(prompt.ReflectionValues(summary, criteria))
	if err != nil {
		return "", err
	}
	reflection, err := a.generator.Generate(ctx, generate.Request{
		Model:  a.model,
		System: prompt.ReflectionSystem,
		Prompt: text,
	})
	if err != nil {
		return "", fmt.Errorf("generating self-reflection: %w", err)
	}

	path, err := a.dir.Write(output.ReflectionFileName(output.Date(a.now())), reflection)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	a.logger.InfoContext(ctx, "wrote self-reflection", "path", path)
	return path, nil
}
