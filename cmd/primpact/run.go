package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/moehared/analyze-pr-impact/pkg/config"
	"github.com/moehared/analyze-pr-impact/pkg/discover"
	"github.com/moehared/analyze-pr-impact/pkg/generate"
	"github.com/moehared/analyze-pr-impact/pkg/prompt"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
	"github.com/moehared/analyze-pr-impact/pkg/rubric"
	"github.com/moehared/analyze-pr-impact/pkg/runner"
)

// selectionFlags override the config file for a single invocation.
func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "GitHub login whose activity is analyzed"},
		&cli.StringSliceFlag{Name: "repo", Aliases: []string{"r"}, Usage: "Repository as owner/name (repeatable)"},
		&cli.StringFlag{Name: "since", Usage: "First merge date to include (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "until", Usage: "Last merge date to include (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "scan", Usage: "Authored scan mode: early-exit or full"},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Analyze pull requests and write the brag document and self-reflection",
		Flags: append(selectionFlags(),
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory run directories are created in"},
			&cli.BoolFlag{Name: "json", Usage: "Print the run report as JSON"},
		),
		Action: runAnalyze,
	}
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:   "discover",
		Usage:  "List the authored and reviewed pull requests as JSON lines without calling the model",
		Flags:  selectionFlags(),
		Action: runDiscover,
	}
}

// loadConfig loads the configuration, applies command-line overrides and
// falls back to the gh CLI for a token.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("author"); v != "" {
		cfg.GitHub.Author = v
	}
	if v := c.StringSlice("repo"); len(v) > 0 {
		cfg.GitHub.Repos = v
	}
	if v := c.String("since"); v != "" {
		cfg.Window.Since = v
	}
	if v := c.String("until"); v != "" {
		cfg.Window.Until = v
	}
	if v := c.String("scan"); v != "" {
		cfg.Window.Scan = v
	}
	if c.IsSet("output-dir") {
		cfg.Output.Dir = c.String("output-dir")
	}
	if cfg.GitHub.Token == "" {
		token, err := githubToken(c.Context)
		if err != nil {
			slog.Debug("no token from gh CLI", "error", err)
		} else {
			cfg.GitHub.Token = token
		}
	}
	return cfg, nil
}

// newRunner wires the configured collaborators. generator may be nil for
// discovery-only runs.
func newRunner(cfg *config.Config, generator generate.Generator, extra ...runner.Option) (*runner.Runner, runner.Request, error) {
	repos, err := cfg.Repos()
	if err != nil {
		return nil, runner.Request{}, err
	}
	window, err := cfg.TimeWindow()
	if err != nil {
		return nil, runner.Request{}, err
	}
	mode, err := cfg.ScanMode()
	if err != nil {
		return nil, runner.Request{}, err
	}

	client := prs.NewClient(cfg.GitHub.Token,
		prs.WithLogger(slog.Default()),
		prs.WithBaseURL(cfg.GitHub.APIURL))

	opts := append([]runner.Option{
		runner.WithLogger(slog.Default()),
		runner.WithFinderOptions(discover.WithScanMode(mode)),
	}, extra...)
	req := runner.Request{Window: window, Author: cfg.GitHub.Author, Repos: repos}
	return runner.New(client, generator, opts...), req, nil
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	llm, err := generate.New(c.Context, cfg.LLMOptions(), generate.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	pacer, err := cfg.Pacer()
	if err != nil {
		return err
	}
	criteria, err := rubric.Criteria(cfg.Output.RubricFile)
	if err != nil {
		return err
	}

	r, req, err := newRunner(cfg, llm,
		runner.WithPacer(pacer),
		runner.WithTemplates(prompt.Load(cfg.Output.TemplatesDir, slog.Default())),
		runner.WithModel(cfg.LLM.Model),
		runner.WithCriteria(criteria),
		runner.WithOutputRoot(cfg.Output.Dir))
	if err != nil {
		return err
	}

	rep, err := r.Run(c.Context, req)
	if rep != nil {
		if c.Bool("json") {
			if encErr := json.NewEncoder(os.Stdout).Encode(rep); encErr != nil {
				return fmt.Errorf("encoding report: %w", encErr)
			}
		} else {
			printReport(rep)
		}
	}
	return err
}

func printReport(rep *runner.Report) {
	for _, rr := range rep.Repos {
		if rr.Skipped {
			fmt.Printf("%s: no relevant pull requests\n", rr.Repo)
		} else {
			fmt.Printf("%s: %d authored, %d reviewed -> %s\n", rr.Repo, len(rr.Authored), len(rr.Reviewed), rr.Dir)
			if rr.ReflectionPath != "" {
				fmt.Printf("  self-reflection: %s\n", rr.ReflectionPath)
			}
		}
		for _, e := range rr.Errors {
			fmt.Printf("  error: %s\n", e)
		}
	}
}

func runDiscover(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDiscovery(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r, req, err := newRunner(cfg, nil)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	return r.Discover(c.Context, req, func(d runner.Discovery) error {
		return encoder.Encode(d)
	})
}
