package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/urfave/cli/v2"

	"github.com/moehared/analyze-pr-impact/pkg/config"
	"github.com/moehared/analyze-pr-impact/pkg/prompt"
	"github.com/moehared/analyze-pr-impact/pkg/rubric"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "primpact.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := rubric.Criteria(cfg.Output.RubricFile); err != nil {
		return fmt.Errorf("invalid rubric: %w", err)
	}
	if cfg.Output.TemplatesDir != "" {
		for _, kind := range prompt.Kinds {
			fmt.Printf("%s template: %s\n", kind, templateStatus(cfg.Output.TemplatesDir, kind))
		}
	}

	fmt.Println("Configuration is valid")
	return nil
}

func rubricCommand() *cli.Command {
	return &cli.Command{
		Name:  "rubric",
		Usage: "Manage the leveling rubric",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the built-in rubric as a starting point",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "rubric.yaml",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(c *cli.Context) error {
					outputPath := c.String("output")
					if err := rubric.WriteSample(outputPath, c.Bool("force")); err != nil {
						return err
					}
					fmt.Printf("Created rubric at %s\n", outputPath)
					return nil
				},
			},
		},
	}
}

func templateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Manage prompt templates",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the built-in prompt templates as editable files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory the templates are written to",
						Value:   "templates",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing files",
					},
				},
				Action: func(c *cli.Context) error {
					paths, err := prompt.WriteBuiltins(c.String("output"), c.Bool("force"))
					if err != nil {
						return err
					}
					for _, p := range paths {
						fmt.Printf("Created template %s\n", p)
					}
					fmt.Printf("Set output.templates_dir = %q to use them\n", c.String("output"))
					return nil
				},
			},
		},
	}
}

func templateStatus(dir string, kind prompt.Kind) string {
	_, err := prompt.LoadFile(dir, kind)
	switch {
	case err == nil:
		return "custom"
	case errors.Is(err, fs.ErrNotExist):
		return "built-in (no file)"
	default:
		return fmt.Sprintf("built-in (%v)", err)
	}
}
