// Package config loads primpact settings from defaults, a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/moehared/analyze-pr-impact/pkg/discover"
	"github.com/moehared/analyze-pr-impact/pkg/generate"
	"github.com/moehared/analyze-pr-impact/pkg/pacing"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// EnvPrefix prefixes environment overrides. Double underscores separate
// levels: PRIMPACT_LLM__MODEL sets llm.model.
const EnvPrefix = "PRIMPACT_"

// DefaultPaths are searched in order when no config file is given.
var DefaultPaths = []string{"./primpact.toml", "$HOME/.primpact.toml"}

// Config is the complete run configuration.
type Config struct {
	GitHub GitHub `koanf:"github"`
	Window Window `koanf:"window"`
	LLM    LLM    `koanf:"llm"`
	Pacing Pacing `koanf:"pacing"`
	Output Output `koanf:"output"`
}

// GitHub holds the data source settings.
type GitHub struct {
	Token  string   `koanf:"token"`
	APIURL string   `koanf:"api_url"`
	Author string   `koanf:"author"`
	Repos  []string `koanf:"-"`
}

// Window bounds the merge dates considered.
type Window struct {
	Since string `koanf:"since"`
	Until string `koanf:"until"`
	Scan  string `koanf:"scan"`
}

// LLM selects the text-generation backend.
type LLM struct {
	Provider    string  `koanf:"provider"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

// Pacing controls the pause between generation calls.
type Pacing struct {
	Mode  string        `koanf:"mode"`
	Delay time.Duration `koanf:"delay"`
	Burst int           `koanf:"burst"`
}

// Output controls where files go and which assets shape them.
type Output struct {
	Dir          string `koanf:"dir"`
	TemplatesDir string `koanf:"templates_dir"`
	RubricFile   string `koanf:"rubric_file"`
}

func defaults() map[string]any {
	return map[string]any{
		"github.api_url": "https://api.github.com",
		"window.scan":    discover.ScanEarlyExit.String(),
		"llm.provider":   string(generate.ProviderOpenAI),
		"llm.model":      generate.DefaultModel,
		"pacing.mode":    pacing.ModeFixed,
		"pacing.delay":   "1s",
		"pacing.burst":   1,
		"output.dir":     ".",
	}
}

// legacyEnv maps the environment variables the tool has always read to keys.
var legacyEnv = []struct {
	name string
	key  string
}{
	{"GITHUB_TOKEN", "github.token"},
	{"GITHUB_AUTHOR", "github.author"},
	{"GITHUB_REPO_NAME", "github.repos"},
	{"GITHUB_REPO_NAMES", "github.repos"},
	{"OPENAI_API_KEY", "llm.api_key"},
	{"OPENAI_API_BASE", "llm.base_url"},
}

// Load builds the configuration. Later sources win: defaults, the TOML file
// at path (or the first of DefaultPaths that exists), legacy environment
// variables, then PRIMPACT_ variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	} else {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config %s: %w", p, err)
			}
			break
		}
	}

	legacy := map[string]any{}
	for _, e := range legacyEnv {
		if v := os.Getenv(e.name); v != "" {
			legacy[e.key] = v
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.GitHub.Repos = stringList(k.Get("github.repos"))
	return &cfg, nil
}

// stringList accepts a TOML array or a comma-separated string.
func stringList(v any) []string {
	var out []string
	switch v := v.(type) {
	case string:
		out = append(out, v)
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
	}
	return out
}

// ErrMissing is matched by errors.Is for every *MissingError.
var ErrMissing = errors.New("missing required configuration")

// MissingError lists required keys that have no value.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissing, strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrMissing.
func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}

// Validate reports missing required keys as a *MissingError, then any value
// that does not parse.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateDiscovery is Validate without the generation settings, for runs
// that never call the model.
func (c *Config) ValidateDiscovery() error {
	return c.validate(false)
}

func (c *Config) validate(needLLM bool) error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "github.token")
	}
	if strings.TrimSpace(c.GitHub.Author) == "" {
		missing = append(missing, "github.author")
	}
	if repos, _ := c.Repos(); len(repos) == 0 {
		missing = append(missing, "github.repos")
	}
	if needLLM && generate.Provider(c.LLM.Provider).NeedsAPIKey() && c.LLM.APIKey == "" {
		missing = append(missing, "llm.api_key")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	var errs []error
	if _, err := c.Repos(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.TimeWindow(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ScanMode(); err != nil {
		errs = append(errs, err)
	}
	if !needLLM {
		return errors.Join(errs...)
	}
	if _, err := c.Pacer(); err != nil {
		errs = append(errs, err)
	}
	switch generate.Provider(c.LLM.Provider) {
	case generate.ProviderOpenAI, generate.ProviderAnthropic, generate.ProviderOllama,
		generate.ProviderGoogleAI, generate.ProviderCohere:
	default:
		errs = append(errs, fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider))
	}
	return errors.Join(errs...)
}

// Repos parses github.repos.
func (c *Config) Repos() ([]prs.Repo, error) {
	return prs.ParseRepos(c.GitHub.Repos)
}

// TimeWindow parses window.since and window.until. Until covers its whole
// day. A zero bound is resolved later against the current time.
func (c *Config) TimeWindow() (prs.Window, error) {
	var w prs.Window
	if s := strings.TrimSpace(c.Window.Since); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return prs.Window{}, fmt.Errorf("window.since: %w", err)
		}
		w.Start = t
	}
	if s := strings.TrimSpace(c.Window.Until); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return prs.Window{}, fmt.Errorf("window.until: %w", err)
		}
		w.End = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if err := w.Validate(); err != nil {
		return prs.Window{}, err
	}
	return w, nil
}

// ScanMode parses window.scan.
func (c *Config) ScanMode() (discover.ScanMode, error) {
	return discover.ParseScanMode(c.Window.Scan)
}

// Pacer builds the pacing policy.
func (c *Config) Pacer() (pacing.Pacer, error) {
	return pacing.New(c.Pacing.Mode, c.Pacing.Delay, c.Pacing.Burst)
}

// LLMOptions returns the generator settings.
func (c *Config) LLMOptions() generate.Options {
	return generate.Options{
		Provider:    generate.Provider(c.LLM.Provider),
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
	}
}

const sample = `# primpact configuration

[github]
# Falls back to GITHUB_TOKEN, then to "gh auth token".
token = ""
api_url = "https://api.github.com"
author = "your-github-login"
repos = ["owner/repo"]

[window]
# Inclusive merge dates. Both empty means the last six months.
since = "2024-09-01"
until = "2025-03-31"
# "early-exit" stops at the first PR merged before since; "full" scans everything.
scan = "early-exit"

[llm]
provider = "openai"
api_key = "your-api-key"
model = "gpt-4o"

[pacing]
mode = "fixed"
delay = "1s"

[output]
dir = "."
templates_dir = ""
rubric_file = ""
`

// InitConfig writes a sample configuration file to path.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sample), 0o600)
}
