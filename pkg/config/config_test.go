package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moehared/analyze-pr-impact/pkg/discover"
	"github.com/moehared/analyze-pr-impact/pkg/pacing"
	"github.com/moehared/analyze-pr-impact/pkg/prs"
)

// isolate clears the environment variables Load reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, e := range legacyEnv {
		t.Setenv(e.name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "primpact.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "fixed", cfg.Pacing.Mode)
	assert.Equal(t, time.Second, cfg.Pacing.Delay)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Empty(t, cfg.GitHub.Repos)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[github]
token = "ghp_file"
author = "alice"
repos = ["acme/widgets", "acme/gadgets"]

[window]
since = "2024-09-01"
until = "2025-03-31"
scan = "full"

[llm]
provider = "anthropic"
api_key = "sk-ant"
model = "claude-3-5-sonnet-latest"
temperature = 0.3

[pacing]
mode = "token-bucket"
delay = "500ms"
burst = 3

[output]
dir = "/tmp/out"
rubric_file = "rubric.yaml"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ghp_file", cfg.GitHub.Token)
	assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, cfg.GitHub.Repos)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.Delay)
	assert.Equal(t, 3, cfg.Pacing.Burst)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "rubric.yaml", cfg.Output.RubricFile)

	mode, err := cfg.ScanMode()
	require.NoError(t, err)
	assert.Equal(t, discover.ScanFull, mode)

	p, err := cfg.Pacer()
	require.NoError(t, err)
	assert.IsType(t, &pacing.TokenBucket{}, p)

	opts := cfg.LLMOptions()
	assert.Equal(t, "claude-3-5-sonnet-latest", opts.Model)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[github]
token = "ghp_file"
author = "alice"
repos = ["acme/widgets"]

[llm]
api_key = "sk-file"
`)
	t.Setenv("GITHUB_TOKEN", "ghp_legacy")
	t.Setenv("GITHUB_REPO_NAMES", "acme/one, acme/two")
	t.Setenv("OPENAI_API_BASE", "http://localhost:8080/v1")
	t.Setenv("PRIMPACT_GITHUB__TOKEN", "ghp_prefixed")
	t.Setenv("PRIMPACT_LLM__MODEL", "gpt-4o-mini")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ghp_prefixed", cfg.GitHub.Token, "prefixed variables win over legacy ones")
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "sk-file", cfg.LLM.APIKey)

	repos, err := cfg.Repos()
	require.NoError(t, err)
	assert.Equal(t, []prs.Repo{{Owner: "acme", Name: "one"}, {Owner: "acme", Name: "two"}}, repos)
}

func TestValidate_Missing(t *testing.T) {
	cfg := &Config{LLM: LLM{Provider: "openai"}}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissing)

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"github.token", "github.author", "github.repos", "llm.api_key"}, missing.Keys)
	assert.Contains(t, err.Error(), "github.token, github.author")
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := &Config{
		GitHub: GitHub{Token: "t", Author: "alice", Repos: []string{"acme/widgets"}},
		LLM:    LLM{Provider: "ollama"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Invalid(t *testing.T) {
	base := func() *Config {
		return &Config{
			GitHub: GitHub{Token: "t", Author: "alice", Repos: []string{"acme/widgets"}},
			LLM:    LLM{Provider: "openai", APIKey: "k"},
		}
	}

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "bad repo", mutate: func(c *Config) { c.GitHub.Repos = []string{"acme/widgets,broken"} }},
		{name: "bad since", mutate: func(c *Config) { c.Window.Since = "09/01/2024" }},
		{name: "inverted window", mutate: func(c *Config) { c.Window.Since, c.Window.Until = "2025-01-01", "2024-01-01" }},
		{name: "bad scan", mutate: func(c *Config) { c.Window.Scan = "sometimes" }},
		{name: "bad pacing", mutate: func(c *Config) { c.Pacing.Mode = "exponential" }},
		{name: "bad provider", mutate: func(c *Config) { c.LLM.Provider = "mystery" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrMissing)
		})
	}
}

func TestTimeWindow(t *testing.T) {
	cfg := &Config{Window: Window{Since: "2024-09-01", Until: "2024-10-01"}}
	w, err := cfg.TimeWindow()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.True(t, w.Contains(time.Date(2024, 10, 1, 23, 59, 59, 0, time.UTC)), "until covers the whole day")
	assert.False(t, w.Contains(time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)))

	empty, err := (&Config{}).TimeWindow()
	require.NoError(t, err)
	assert.True(t, empty.Start.IsZero())
	assert.True(t, empty.End.IsZero())
}

func TestInitConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "primpact.toml")
	require.NoError(t, InitConfig(path))
	assert.Error(t, InitConfig(path), "existing file must not be overwritten")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "your-github-login", cfg.GitHub.Author)
	assert.Equal(t, []string{"owner/repo"}, cfg.GitHub.Repos)
	_, err = cfg.TimeWindow()
	assert.NoError(t, err)
}

func TestValidateDiscovery(t *testing.T) {
	cfg := &Config{
		GitHub: GitHub{Token: "t", Author: "alice", Repos: []string{"acme/widgets"}},
		LLM:    LLM{Provider: "openai"},
		Pacing: Pacing{Mode: "exponential"},
	}
	assert.NoError(t, cfg.ValidateDiscovery(), "generation settings are not needed for discovery")
	assert.Error(t, cfg.Validate())
}
