package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://localhost:5001", cfg.Target.BaseURL)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.AcceptInsecureCerts)
	assert.Equal(t, 10*time.Second, cfg.Browser.SubmitTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Browser.PollInterval)
	assert.Equal(t, 1, cfg.Suite.MaxParallel)
	assert.Equal(t, ".screenshots", cfg.Screenshots.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"*"}, cfg.Fixture.AllowedOrigins)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stagecheck.yaml")
	content := `
target:
  baseURL: http://127.0.0.1:8080
browser:
  driver: rod
  submitTimeout: 3s
suite:
  maxParallel: 2
  flows: [string, number]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("STAGECHECK_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Target.BaseURL)
	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.Equal(t, 3*time.Second, cfg.Browser.SubmitTimeout)
	assert.Equal(t, 2, cfg.Suite.MaxParallel)
	assert.Equal(t, []string{"string", "number"}, cfg.Suite.Flows)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }},
		{"missing base url", func(c *Config) { c.Target.BaseURL = "" }},
		{"zero parallelism", func(c *Config) { c.Suite.MaxParallel = 0 }},
		{"zero submit timeout", func(c *Config) { c.Browser.SubmitTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Target:  TargetConfig{BaseURL: "https://localhost:5001"},
				Browser: BrowserConfig{Driver: "chromedp", SubmitTimeout: time.Second, NavigationTimeout: time.Second},
				Suite:   SuiteConfig{MaxParallel: 1},
			}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
