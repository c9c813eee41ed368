package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Target      TargetConfig     `mapstructure:"target"`
	Browser     BrowserConfig    `mapstructure:"browser"`
	Suite       SuiteConfig      `mapstructure:"suite"`
	Screenshots ScreenshotConfig `mapstructure:"screenshots"`
	Log         LogConfig        `mapstructure:"log"`
	Fixture     FixtureConfig    `mapstructure:"fixture"`
}

type TargetConfig struct {
	BaseURL string `mapstructure:"baseURL"`
}

type BrowserConfig struct {
	Driver              string        `mapstructure:"driver"` // chromedp or rod
	ExecutablePath      string        `mapstructure:"executablePath"`
	RemoteURL           string        `mapstructure:"remoteURL"` // attach to a running browser instead of launching
	Headless            bool          `mapstructure:"headless"`
	AcceptInsecureCerts bool          `mapstructure:"acceptInsecureCerts"`
	UserDataDir         string        `mapstructure:"userDataDir"`
	WindowWidth         int           `mapstructure:"windowWidth"`
	WindowHeight        int           `mapstructure:"windowHeight"`
	IsolatePages        bool          `mapstructure:"isolatePages"`
	NavigationTimeout   time.Duration `mapstructure:"navigationTimeout"`
	ActionTimeout       time.Duration `mapstructure:"actionTimeout"`
	SubmitTimeout       time.Duration `mapstructure:"submitTimeout"`
	PollInterval        time.Duration `mapstructure:"pollInterval"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdownTimeout"`
}

type SuiteConfig struct {
	TablePath       string        `mapstructure:"tablePath"` // empty selects the embedded table
	Flows           []string      `mapstructure:"flows"`
	MaxParallel     int           `mapstructure:"maxParallel"`
	ScenarioTimeout time.Duration `mapstructure:"scenarioTimeout"`
	ReportPath      string        `mapstructure:"reportPath"`
}

type ScreenshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	Quality int    `mapstructure:"quality"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

type FixtureConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target.baseURL", "https://localhost:5001")

	v.SetDefault("browser.driver", "chromedp")
	v.SetDefault("browser.executablePath", "") // auto-detect
	v.SetDefault("browser.remoteURL", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.acceptInsecureCerts", true) // the demo app serves a self-signed cert
	v.SetDefault("browser.userDataDir", "")
	v.SetDefault("browser.windowWidth", 1280)
	v.SetDefault("browser.windowHeight", 960)
	v.SetDefault("browser.isolatePages", true)
	v.SetDefault("browser.navigationTimeout", "15s")
	v.SetDefault("browser.actionTimeout", "10s")
	v.SetDefault("browser.submitTimeout", "10s")
	v.SetDefault("browser.pollInterval", "50ms")
	v.SetDefault("browser.shutdownTimeout", "10s")

	v.SetDefault("suite.tablePath", "")
	v.SetDefault("suite.flows", []string{})
	v.SetDefault("suite.maxParallel", 1)
	v.SetDefault("suite.scenarioTimeout", "5m")
	v.SetDefault("suite.reportPath", "")

	v.SetDefault("screenshots.enabled", false)
	v.SetDefault("screenshots.dir", ".screenshots")
	v.SetDefault("screenshots.quality", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("fixture.port", 5001)
	v.SetDefault("fixture.allowedOrigins", []string{"*"})
	v.SetDefault("fixture.readTimeout", "15s")
	v.SetDefault("fixture.writeTimeout", "15s")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stagecheck")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stagecheck")
		v.AddConfigPath("/etc/stagecheck")
	}

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("STAGECHECK")

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the runner cannot work with.
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case "chromedp", "rod":
	default:
		return fmt.Errorf("config: unknown browser driver %q", c.Browser.Driver)
	}
	if c.Target.BaseURL == "" {
		return errors.New("config: target.baseURL is required")
	}
	if c.Suite.MaxParallel < 1 {
		return fmt.Errorf("config: suite.maxParallel must be >= 1, got %d", c.Suite.MaxParallel)
	}
	if c.Browser.SubmitTimeout <= 0 || c.Browser.NavigationTimeout <= 0 {
		return errors.New("config: browser timeouts must be positive")
	}
	return nil
}
