package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/entrhq/browsertool/pkg/tools/browser"
)

// EnvPrefix prefixes every environment override, e.g. BROWSERTOOL_BROWSER_HEADLESS.
const EnvPrefix = "BROWSERTOOL"

// Engine names accepted in browser.engine
const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
)

var (
	// globalConfig is the configuration loaded by Initialize
	globalConfig *Config
	globalMu     sync.Mutex
)

// Config holds all browsertool configuration.
type Config struct {
	Browser BrowserConfig
	Log     LogConfig

	// path of the file that was read, empty when running on defaults
	path string
}

// BrowserConfig configures the browser session and engine.
type BrowserConfig struct {
	Engine            string   // "playwright" or "rod"
	PlaywrightBrowser string   // chromium, firefox or webkit
	Headless          bool     // run without a visible window
	UserDataDir       string   // persistent profile directory; empty for ephemeral contexts
	UserAgent         string   // UA for every page
	Stealth           bool     // rod only
	NoSandbox         bool     // rod only
	BrowserBin        string   // rod only; Chrome binary
	Install           bool     // playwright only; install driver+browsers on first start
	WaitTimeout       int      // default wait in milliseconds
	ScreenshotPath    string   // default screenshot destination
	AllowedURLs       []string // glob patterns
	BlockedURLs       []string // glob patterns
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
	File  bool // write to ~/.browsertool/logs instead of stderr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.engine", EnginePlaywright)
	v.SetDefault("browser.playwright_browser", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.user_agent", browser.DefaultUserAgent)
	v.SetDefault("browser.stealth", false)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.browser_bin", "")
	v.SetDefault("browser.install", false)
	v.SetDefault("browser.default_wait_timeout", browser.DefaultWaitTimeout)
	v.SetDefault("browser.screenshot_path", browser.DefaultScreenshotPath)
	v.SetDefault("browser.allowed_urls", []string{})
	v.SetDefault("browser.blocked_urls", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", false)
}

// Load reads configuration from configPath, or from browsertool.yaml in
// the working directory or ~/.browsertool when configPath is empty. A
// missing file in the search path is not an error; a missing explicit path
// is. Environment variables override the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("browsertool")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".browsertool"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{path: v.ConfigFileUsed()}

	cfg.Browser.Engine = strings.ToLower(v.GetString("browser.engine"))
	cfg.Browser.PlaywrightBrowser = strings.ToLower(v.GetString("browser.playwright_browser"))
	cfg.Browser.Headless = v.GetBool("browser.headless")
	cfg.Browser.UserDataDir = expandHome(v.GetString("browser.user_data_dir"))
	cfg.Browser.UserAgent = v.GetString("browser.user_agent")
	cfg.Browser.Stealth = v.GetBool("browser.stealth")
	cfg.Browser.NoSandbox = v.GetBool("browser.no_sandbox")
	cfg.Browser.BrowserBin = v.GetString("browser.browser_bin")
	cfg.Browser.Install = v.GetBool("browser.install")
	cfg.Browser.WaitTimeout = v.GetInt("browser.default_wait_timeout")
	cfg.Browser.ScreenshotPath = v.GetString("browser.screenshot_path")
	cfg.Browser.AllowedURLs = v.GetStringSlice("browser.allowed_urls")
	cfg.Browser.BlockedURLs = v.GetStringSlice("browser.blocked_urls")

	cfg.Log.Level = strings.ToLower(v.GetString("log.level"))
	cfg.Log.File = v.GetBool("log.file")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Initialize loads configuration and installs it as the global config.
// It should be called once at application startup.
func Initialize(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
	return nil
}

// Global returns the global configuration.
// Panics if Initialize has not been called.
func Global() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalConfig == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalConfig
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalConfig != nil
}

// Path returns the config file that was read, or "" when defaults were used.
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Browser.Engine {
	case EnginePlaywright, EngineRod:
	default:
		return fmt.Errorf("invalid browser.engine %q: must be %q or %q", c.Browser.Engine, EnginePlaywright, EngineRod)
	}

	switch c.Browser.PlaywrightBrowser {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("invalid browser.playwright_browser %q: must be chromium, firefox or webkit", c.Browser.PlaywrightBrowser)
	}

	if c.Browser.WaitTimeout < browser.MinWaitTimeout || c.Browser.WaitTimeout > browser.MaxWaitTimeout {
		return fmt.Errorf("browser.default_wait_timeout must be between %d and %d ms, got %d",
			browser.MinWaitTimeout, browser.MaxWaitTimeout, c.Browser.WaitTimeout)
	}

	if c.Browser.ScreenshotPath == "" {
		return fmt.Errorf("browser.screenshot_path cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}

	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy compiles the URL patterns. It returns nil when no pattern is set.
func (c *Config) Policy() (*browser.URLPolicy, error) {
	if len(c.Browser.AllowedURLs) == 0 && len(c.Browser.BlockedURLs) == 0 {
		return nil, nil
	}
	return browser.NewURLPolicy(c.Browser.AllowedURLs, c.Browser.BlockedURLs)
}

// SessionOptions maps the configuration onto browser session options.
func (c *Config) SessionOptions(logger browser.Logger) (browser.Options, error) {
	policy, err := c.Policy()
	if err != nil {
		return browser.Options{}, err
	}

	return browser.Options{
		Headless:              c.Browser.Headless,
		UserDataDir:           c.Browser.UserDataDir,
		UserAgent:             c.Browser.UserAgent,
		DefaultWaitTimeout:    c.Browser.WaitTimeout,
		DefaultScreenshotPath: c.Browser.ScreenshotPath,
		Policy:                policy,
		Logger:                logger,
	}, nil
}

// PlaywrightOptions returns the Playwright driver options.
func (c *Config) PlaywrightOptions() browser.PlaywrightOptions {
	return browser.PlaywrightOptions{
		Install: c.Browser.Install,
		Browser: c.Browser.PlaywrightBrowser,
	}
}

// Driver returns the engine driver selected by browser.engine.
func (c *Config) Driver() browser.Driver {
	if c.Browser.Engine == EngineRod {
		return browser.NewRodDriver(browser.RodOptions{
			Bin:       c.Browser.BrowserBin,
			Stealth:   c.Browser.Stealth,
			NoSandbox: c.Browser.NoSandbox,
		})
	}
	return browser.NewPlaywrightDriver(c.PlaywrightOptions())
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
