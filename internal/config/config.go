package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version     int               `toml:"version"`
	Thread      ThreadConfig      `toml:"thread"`
	Files       FilesConfig       `toml:"files"`
	Credentials CredentialsConfig `toml:"credentials"`
	Timing      TimingConfig      `toml:"timing"`
	Browser     BrowserConfig     `toml:"browser"`
	Logger      LoggerConfig      `toml:"logger"`
	History     HistoryConfig     `toml:"history"`
	Email       EmailConfig       `toml:"email"`
	Schedule    ScheduleConfig    `toml:"schedule"`
}

type ThreadConfig struct {
	ID      string `toml:"id"`
	BaseURL string `toml:"base_url"`
}

type FilesConfig struct {
	Cookies  string `toml:"cookies"`
	Messages string `toml:"messages"`
}

type CredentialsConfig struct {
	// CookieDomain is applied to cookie records that carry no domain.
	CookieDomain string `toml:"cookie_domain"`
	// CookieHeader, when set, replaces the cookie file.
	CookieHeader string `toml:"cookie_header"`
}

type TimingConfig struct {
	MessageDelay      Duration `toml:"message_delay"`
	KeystrokeDelay    Duration `toml:"keystroke_delay"`
	NavigationTimeout Duration `toml:"navigation_timeout"`
	ComposerTimeout   Duration `toml:"composer_timeout"`
	QuietPeriod       Duration `toml:"quiet_period"`
	MaxInflight       int      `toml:"max_inflight"`
}

type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	KeepOpen     bool   `toml:"keep_open"`
	ExecPath     string `toml:"exec_path"`
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
}

type LoggerConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	LogFile    string `toml:"log_file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// ScheduleConfig drives the schedule command. Cron and At are alternatives.
type ScheduleConfig struct {
	Cron       string `toml:"cron"`
	At         string `toml:"at"` // daily "HH:MM"
	Timezone   string `toml:"timezone"`
	RunOnStart bool   `toml:"run_on_start"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Thread: ThreadConfig{
			BaseURL: "https://www.facebook.com",
		},
		Files: FilesConfig{
			Cookies:  "cookies.json",
			Messages: "msg.txt",
		},
		Credentials: CredentialsConfig{
			CookieDomain: ".facebook.com",
		},
		Timing: TimingConfig{
			MessageDelay:      Duration(3 * time.Second),
			KeystrokeDelay:    Duration(50 * time.Millisecond),
			NavigationTimeout: Duration(120 * time.Second),
			ComposerTimeout:   Duration(60 * time.Second),
			QuietPeriod:       Duration(500 * time.Millisecond),
			MaxInflight:       2,
		},
		Browser: BrowserConfig{
			Headless: false,
			KeepOpen: true,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
		Schedule: ScheduleConfig{
			Timezone: "Local",
		},
	}
}

// Validate checks the fields a send run depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Thread.ID == "" {
		errs = append(errs, errors.New("thread.id is required"))
	} else if strings.Trim(c.Thread.ID, "0123456789") != "" {
		errs = append(errs, fmt.Errorf("thread.id must be numeric, got %q", c.Thread.ID))
	}
	if !strings.HasPrefix(c.Thread.BaseURL, "https://") && !strings.HasPrefix(c.Thread.BaseURL, "http://") {
		errs = append(errs, fmt.Errorf("thread.base_url must be an http(s) URL, got %q", c.Thread.BaseURL))
	}
	if c.Files.Messages == "" {
		errs = append(errs, errors.New("files.messages is required"))
	}
	if c.Files.Cookies == "" && c.Credentials.CookieHeader == "" {
		errs = append(errs, errors.New("files.cookies or credentials.cookie_header is required"))
	}

	t := c.Timing
	if t.MessageDelay < 0 || t.KeystrokeDelay < 0 {
		errs = append(errs, errors.New("timing delays must not be negative"))
	}
	if t.NavigationTimeout <= 0 || t.ComposerTimeout <= 0 {
		errs = append(errs, errors.New("timing timeouts must be positive"))
	}
	if t.MaxInflight < 0 {
		errs = append(errs, errors.New("timing.max_inflight must not be negative"))
	}

	return errors.Join(errs...)
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "threadfeed"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory.
// On macOS this is ~/Library/Caches/threadfeed/
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "threadfeed"), nil
}

// Load reads config from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
