package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer"
)

const (
	defaultConfigName = "avatarview"
	defaultConfigFile = "avatarview.toml"
	configType        = "toml"
	configFileMode    = 0o644
)

// Config is the full viewer configuration. Values come from struct defaults and AVATARVIEW_*
// environment variables, then an optional TOML file, then command-line flags.
type Config struct {
	AvatarURL    string `env:"AVATAR_URL" envDefault:"public/default_model.glb" toml:"avatar_url" mapstructure:"avatar_url"`
	AnimationURL string `env:"ANIMATION_URL" envDefault:"public/animation.glb" toml:"animation_url" mapstructure:"animation_url"`
	RootJoint    string `env:"ROOT_JOINT" envDefault:"Hips" toml:"root_joint" mapstructure:"root_joint"`

	Subdomain    string `env:"SUBDOMAIN" envDefault:"demo" toml:"subdomain" mapstructure:"subdomain"`
	ToolURL      string `env:"TOOL_URL" toml:"tool_url,omitempty" mapstructure:"tool_url"`
	Source       string `env:"SOURCE" envDefault:"avaturn" toml:"source" mapstructure:"source"`
	ExportEvent  string `env:"EXPORT_EVENT" envDefault:"v2.avatar.exported" toml:"export_event" mapstructure:"export_event"`
	WidgetSocket string `env:"WIDGET_SOCKET" toml:"widget_socket,omitempty" mapstructure:"widget_socket"`

	Listen   string `env:"LISTEN" envDefault:"127.0.0.1:8787" toml:"listen" mapstructure:"listen"`
	WatchDir string `env:"WATCH_DIR" toml:"watch_dir,omitempty" mapstructure:"watch_dir"`

	TickRate  float64 `env:"TICK_RATE" envDefault:"60" toml:"tick_rate" mapstructure:"tick_rate"`
	Workers   int     `env:"WORKERS" envDefault:"4" toml:"workers" mapstructure:"workers"`
	Window    bool    `env:"WINDOW" envDefault:"false" toml:"window" mapstructure:"window"`
	Width     int     `env:"WIDTH" envDefault:"1280" toml:"width" mapstructure:"width"`
	Height    int     `env:"HEIGHT" envDefault:"720" toml:"height" mapstructure:"height"`
	Profiling bool    `env:"PROFILING" envDefault:"false" toml:"profiling" mapstructure:"profiling"`

	PresentMode string `env:"PRESENT_MODE" envDefault:"vsync" toml:"present_mode" mapstructure:"present_mode"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" toml:"log_level" mapstructure:"log_level"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" toml:"log_format" mapstructure:"log_format"`
}

// ResolvedToolURL returns the configured tool URL, or the one derived from the subdomain.
func (c Config) ResolvedToolURL() string {
	if c.ToolURL != "" {
		return c.ToolURL
	}
	return fmt.Sprintf("https://%s.avaturn.dev", c.Subdomain)
}

// Validate reports the first configuration value the viewer cannot run with.
func (c Config) Validate() error {
	switch {
	case c.AvatarURL == "":
		return errors.New("avatar_url is empty")
	case c.TickRate <= 0:
		return fmt.Errorf("tick_rate must be positive, got %v", c.TickRate)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Window && (c.Width <= 0 || c.Height <= 0):
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if _, err := renderer.ParsePresentMode(c.PresentMode); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// defaultConfig returns the struct defaults with AVATARVIEW_* environment overrides applied.
func defaultConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AVATARVIEW_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// loadConfig layers the environment, the TOML file at path and the changed flags in that order.
// An empty path reads ./avatarview.toml when it exists.
//
// Parameters:
//   - path: the config file path, empty for the default lookup
//   - flags: the command flags; only flags set on the command line override
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the environment or file cannot be parsed
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return Config{}, err
	}

	file := viper.New()
	file.SetConfigType(configType)
	if path != "" {
		file.SetConfigFile(path)
	} else {
		file.SetConfigName(defaultConfigName)
		file.AddConfigPath(".")
	}
	if err := file.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	if err := file.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}

	if flags == nil {
		return cfg, nil
	}
	overrides := viper.New()
	flags.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		overrides.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})
	if err := overrides.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode flags: %w", err)
	}
	return cfg, nil
}

// writeConfig writes cfg as TOML to path. An existing file is kept unless force is set.
func writeConfig(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// bindFlags registers one flag per configuration key, defaulting to cfg.
func bindFlags(flags *pflag.FlagSet, cfg Config) {
	flags.String("avatar-url", cfg.AvatarURL, "avatar shown at startup")
	flags.String("animation-url", cfg.AnimationURL, "asset whose first clip is the idle loop")
	flags.String("root-joint", cfg.RootJoint, "joint whose translation survives retargeting")
	flags.String("subdomain", cfg.Subdomain, "avatar tool subdomain")
	flags.String("tool-url", cfg.ToolURL, "avatar tool URL, overrides the subdomain")
	flags.String("source", cfg.Source, "source tag accepted on the message endpoint")
	flags.String("export-event", cfg.ExportEvent, "export event name accepted on the message endpoint")
	flags.String("widget-socket", cfg.WidgetSocket, "websocket URL of the tool widget event API")
	flags.String("listen", cfg.Listen, "address of the message endpoint, empty to disable")
	flags.String("watch-dir", cfg.WatchDir, "directory watched for exported avatar files")
	flags.Float64("tick-rate", cfg.TickRate, "animation ticks per second")
	flags.Int("workers", cfg.Workers, "loader worker count")
	flags.Bool("window", cfg.Window, "open a window instead of running headless")
	flags.Int("width", cfg.Width, "window width")
	flags.Int("height", cfg.Height, "window height")
	flags.Bool("profiling", cfg.Profiling, "log frame rate and memory statistics")
	flags.String("present-mode", cfg.PresentMode, "vsync or uncapped")
	flags.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.String("log-format", cfg.LogFormat, "text or json")
}
