package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	defaults, err := defaultConfig()
	require.NoError(t, err)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(flags, defaults)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := defaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "public/default_model.glb", cfg.AvatarURL)
	assert.Equal(t, "public/animation.glb", cfg.AnimationURL)
	assert.Equal(t, "Hips", cfg.RootJoint)
	assert.Equal(t, "avaturn", cfg.Source)
	assert.Equal(t, "v2.avatar.exported", cfg.ExportEvent)
	assert.Equal(t, 60.0, cfg.TickRate)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Window)
	assert.Equal(t, "https://demo.avaturn.dev", cfg.ResolvedToolURL())
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("AVATARVIEW_SUBDOMAIN", "acme")
	t.Setenv("AVATARVIEW_TICK_RATE", "30")

	cfg, err := defaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://acme.avaturn.dev", cfg.ResolvedToolURL())
	assert.Equal(t, 30.0, cfg.TickRate)
}

func TestLoadConfigLayers(t *testing.T) {
	t.Setenv("AVATARVIEW_ROOT_JOINT", "Root")
	t.Setenv("AVATARVIEW_WORKERS", "2")

	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
avatar_url = "models/me.glb"
workers = 8
log_level = "debug"
`), 0o644))

	cfg, err := loadConfig(path, flagSet(t, "--workers", "16", "--window"))
	require.NoError(t, err)

	assert.Equal(t, "models/me.glb", cfg.AvatarURL, "file overrides default")
	assert.Equal(t, "Root", cfg.RootJoint, "env survives when the file omits the key")
	assert.Equal(t, 16, cfg.Workers, "flag overrides file")
	assert.True(t, cfg.Window)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "public/animation.glb", cfg.AnimationURL, "unset flags do not override")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil)
	assert.Error(t, err)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "public/default_model.glb", cfg.AvatarURL)
}

func TestValidate(t *testing.T) {
	base, err := defaultConfig()
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"empty avatar":   func(c *Config) { c.AvatarURL = "" },
		"zero tick rate": func(c *Config) { c.TickRate = 0 },
		"zero workers":   func(c *Config) { c.Workers = 0 },
		"window size":    func(c *Config) { c.Window = true; c.Width = 0 },
		"log level":      func(c *Config) { c.LogLevel = "loud" },
		"log format":     func(c *Config) { c.LogFormat = "xml" },
		"present mode":   func(c *Config) { c.PresentMode = "triple" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatarview.toml")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote "+path)

	cfg, err := loadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "public/default_model.glb", cfg.AvatarURL)
	assert.Equal(t, 4, cfg.Workers)

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, cmd.Execute(), "existing file is kept without --force")

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "config", "init", "--force"})
	assert.NoError(t, cmd.Execute())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := defaultConfig()
	require.NoError(t, err)
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
