// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "REDACTFS_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the redactfs daemon configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths PathsConfig `yaml:"paths"`
	Mount MountConfig `yaml:"mount"`
	Log   LogConfig   `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Paths *PathsConfig `yaml:"paths,omitempty"`
	Mount *MountConfig `yaml:"mount,omitempty"`
	Log   *LogConfig   `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for redactfs state.
	Root string `yaml:"root"`

	// LowerDir is the real directory exposed through the mount.
	LowerDir string `yaml:"lower_dir"`

	// Mountpoint is where the redacting view is mounted.
	Mountpoint string `yaml:"mountpoint"`

	// Manifests is the redaction manifest store directory.
	// Default: ${REDACTFS_ROOT}/manifests
	Manifests string `yaml:"manifests"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// VolumePath is the absolute storage path the mount root stands
	// for, e.g. /storage/emulated/0. Per-user Android/, Android/data
	// and Android/obb trees below it are served without redaction.
	VolumePath string `yaml:"volume_path"`

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`

	// Debug enables go-fuse request tracing.
	Debug bool `yaml:"debug"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info (development), warn (production)
	Level string `yaml:"level"`
}

// Default returns the default configuration, used as the base before
// the config file is applied.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "redactfs")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:      defaultRoot,
			Manifests: "${REDACTFS_ROOT}/manifests",
		},
		Mount: MountConfig{
			VolumePath: "/storage/emulated/0",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by REDACTFS_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your redactfs.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Resolve()
	return cfg, nil
}

// Resolve applies the active environment's overrides and expands
// ${VAR} references. LoadFile calls it; a Config built from Default
// without a file must be resolved before use.
func (c *Config) Resolve() {
	c.applyEnvironmentOverrides()
	c.expandVariables()
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Log: &LogConfig{Level: "warn"}}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.LowerDir != "" {
			c.Paths.LowerDir = overrides.Paths.LowerDir
		}
		if overrides.Paths.Mountpoint != "" {
			c.Paths.Mountpoint = overrides.Paths.Mountpoint
		}
		if overrides.Paths.Manifests != "" {
			c.Paths.Manifests = overrides.Paths.Manifests
		}
	}

	if overrides.Mount != nil {
		if overrides.Mount.VolumePath != "" {
			c.Mount.VolumePath = overrides.Mount.VolumePath
		}
		// Bools are always applied from an override section.
		c.Mount.AllowOther = overrides.Mount.AllowOther
		c.Mount.Debug = overrides.Mount.Debug
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"REDACTFS_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["REDACTFS_ROOT"] = c.Paths.Root

	c.Paths.LowerDir = expandVars(c.Paths.LowerDir, vars)
	c.Paths.Mountpoint = expandVars(c.Paths.Mountpoint, vars)
	c.Paths.Manifests = expandVars(c.Paths.Manifests, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var logLevels = []string{"debug", "info", "warn", "error"}

// LogLevel returns the configured level as a slog.Level. Validate
// rejects unknown names; LogLevel treats them as info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.LowerDir == "" {
		errs = append(errs, errors.New("paths.lower_dir is required"))
	} else if !filepath.IsAbs(c.Paths.LowerDir) {
		errs = append(errs, fmt.Errorf("paths.lower_dir must be absolute, got %s", c.Paths.LowerDir))
	}
	if c.Paths.Mountpoint == "" {
		errs = append(errs, errors.New("paths.mountpoint is required"))
	}
	if c.Paths.Manifests == "" {
		errs = append(errs, errors.New("paths.manifests is required"))
	}
	if c.Paths.LowerDir != "" && filepath.Clean(c.Paths.LowerDir) == filepath.Clean(c.Paths.Mountpoint) {
		errs = append(errs, errors.New("paths.mountpoint must differ from paths.lower_dir"))
	}

	if c.Mount.VolumePath != "" && !filepath.IsAbs(c.Mount.VolumePath) {
		errs = append(errs, fmt.Errorf("mount.volume_path must be absolute, got %s", c.Mount.VolumePath))
	}
	if c.Environment == Production && c.Mount.Debug {
		errs = append(errs, errors.New("mount.debug is not allowed in production"))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the state directories if they don't exist. The
// lower directory is never created: it must already hold the data.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Manifests, c.Paths.Mountpoint} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
