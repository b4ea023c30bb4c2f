package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory
// (the directory .csvfs.yaml is searched in).
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CSVFS_*)
// 2. Config file (.csvfs.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".csvfs")
	v.SetConfigType("yaml")
	v.AddConfigPath(l.rootDir)

	v.SetEnvPrefix("CSVFS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("mount_source")
	v.BindEnv("mount_point")
	v.BindEnv("page_size")
	v.BindEnv("foreground")
	v.BindEnv("debug")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// mount_source/mount_point are overlaid by the caller from positional
	// CLI arguments after Load returns, so the full Validate (which requires
	// both) runs there instead; only page_size is self-contained here.
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("invalid configuration: %w", ErrInvalidPageSize)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("page_size", defaults.PageSize)
	v.SetDefault("foreground", defaults.Foreground)
	v.SetDefault("debug", defaults.Debug)
}

// LoadConfigFromDir loads configuration with rootDir as the .csvfs.yaml
// search path. The positional mount_source/mount_point and the command-line
// flags are not applied here; the caller overlays them on the result.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
