// Package config defines and loads the mount-time configuration: the source
// directory, mount point, page size, and runtime flags.
package config

// Config is the complete csvfs mount configuration. It can be loaded from
// .csvfs.yaml with CSVFS_*-prefixed environment variable overrides.
type Config struct {
	MountSource string `yaml:"mount_source" mapstructure:"mount_source"`
	MountPoint  string `yaml:"mount_point" mapstructure:"mount_point"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	Foreground  bool   `yaml:"foreground" mapstructure:"foreground"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// Default returns a configuration with sensible defaults. MountSource and
// MountPoint have no sane default and are always supplied by the caller.
func Default() *Config {
	return &Config{
		PageSize:   3000,
		Foreground: false,
		Debug:      false,
	}
}
