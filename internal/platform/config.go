package platform

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = "wingnotes.yaml"

// Duration is a time.Duration written as "750ms" or "1s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		var ms int64
		if value.Decode(&ms) != nil {
			return fmt.Errorf("line %d: invalid duration %q", value.Line, value.Value)
		}
		parsed = time.Duration(ms) * time.Millisecond
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// FileConfig is the content of wingnotes.yaml. Zero values mean "default".
type FileConfig struct {
	Adapter      string   `yaml:"adapter,omitempty"`
	Debounce     Duration `yaml:"debounce,omitempty"`
	StorageKey   string   `yaml:"storage_key,omitempty"`
	DefaultTitle string   `yaml:"default_title,omitempty"`
	QuotaBytes   int64    `yaml:"quota_bytes,omitempty"`
	ReadOnly     bool     `yaml:"read_only,omitempty"`
	LockTimeout  Duration `yaml:"lock_timeout,omitempty"`
	WatchPattern string   `yaml:"watch_pattern,omitempty"`
}

// LoadConfig reads a config file. A missing file yields the zero config.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig stores cfg at path.
func WriteConfig(path string, cfg FileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options converts the non-zero fields into functional options.
func (c FileConfig) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Debounce > 0 {
		opts = append(opts, WithDebounce(time.Duration(c.Debounce)))
	}
	if c.StorageKey != "" {
		opts = append(opts, WithStorageKey(c.StorageKey))
	}
	if c.DefaultTitle != "" {
		opts = append(opts, WithDefaultTitle(c.DefaultTitle))
	}
	if c.QuotaBytes > 0 {
		opts = append(opts, WithQuota(c.QuotaBytes))
	}
	if c.ReadOnly {
		opts = append(opts, WithReadOnly(true))
	}
	if c.LockTimeout > 0 {
		opts = append(opts, WithLockTimeout(time.Duration(c.LockTimeout)))
	}
	if c.WatchPattern != "" {
		opts = append(opts, WithWatchPattern(c.WatchPattern))
	}
	return opts
}
