// Package config loads the coordinator's optional renderq.yaml file over
// built-in defaults. Command-line overrides are not applied here; the serve
// command applies its own flags to the loaded Config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the coordinator's runtime configuration. Every field has a
// sane default so renderq serve works with no config file at all.
type Config struct {
	ListenAddr        string        `yaml:"listen_addr"`
	DataDir           string        `yaml:"data_dir"`
	WorkerTimeout     time.Duration `yaml:"worker_timeout"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval"`
	LogLevel          string        `yaml:"log_level"`
	LogJSON           bool          `yaml:"log_json"`
}

// Default returns the out-of-the-box configuration.
func Default() Config {
	return Config{
		ListenAddr:        "0.0.0.0:7710",
		DataDir:           "./data",
		WorkerTimeout:     60 * time.Second,
		SchedulerInterval: time.Second,
		LogLevel:          "info",
		LogJSON:           false,
	}
}

// Load reads a renderq.yaml file at path, overlaying it on top of the
// defaults. A missing file is not an error: it just means "use defaults".
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
