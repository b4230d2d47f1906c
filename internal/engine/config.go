package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the engine settings loaded at startup. USI setoption
// commands override individual fields afterwards.
type Config struct {
	HashMB     int    `yaml:"hash_mb"`
	Threads    int    `yaml:"threads"`
	EvalFile   string `yaml:"eval_file"`
	CacheDir   string `yaml:"cache_dir"`
	LogLevel   string `yaml:"log_level"`
	MoveMargin int    `yaml:"move_margin_ms"` // network safety margin per move
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		HashMB:     256,
		Threads:    1,
		LogLevel:   "info",
		MoveMargin: 50,
	}
}

// LoadConfig reads a YAML config file. A missing file is not an error:
// the defaults are returned so the engine runs without setup.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.HashMB < 1 {
		cfg.HashMB = 1
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	return cfg, nil
}
