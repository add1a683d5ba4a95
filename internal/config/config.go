package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Pool  PoolConfig  `mapstructure:"pool"`
	Async AsyncConfig `mapstructure:"async"`
	Specs SpecsConfig `mapstructure:"specs"`
}

type PoolConfig struct {
	Size           int           `mapstructure:"size"`
	BorrowTimeout  time.Duration `mapstructure:"borrow_timeout"`
	ValidateBorrow bool          `mapstructure:"validate_on_borrow"`
}

type AsyncConfig struct {
	Workers int `mapstructure:"workers"`
}

type SpecsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pool.size", 5)
	v.SetDefault("pool.borrow_timeout", "5s")
	v.SetDefault("pool.validate_on_borrow", true)
	v.SetDefault("async.workers", 8)
	v.SetDefault("specs.search_paths", []string{"."})
}

// Load reads a config file and overlays MODSPEC_ environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MODSPEC")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		// Defaults are static and always unmarshal.
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &config
}
