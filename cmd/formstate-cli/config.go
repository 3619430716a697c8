package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName = "formstate"
	envPrefix  = "FORMSTATE"
)

// Config holds every setting a command reads. Flags win over environment
// variables (FORMSTATE_*), which win over the config file.
type Config struct {
	Schema      string            `mapstructure:"schema"`
	CUE         string            `mapstructure:"cue"`
	Definition  string            `mapstructure:"definition"`
	Fields      []string          `mapstructure:"field"`
	Name        string            `mapstructure:"name"`
	Endpoint    string            `mapstructure:"endpoint"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Retries     int               `mapstructure:"retries"`
	Checkpoint  string            `mapstructure:"checkpoint"`
	Format      string            `mapstructure:"format"`
	Output      string            `mapstructure:"output"`
	Sanitize    bool              `mapstructure:"sanitize"`
	MaxAttempts int               `mapstructure:"max-attempts"`
	Confirm     bool              `mapstructure:"confirm"`
	Verbose     bool              `mapstructure:"verbose"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Method:      "POST",
		Retries:     2,
		Format:      "pretty",
		MaxAttempts: 3,
		Confirm:     true,
	}
}

var configKeys = []string{
	"schema", "cue", "definition", "field", "name",
	"endpoint", "method", "retries", "checkpoint",
	"format", "output", "sanitize", "max-attempts", "confirm", "verbose",
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("method", defaults.Method)
	v.SetDefault("retries", defaults.Retries)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("max-attempts", defaults.MaxAttempts)
	v.SetDefault("confirm", defaults.Confirm)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for _, key := range configKeys {
		flag := cmd.Flags().Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
