package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the effective tidypatch configuration after merging defaults,
// the config file, TIDYPATCH_* environment variables, and CLI flags.
type Config struct {
	Backend              string
	Model                string
	RulesFile            string
	Format               string
	Budget               int
	ContextLines         int
	MergeWindow          int
	MaxConcurrency       int
	TimeoutSeconds       int
	GlobalTimeoutSeconds int
	MaxTokens            int
	Temperature          float64
	RedactSecrets        bool
	Cache                CacheConfig
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool
	Dir        string
	TTLSeconds int
}

// Init wires viper: explicit config file if given, otherwise the user config
// directory, plus TIDYPATCH_* env vars and defaults. Call once before Load.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TIDYPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; a broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("backend", "ollama")
	viper.SetDefault("model", "qwen2.5-coder:7b")
	viper.SetDefault("rules_file", ".tidypatch.yaml")
	viper.SetDefault("format", "text")
	viper.SetDefault("budget", 24576)
	viper.SetDefault("context_lines", 3)
	viper.SetDefault("merge_window", 2)
	viper.SetDefault("max_concurrency", 4)
	viper.SetDefault("timeout_seconds", 60)
	viper.SetDefault("global_timeout_seconds", 300)
	viper.SetDefault("max_tokens", 1024)
	viper.SetDefault("temperature", 0.0)
	viper.SetDefault("redact_secrets", true)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.ttl_seconds", 86400)
}

// Load materializes the effective configuration.
func Load() Config {
	return Config{
		Backend:              viper.GetString("backend"),
		Model:                viper.GetString("model"),
		RulesFile:            viper.GetString("rules_file"),
		Format:               viper.GetString("format"),
		Budget:               viper.GetInt("budget"),
		ContextLines:         viper.GetInt("context_lines"),
		MergeWindow:          viper.GetInt("merge_window"),
		MaxConcurrency:       viper.GetInt("max_concurrency"),
		TimeoutSeconds:       viper.GetInt("timeout_seconds"),
		GlobalTimeoutSeconds: viper.GetInt("global_timeout_seconds"),
		MaxTokens:            viper.GetInt("max_tokens"),
		Temperature:          viper.GetFloat64("temperature"),
		RedactSecrets:        viper.GetBool("redact_secrets"),
		Cache: CacheConfig{
			Enabled:    viper.GetBool("cache.enabled"),
			Dir:        viper.GetString("cache.dir"),
			TTLSeconds: viper.GetInt("cache.ttl_seconds"),
		},
	}
}

// Dir returns the tidypatch config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tidypatch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tidypatch"), nil
}
