// Package config loads the engine's settings from config files, the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppFs is the filesystem config and .env files are read from.
var AppFs = afero.NewOsFs()

const (
	configName = ".schema-engine"
	envPrefix  = "SCHEMA_ENGINE"
)

// Config holds the application configuration
type Config struct {
	SchemaPath           string
	DatabaseURL          string
	Provider             string
	IntrospectionTimeout time.Duration
	AcceptDataLoss       bool
	Debug                bool
	// IgnoreTables extends the connector's denylist.
	IgnoreTables   []string
	HistoryEnabled bool
}

// LoadConfig loads configuration from the default locations into the global viper instance,
// so that command flags bound to it take precedence.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper(), "")
}

// Load reads configuration into v. An explicit configFile must exist; otherwise the file is
// searched in the working directory and the home directory, and its absence is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	v.SetFs(AppFs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "schema-engine"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("schema_path", "schema.prisma")
	v.SetDefault("introspection_timeout", 30*time.Second)
	v.SetDefault("accept_data_loss", false)
	v.SetDefault("debug", false)
	v.SetDefault("history.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	loadDotEnv()

	cfg := &Config{
		SchemaPath:           v.GetString("schema_path"),
		DatabaseURL:          v.GetString("database_url"),
		Provider:             v.GetString("provider"),
		IntrospectionTimeout: v.GetDuration("introspection_timeout"),
		AcceptDataLoss:       v.GetBool("accept_data_loss"),
		Debug:                v.GetBool("debug"),
		IgnoreTables:         v.GetStringSlice("drift.ignore_tables"),
		HistoryEnabled:       v.GetBool("history.enabled"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.IntrospectionTimeout <= 0 {
		cfg.IntrospectionTimeout = 30 * time.Second
	}

	if file := v.GetString("drift.ignore_file"); file != "" {
		tables, err := ReadIgnoreFile(file)
		if err != nil {
			return nil, err
		}
		cfg.IgnoreTables = append(cfg.IgnoreTables, tables...)
	}

	return cfg, nil
}

// loadDotEnv loads .env, then .env.local over it. Both are optional.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// ignoreFile is a YAML list of tables the drift filter hides.
type ignoreFile struct {
	Tables []string `yaml:"tables"`
}

// ReadIgnoreFile reads a denylist overrides file.
func ReadIgnoreFile(path string) ([]string, error) {
	data, err := afero.ReadFile(AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}
	var f ignoreFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ignore file %s: %w", path, err)
	}
	return f.Tables, nil
}

// SaveConfig saves configuration to file and returns its path
func SaveConfig(cfg *Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("provider", cfg.Provider)
	v.Set("introspection_timeout", cfg.IntrospectionTimeout.String())
	v.Set("accept_data_loss", cfg.AcceptDataLoss)
	v.Set("debug", cfg.Debug)
	v.Set("drift.ignore_tables", cfg.IgnoreTables)
	v.Set("history.enabled", cfg.HistoryEnabled)

	configPath := filepath.Join(home, ".config", "schema-engine")
	if err := AppFs.MkdirAll(configPath, 0755); err != nil {
		return "", err
	}

	configFile := filepath.Join(configPath, configName+".yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return configFile, nil
}
