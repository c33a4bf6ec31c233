// Package cli provides shared configuration and utilities for the sqlreport
// CLI.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25

	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "SQLREPORT"
)

// Graph sources.
const (
	GraphEmbedded = "embedded"
	GraphFile     = "file"
	GraphCatalog  = "catalog"
)

// Config represents the sqlreport configuration from sqlreport.yaml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Graph    GraphConfig    `mapstructure:"graph" json:"graph"`
	Compiler CompilerConfig `mapstructure:"compiler" json:"compiler"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr       string `mapstructure:"addr" json:"addr" validate:"required"`
	CORSOrigin string `mapstructure:"cors_origin" json:"cors_origin"`
	MaxRows    int    `mapstructure:"max_rows" json:"max_rows" validate:"gte=0"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
	Schema   string `mapstructure:"schema" json:"schema" validate:"required"`
}

// GraphConfig selects where the relation graph comes from.
type GraphConfig struct {
	Source string `mapstructure:"source" json:"source" validate:"oneof=embedded file catalog"`
	File   string `mapstructure:"file" json:"file" validate:"required_if=Source file"`
}

// CompilerConfig holds compiler settings.
type CompilerConfig struct {
	DefaultJoin     string `mapstructure:"default_join" json:"default_join"`
	InferColumnRefs bool   `mapstructure:"infer_column_refs" json:"infer_column_refs"`
	Lint            bool   `mapstructure:"lint" json:"lint"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" validate:"oneof=text json"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// PORT is the platform convention; the prefixed variable still wins.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"_SERVER_ADDR") == "" {
		v.Set("server.addr", ":"+port)
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.max_rows", 0)

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.schema", "public")

	// Graph defaults
	v.SetDefault("graph.source", GraphEmbedded)
	v.SetDefault("graph.file", "")

	// Compiler defaults
	v.SetDefault("compiler.default_join", "INNER JOIN")
	v.SetDefault("compiler.infer_column_refs", true)
	v.SetDefault("compiler.lint", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks field values that viper cannot type-check.
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for sqlreport.yaml or sqlreport.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range []string{"sqlreport.yaml", "sqlreport.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// HasDatabase reports whether any connection setting is present.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Redacted returns a copy safe to print: the password and any password in
// the URL are masked.
func (c Config) Redacted() Config {
	if c.Database.Password != "" {
		c.Database.Password = "****"
	}
	if u, err := url.Parse(c.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
			c.Database.URL = u.String()
		}
	}
	return c
}
