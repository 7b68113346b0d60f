package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// Dir is the untracked per-repository directory holding config, cache and locks
	Dir = ".yt"

	// CurrentVersion is the config schema version written by Save
	CurrentVersion = 1

	// IdentityCommit derives record ids from a freshly written git commit
	IdentityCommit = "commit"
	// IdentityUUID derives record ids from a random UUID
	IdentityUUID = "uuid"
)

// Config represents the complete yt configuration
type Config struct {
	Version      int    `json:"version" mapstructure:"version"`
	DBFolder     string `json:"dbFolder" mapstructure:"dbFolder"`
	IndexFile    string `json:"indexFile" mapstructure:"indexFile"`
	Identity     string `json:"identity" mapstructure:"identity"`
	NewRecordTag string `json:"newRecordTag" mapstructure:"newRecordTag"`

	Git     GitConfig     `json:"git" mapstructure:"git"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Index   IndexConfig   `json:"index" mapstructure:"index"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Output  OutputConfig  `json:"output" mapstructure:"output"`
}

// GitConfig contains git backend configuration
type GitConfig struct {
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// Validate validates the git configuration.
func (c GitConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TimeoutMs, validation.Required, validation.Min(1)),
	)
}

// CacheConfig controls the revision blob cache
type CacheConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path is relative to the repository root unless absolute
	Path string `json:"path" mapstructure:"path"`
}

// Validate validates the cache configuration.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// IndexConfig controls index writes
type IndexConfig struct {
	LockTimeoutMs int `json:"lockTimeoutMs" mapstructure:"lockTimeoutMs"`
}

// Validate validates the index configuration.
func (c IndexConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LockTimeoutMs, validation.Min(0)),
	)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// Validate validates the logging configuration.
func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	)
}

// OutputConfig contains CLI rendering defaults
type OutputConfig struct {
	Color  bool   `json:"color" mapstructure:"color"`
	Format string `json:"format" mapstructure:"format"`
}

// Validate validates the output configuration.
func (c OutputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.In("human", "json", "yaml", "toml")),
	)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:      CurrentVersion,
		DBFolder:     "issues",
		IndexFile:    "issues.yaml",
		Identity:     IdentityCommit,
		NewRecordTag: "YAMLTrak-new-ticket",
		Git: GitConfig{
			TimeoutMs: 10000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(Dir, "cache.db"),
		},
		Index: IndexConfig{
			LockTimeoutMs: 2000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    "5MB",
			MaxBackups: 2,
		},
		Output: OutputConfig{
			Color:  true,
			Format: "human",
		},
	}
}

// LoadConfig loads configuration from <repoRoot>/.yt/config.json.
// Values from YT_* environment variables (and a .env file at the repository
// root) override the file; a missing file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(repoRoot, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, Dir))
	v.SetEnvPrefix("YT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("dbFolder", d.DBFolder)
	v.SetDefault("indexFile", d.IndexFile)
	v.SetDefault("identity", d.Identity)
	v.SetDefault("newRecordTag", d.NewRecordTag)
	v.SetDefault("git.timeoutMs", d.Git.TimeoutMs)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("index.lockTimeoutMs", d.Index.LockTimeoutMs)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("output.format", d.Output.Format)
}

// Save writes the configuration to <repoRoot>/.yt/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.DBFolder, validation.Required, validation.By(relativeDir)),
		validation.Field(&c.IndexFile, validation.Required, validation.By(plainName)),
		validation.Field(&c.Identity, validation.Required, validation.In(IdentityCommit, IdentityUUID)),
		validation.Field(&c.NewRecordTag, validation.When(c.Identity == IdentityCommit, validation.Required)),
		validation.Field(&c.Git),
		validation.Field(&c.Cache),
		validation.Field(&c.Index),
		validation.Field(&c.Logging),
		validation.Field(&c.Output),
	)
}

// RecordDir returns the absolute directory holding records for repoRoot.
func (c *Config) RecordDir(repoRoot string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(c.DBFolder))
}

// CachePath returns the absolute path of the revision cache database.
func (c *Config) CachePath(repoRoot string) string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(repoRoot, c.Cache.Path)
}

func relativeDir(value interface{}) error {
	s, _ := value.(string)
	clean := filepath.ToSlash(filepath.Clean(s))
	if filepath.IsAbs(s) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must be a path inside the repository")
	}
	return nil
}

func plainName(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must be a file name, not a path")
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
