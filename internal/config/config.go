// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain/filter"
	"smartfilter/pkg/logger"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the filter settings and the service around them.
type Config struct {
	// Enabled turns filtering on or off globally (default true).
	Enabled *bool `yaml:"enabled"`

	// Defaults is the global option layer (deep, max_relation_depth, case_sensitive, strict_mode).
	Defaults map[string]any `yaml:"defaults"`

	Fields      FieldsConfig      `yaml:"fields"`
	Relations   RelationsConfig   `yaml:"relations"`
	Performance PerformanceConfig `yaml:"performance"`
	Request     RequestConfig     `yaml:"request"`
	Debug       DebugConfig       `yaml:"debug"`

	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  logger.Config  `yaml:"logging"`
}

// FieldsConfig controls schema-derived field descriptors.
type FieldsConfig struct {
	Excluded         []string          `yaml:"excluded"`
	DefaultOperators map[string]string `yaml:"default_operators"` // type -> operator
}

// RelationsConfig controls relation filtering.
type RelationsConfig struct {
	AutoDiscover *bool    `yaml:"auto_discover"` // default true
	MaxDepth     int      `yaml:"max_depth"`     // 0 = default (3), negative = no global cap
	Excluded     []string `yaml:"excluded"`
}

// PerformanceConfig holds limits.
type PerformanceConfig struct {
	MaxFilters int `yaml:"max_filters"` // 0 = default (20), negative = unlimited
}

// RequestConfig controls reading filters from request parameters.
type RequestConfig struct {
	Prefix         string `yaml:"prefix"`
	ArrayDelimiter string `yaml:"array_delimiter"`
}

// DebugConfig holds debugging switches.
type DebugConfig struct {
	Enabled    bool `yaml:"enabled"`     // forces debug log level
	LogQueries bool `yaml:"log_queries"` // logs generated SQL
}

// StorageConfig selects the backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory (default), postgres
	Seed   bool   `yaml:"seed"`   // load demo rows into the memory backend
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL                 string `yaml:"url"`
	MaxConns            int32  `yaml:"max_conns"`
	MinConns            int32  `yaml:"min_conns"`
	StatementTimeoutSec int    `yaml:"statement_timeout_sec"`
	ListenSchemaChanges bool   `yaml:"listen_schema_changes"`
}

// StatementTimeout returns the statement timeout as a duration.
func (d DatabaseConfig) StatementTimeout() time.Duration {
	return time.Duration(d.StatementTimeoutSec) * time.Second
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"` // default true
}

// Load reads the YAML file at path (skipped when empty), applies environment
// overrides and defaults, then validates the result.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment. Variables that are already set are kept. A missing
// default file is not an error.
func LoadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Default returns the validated configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v, ok := getEnvBool("SMART_FILTER_ENABLED"); ok {
		c.Enabled = &v
	}
	if v, ok := getEnvBool("SMART_FILTER_DEBUG"); ok {
		c.Debug.Enabled = v
	}
	if v, ok := getEnvInt("SMART_FILTER_MAX_DEPTH"); ok {
		c.Relations.MaxDepth = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v, ok := getEnvInt("APP_PORT"); ok {
		c.HTTP.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = &v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	base := filter.DefaultSettings()

	if c.Enabled == nil {
		enabled := base.Enabled
		c.Enabled = &enabled
	}
	if c.Defaults == nil {
		c.Defaults = map[string]any{}
	}
	if c.Fields.Excluded == nil {
		c.Fields.Excluded = base.ExcludedFields
	}
	if c.Fields.DefaultOperators == nil {
		c.Fields.DefaultOperators = make(map[string]string, len(base.DefaultOperators))
		for t, op := range base.DefaultOperators {
			c.Fields.DefaultOperators[string(t)] = string(op)
		}
	}
	if c.Relations.AutoDiscover == nil {
		auto := base.AutoDiscoverRelations
		c.Relations.AutoDiscover = &auto
	}
	if c.Relations.MaxDepth == 0 {
		c.Relations.MaxDepth = base.MaxRelationDepth
	}
	if c.Relations.Excluded == nil {
		c.Relations.Excluded = base.ExcludedRelations
	}
	if c.Performance.MaxFilters == 0 {
		c.Performance.MaxFilters = base.MaxFilters
	}
	if c.Request.ArrayDelimiter == "" {
		c.Request.ArrayDelimiter = base.ArrayDelimiter
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 25
	}
	if c.Database.StatementTimeoutSec <= 0 {
		c.Database.StatementTimeoutSec = 30
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 15
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 30
	}
	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Debug.Enabled {
		c.Logging.Level = "debug"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := filter.ValidateOptions(c.Defaults); err != nil {
		return err
	}
	for typeName, opName := range c.Fields.DefaultOperators {
		if _, ok := filter.ParseType(typeName); !ok {
			return apperror.NewInvalidConfiguration("fields.default_operators." + typeName)
		}
		if !filter.Operator(opName).Known() {
			return apperror.NewInvalidConfiguration("fields.default_operators." + typeName).
				WithDetail("operator", opName)
		}
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverMemory, DriverPostgres, c.Storage.Driver)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return nil
}

// FilterSettings converts the filter sections into compiler settings.
func (c *Config) FilterSettings() filter.Settings {
	s := filter.DefaultSettings()

	if c.Enabled != nil {
		s.Enabled = *c.Enabled
	}
	s.Defaults = filter.Options(c.Defaults)
	if c.Fields.Excluded != nil {
		s.ExcludedFields = c.Fields.Excluded
	}
	if c.Fields.DefaultOperators != nil {
		s.DefaultOperators = make(map[filter.Type]filter.Operator, len(c.Fields.DefaultOperators))
		for typeName, opName := range c.Fields.DefaultOperators {
			if t, ok := filter.ParseType(typeName); ok {
				s.DefaultOperators[t] = filter.Operator(opName)
			}
		}
	}
	if c.Relations.AutoDiscover != nil {
		s.AutoDiscoverRelations = *c.Relations.AutoDiscover
	}
	if c.Relations.Excluded != nil {
		s.ExcludedRelations = c.Relations.Excluded
	}
	s.MaxRelationDepth = max(c.Relations.MaxDepth, 0)
	s.MaxFilters = max(c.Performance.MaxFilters, 0)
	s.RequestPrefix = c.Request.Prefix
	if c.Request.ArrayDelimiter != "" {
		s.ArrayDelimiter = c.Request.ArrayDelimiter
	}
	return s
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func getEnvBool(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}
	return filter.ToBoolean(value), true
}

func getEnvInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
