package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/core/apperror"
	"smartfilter/internal/domain/filter"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://localhost/smartfilter")

	path := writeConfig(t, `
enabled: true
defaults:
  case_sensitive: true
  max_relation_depth: 1
fields:
  excluded: [secret_note]
  default_operators:
    string: "="
    number: ">="
relations:
  auto_discover: false
  max_depth: 4
  excluded: [tokens]
performance:
  max_filters: 5
request:
  prefix: filter_
  array_delimiter: "|"
storage:
  driver: postgres
database:
  url: ${TEST_DB_URL}
http:
  port: 9090
logging:
  level: ${MISSING_LEVEL:-warn}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/smartfilter", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 30, cfg.HTTP.WriteTimeoutSec)

	s := cfg.FilterSettings()
	assert.True(t, s.Enabled)
	assert.Equal(t, filter.Options{"case_sensitive": true, "max_relation_depth": 1}, s.Defaults)
	assert.Equal(t, []string{"secret_note"}, s.ExcludedFields)
	assert.Equal(t, map[filter.Type]filter.Operator{
		filter.TypeString:  filter.Equal,
		filter.TypeInteger: filter.GreaterOrEqual,
	}, s.DefaultOperators)
	assert.False(t, s.AutoDiscoverRelations)
	assert.Equal(t, 4, s.MaxRelationDepth)
	assert.Equal(t, []string{"tokens"}, s.ExcludedRelations)
	assert.Equal(t, 5, s.MaxFilters)
	assert.Equal(t, "filter_", s.RequestPrefix)
	assert.Equal(t, "|", s.ArrayDelimiter)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NotNil(t, cfg.Metrics.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)

	s := cfg.FilterSettings()
	def := filter.DefaultSettings()
	assert.Equal(t, def.Enabled, s.Enabled)
	assert.Equal(t, def.ExcludedFields, s.ExcludedFields)
	assert.Equal(t, def.DefaultOperators, s.DefaultOperators)
	assert.Equal(t, def.MaxRelationDepth, s.MaxRelationDepth)
	assert.Equal(t, def.MaxFilters, s.MaxFilters)
	assert.Equal(t, def.ArrayDelimiter, s.ArrayDelimiter)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SMART_FILTER_ENABLED", "false")
	t.Setenv("SMART_FILTER_DEBUG", "true")
	t.Setenv("SMART_FILTER_MAX_DEPTH", "1")
	t.Setenv("APP_PORT", "7070")

	path := writeConfig(t, "enabled: true\nrelations:\n  max_depth: 5\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.FilterSettings().Enabled)
	assert.Equal(t, 1, cfg.FilterSettings().MaxRelationDepth)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7070, cfg.HTTP.Port)
}

func TestFilterSettings_NegativeMeansUnlimited(t *testing.T) {
	cfg := Config{
		Relations:   RelationsConfig{MaxDepth: -1},
		Performance: PerformanceConfig{MaxFilters: -1},
	}
	cfg.ApplyDefaults()

	s := cfg.FilterSettings()
	assert.Equal(t, 0, s.MaxRelationDepth)
	assert.Equal(t, 0, s.MaxFilters)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
		config    bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:      "unknown option key",
			mutate:    func(c *Config) { c.Defaults["depth"] = 2 },
			wantError: true,
			config:    true,
		},
		{
			name:      "unknown type in default operators",
			mutate:    func(c *Config) { c.Fields.DefaultOperators["money"] = "=" },
			wantError: true,
			config:    true,
		},
		{
			name:      "unknown operator in default operators",
			mutate:    func(c *Config) { c.Fields.DefaultOperators["string"] = "~" },
			wantError: true,
			config:    true,
		},
		{
			name:      "postgres without url",
			mutate:    func(c *Config) { c.Storage.Driver = DriverPostgres },
			wantError: true,
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Storage.Driver = "mysql" },
			wantError: true,
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.HTTP.Port = 70000 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.config, apperror.HasCode(err, apperror.CodeInvalidConfiguration))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "enabled: [oops"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  driver: mysql\n"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SMARTFILTER_TEST_DOTENV"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Existing variables are not overridden.
	require.NoError(t, os.WriteFile(path, []byte(key+"=second\n"), 0o600))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadDotEnv_MissingDefaultIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadDotEnv(""))
}
