package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Queries are left untouched: `$1` style placeholders are legal PostgreSQL.
func substituteEnvVars(cfg *Config) error {
	cfg.Engine.Host = expandEnvVar(cfg.Engine.Host)
	cfg.Engine.User = expandEnvVar(cfg.Engine.User)
	cfg.Engine.Password = expandEnvVar(cfg.Engine.Password)
	cfg.Engine.Database = expandEnvVar(cfg.Engine.Database)

	for name, test := range cfg.Tests {
		test.Old.Table = expandEnvVar(test.Old.Table)
		test.New.Table = expandEnvVar(test.New.Table)
		cfg.Tests[name] = test
	}

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// GetTest retrieves a specific test configuration by name.
func (c *Config) GetTest(name string) (*TestConfig, error) {
	test, exists := c.Tests[name]
	if !exists {
		return nil, fmt.Errorf("test %q not found in configuration", name)
	}
	return &test, nil
}

// ListTests returns all test names defined in the configuration, sorted.
func (c *Config) ListTests() []string {
	tests := make([]string, 0, len(c.Tests))
	for name := range c.Tests {
		tests = append(tests, name)
	}
	sort.Strings(tests)
	return tests
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-zero/non-empty values are applied; precision is applied when >= 0.
func (c *Config) ApplyOverrides(logLevel, logFormat string, sampleSize, precision int, tolerance float64) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if sampleSize > 0 {
		c.Compare.SampleSize = sampleSize
	}
	if precision >= 0 {
		p := precision
		c.Compare.RoundingPrecision = &p
	}
	if tolerance > 0 {
		c.Compare.FloatTolerance = tolerance
	}
}

// ApplyTestOverrides combines global, test-specific and CLI values into the
// effective compare config of one test. CLI values win.
func (c *Config) ApplyTestOverrides(testName string, sampleSize, precision int, tolerance float64) CompareConfig {
	compare := c.GetTestCompare(testName)

	if sampleSize > 0 {
		compare.SampleSize = sampleSize
	}
	if precision >= 0 {
		p := precision
		compare.RoundingPrecision = &p
	}
	if tolerance > 0 {
		compare.FloatTolerance = tolerance
	}

	return compare
}
