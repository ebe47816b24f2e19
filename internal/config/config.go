// Package config provides configuration structures and loading for GoRegress.
package config

// Config represents the complete application configuration.
type Config struct {
	Engine  EngineConfig          `yaml:"engine" mapstructure:"engine"`
	Compare CompareConfig         `yaml:"compare" mapstructure:"compare"`
	Tests   map[string]TestConfig `yaml:"tests" mapstructure:"tests"`
	Logging LoggingConfig         `yaml:"logging" mapstructure:"logging"`
}

// EngineConfig represents the connection to the SQL engine that holds both
// relations of every test.
type EngineConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql or postgres
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// RelationConfig names one side of a test: either a table or a query.
type RelationConfig struct {
	Table string `yaml:"table" mapstructure:"table"`
	Query string `yaml:"query" mapstructure:"query"`
}

// TestConfig represents a single regression test between two relations.
type TestConfig struct {
	Old           RelationConfig   `yaml:"old" mapstructure:"old"`
	New           RelationConfig   `yaml:"new" mapstructure:"new"`
	PrimaryKey    []string         `yaml:"primary_key" mapstructure:"primary_key"`
	IgnoreColumns []string         `yaml:"ignore_columns" mapstructure:"ignore_columns"`
	Compare       *CompareOverride `yaml:"compare,omitempty" mapstructure:"compare"`
}

// CompareConfig holds the comparison and aggregation policy.
type CompareConfig struct {
	SampleSize        int     `yaml:"sample_size" mapstructure:"sample_size"`
	RoundingPrecision *int    `yaml:"rounding_precision" mapstructure:"rounding_precision"`
	FloatTolerance    float64 `yaml:"float_tolerance" mapstructure:"float_tolerance"`
	NullSafeKeys      *bool   `yaml:"null_safe_keys" mapstructure:"null_safe_keys"`
	FailOnMissingRows bool    `yaml:"fail_on_missing_rows" mapstructure:"fail_on_missing_rows"`
}

// CompareOverride is a test-level compare block. Nil fields inherit the
// global value; an explicit zero or false replaces it.
type CompareOverride struct {
	SampleSize        *int     `yaml:"sample_size,omitempty" mapstructure:"sample_size"`
	RoundingPrecision *int     `yaml:"rounding_precision,omitempty" mapstructure:"rounding_precision"`
	FloatTolerance    *float64 `yaml:"float_tolerance,omitempty" mapstructure:"float_tolerance"`
	NullSafeKeys      *bool    `yaml:"null_safe_keys,omitempty" mapstructure:"null_safe_keys"`
	FailOnMissingRows *bool    `yaml:"fail_on_missing_rows,omitempty" mapstructure:"fail_on_missing_rows"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stderr (default), stdout, or file path
}

// Precision returns the rounding precision, defaulting to 2.
func (c CompareConfig) Precision() int {
	if c.RoundingPrecision == nil {
		return 2
	}
	return *c.RoundingPrecision
}

// NullSafe reports whether NULL key components match each other. Defaults to true.
func (c CompareConfig) NullSafe() bool {
	if c.NullSafeKeys == nil {
		return true
	}
	return *c.NullSafeKeys
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	precision := 2
	nullSafe := true
	return &Config{
		Engine: EngineConfig{
			Driver:             "mysql",
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
		},
		Compare: CompareConfig{
			SampleSize:        5,
			RoundingPrecision: &precision,
			FloatTolerance:    0,
			NullSafeKeys:      &nullSafe,
			FailOnMissingRows: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// GetTestCompare returns the compare config for a test by name, falling back to global if not set.
func (c *Config) GetTestCompare(testName string) CompareConfig {
	test, err := c.GetTest(testName)
	if err != nil {
		return c.Compare
	}
	return test.GetTestCompare(c.Compare)
}

// GetTestCompare returns the compare config for a test, falling back to global if not set.
func (tc *TestConfig) GetTestCompare(global CompareConfig) CompareConfig {
	if tc.Compare == nil {
		return global
	}

	o := tc.Compare
	result := global
	if o.SampleSize != nil {
		result.SampleSize = *o.SampleSize
	}
	if o.RoundingPrecision != nil {
		p := *o.RoundingPrecision
		result.RoundingPrecision = &p
	}
	if o.FloatTolerance != nil {
		result.FloatTolerance = *o.FloatTolerance
	}
	if o.NullSafeKeys != nil {
		b := *o.NullSafeKeys
		result.NullSafeKeys = &b
	}
	if o.FailOnMissingRows != nil {
		result.FailOnMissingRows = *o.FailOnMissingRows
	}
	return result
}
