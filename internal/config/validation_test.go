package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "pass",
			Database: "testdb",
		},
		Tests: map[string]TestConfig{
			"orders": {
				Old:        RelationConfig{Table: "orders_v1"},
				New:        RelationConfig{Table: "orders_v2"},
				PrimaryKey: []string{"id"},
			},
		},
		Compare: CompareConfig{SampleSize: 5},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidateEngine(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
		field  string
	}{
		{"missing host", func(e *EngineConfig) { e.Host = "" }, "engine.host"},
		{"invalid port", func(e *EngineConfig) { e.Port = 99999 }, "engine.port"},
		{"zero port", func(e *EngineConfig) { e.Port = 0 }, "engine.port"},
		{"missing user", func(e *EngineConfig) { e.User = "" }, "engine.user"},
		{"missing database", func(e *EngineConfig) { e.Database = "" }, "engine.database"},
		{"unknown driver", func(e *EngineConfig) { e.Driver = "sqlite" }, "engine.driver"},
		{"invalid tls", func(e *EngineConfig) { e.TLS = "sometimes" }, "engine.tls"},
		{"negative max connections", func(e *EngineConfig) { e.MaxConnections = -1 }, "engine.max_connections"},
		{"negative idle connections", func(e *EngineConfig) { e.MaxIdleConnections = -1 }, "engine.max_idle_connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Engine)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %q, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidatePostgresDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Driver = "postgres"
	cfg.Engine.Port = 5432

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected postgres driver to be valid, got: %v", err)
	}
}

func TestNoTests(t *testing.T) {
	cfg := validConfig()
	cfg.Tests = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing tests")
	}
	if !strings.Contains(err.Error(), "at least one test") {
		t.Errorf("expected error about tests, got: %v", err)
	}
}

func TestValidateTest(t *testing.T) {
	tests := []struct {
		name   string
		test   TestConfig
		field  string
		substr string
	}{
		{
			name:  "missing old relation",
			test:  TestConfig{New: RelationConfig{Table: "b"}, PrimaryKey: []string{"id"}},
			field: "tests.t.old",
		},
		{
			name: "table and query both set",
			test: TestConfig{
				Old:        RelationConfig{Table: "a", Query: "SELECT 1"},
				New:        RelationConfig{Table: "b"},
				PrimaryKey: []string{"id"},
			},
			field:  "tests.t.old",
			substr: "mutually exclusive",
		},
		{
			name:  "missing primary key",
			test:  TestConfig{Old: RelationConfig{Table: "a"}, New: RelationConfig{Table: "b"}},
			field: "tests.t.primary_key",
		},
		{
			name: "duplicate primary key column",
			test: TestConfig{
				Old:        RelationConfig{Table: "a"},
				New:        RelationConfig{Table: "b"},
				PrimaryKey: []string{"id", "ID"},
			},
			field:  "tests.t.primary_key[1]",
			substr: "listed twice",
		},
		{
			name: "empty primary key column",
			test: TestConfig{
				Old:        RelationConfig{Table: "a"},
				New:        RelationConfig{Table: "b"},
				PrimaryKey: []string{""},
			},
			field: "tests.t.primary_key[0]",
		},
		{
			name: "ignoring a key column",
			test: TestConfig{
				Old:           RelationConfig{Table: "a"},
				New:           RelationConfig{Table: "b"},
				PrimaryKey:    []string{"id"},
				IgnoreColumns: []string{"Id"},
			},
			field: "tests.t.ignore_columns[0]",
		},
		{
			name: "negative test precision",
			test: TestConfig{
				Old:        RelationConfig{Table: "a"},
				New:        RelationConfig{Table: "b"},
				PrimaryKey: []string{"id"},
				Compare:    &CompareOverride{RoundingPrecision: intPtr(-1)},
			},
			field: "tests.t.compare.rounding_precision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Tests = map[string]TestConfig{"t": tt.test}

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %q, got: %v", tt.field, err)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("expected error to contain %q, got: %v", tt.substr, err)
			}
		})
	}
}

func TestValidateCompare(t *testing.T) {
	tests := []struct {
		name  string
		cmp   CompareConfig
		field string
	}{
		{"negative sample size", CompareConfig{SampleSize: -1}, "compare.sample_size"},
		{"precision too large", CompareConfig{RoundingPrecision: intPtr(31)}, "compare.rounding_precision"},
		{"negative tolerance", CompareConfig{FloatTolerance: -0.1}, "compare.float_tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Compare = tt.cmp

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %q, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging = LoggingConfig{Level: "verbose", Format: "xml"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for logging")
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("expected error to mention logging.level, got: %v", err)
	}
	if !strings.Contains(err.Error(), "logging.format") {
		t.Errorf("expected error to mention logging.format, got: %v", err)
	}
}

func TestValidationErrorsFormat(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}

	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected prefix: %s", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("expected both errors in message, got: %s", msg)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("expected empty message for no errors")
	}
}
