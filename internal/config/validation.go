package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateEngine(); err != nil {
		errors = append(errors, err...)
	}

	if len(c.Tests) == 0 {
		errors = append(errors, ValidationError{
			Field:   "tests",
			Message: "at least one test must be defined",
		})
	}
	for _, name := range c.ListTests() {
		test := c.Tests[name]
		if err := c.validateTest(name, &test); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := validateCompare("compare", &c.Compare); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateEngine() ValidationErrors {
	var errors ValidationErrors
	db := &c.Engine

	validDrivers := map[string]bool{"mysql": true, "postgres": true}
	if !validDrivers[db.Driver] {
		errors = append(errors, ValidationError{
			Field:   "engine.driver",
			Message: "driver must be 'mysql' or 'postgres'",
		})
	}

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "engine.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "engine.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "engine.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "engine.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "engine.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateTest(name string, test *TestConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("tests.%s", name)

	errors = append(errors, validateRelation(prefix+".old", test.Old)...)
	errors = append(errors, validateRelation(prefix+".new", test.New)...)

	if len(test.PrimaryKey) == 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".primary_key",
			Message: "primary_key requires at least one column",
		})
	}
	seen := make(map[string]bool)
	for i, col := range test.PrimaryKey {
		key := strings.ToLower(col)
		if col == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.primary_key[%d]", prefix, i),
				Message: "column name cannot be empty",
			})
		} else if seen[key] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.primary_key[%d]", prefix, i),
				Message: fmt.Sprintf("column %q listed twice", col),
			})
		}
		seen[key] = true
	}

	for i, col := range test.IgnoreColumns {
		if seen[strings.ToLower(col)] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.ignore_columns[%d]", prefix, i),
				Message: fmt.Sprintf("primary key column %q cannot be ignored", col),
			})
		}
	}

	if test.Compare != nil {
		merged := test.GetTestCompare(CompareConfig{})
		errors = append(errors, validateCompare(prefix+".compare", &merged)...)
	}

	return errors
}

func validateRelation(prefix string, rel RelationConfig) ValidationErrors {
	var errors ValidationErrors

	switch {
	case rel.Table == "" && rel.Query == "":
		errors = append(errors, ValidationError{
			Field:   prefix,
			Message: "either table or query is required",
		})
	case rel.Table != "" && rel.Query != "":
		errors = append(errors, ValidationError{
			Field:   prefix,
			Message: "table and query are mutually exclusive",
		})
	}

	return errors
}

func validateCompare(prefix string, cmp *CompareConfig) ValidationErrors {
	var errors ValidationErrors

	if cmp.SampleSize < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".sample_size",
			Message: "sample_size cannot be negative",
		})
	}

	if cmp.RoundingPrecision != nil && (*cmp.RoundingPrecision < 0 || *cmp.RoundingPrecision > 30) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".rounding_precision",
			Message: "rounding_precision must be between 0 and 30",
		})
	}

	if cmp.FloatTolerance < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".float_tolerance",
			Message: "float_tolerance cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
