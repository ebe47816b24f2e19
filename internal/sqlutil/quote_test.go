package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Column names reach the quoting functions from information_schema, so any
// character has to survive a round trip through the quoted form.
func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Column name", input: "unit_price", expected: "`unit_price`"},
		{name: "Mixed case kept", input: "CustomerID", expected: "`CustomerID`"},
		{name: "Space in column", input: "order date", expected: "`order date`"},
		{name: "Embedded backtick", input: "my`col", expected: "`my``col`"},
		{name: "Backticks at both ends", input: "`x`", expected: "```x```"},
		{name: "Double quote untouched", input: `a"b`, expected: "`a\"b`"},
		{name: "Empty", input: "", expected: "``"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"orders", true},
		{"orders_v2", true},
		{"Snapshot2024", true},
		{"__tmp", true},
		{"", false},
		{"orders v2", false},
		{"orders-v2", false},
		{"public.orders", false},
		{"orders;DROP TABLE orders", false},
		{"orders'", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidIdentifier(tt.input))
		})
	}
}

func TestQuoteANSIIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Simple name", input: "orders", expected: `"orders"`},
		{name: "Mixed case kept", input: "OrderItems", expected: `"OrderItems"`},
		{name: "Embedded quote", input: `my"col`, expected: `"my""col"`},
		{name: "Backtick untouched", input: "a`b", expected: "\"a`b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteANSIIdentifier(tt.input))
		})
	}
}

func TestQuoteQualifiedSafe_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		quote    func(string) string
		expected string
	}{
		{name: "Bare MySQL table", input: "orders", quote: QuoteIdentifier, expected: "`orders`"},
		{name: "Qualified MySQL table", input: "snap.orders", quote: QuoteIdentifier, expected: "`snap`.`orders`"},
		{name: "Qualified ANSI table", input: "public.orders", quote: QuoteANSIIdentifier, expected: `"public"."orders"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := QuoteQualifiedSafe(tt.input, tt.quote)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestQuoteQualifiedSafe_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty string", input: ""},
		{name: "With space", input: "my table"},
		{name: "Too many parts", input: "a.b.c"},
		{name: "Empty schema", input: ".orders"},
		{name: "SQL injection", input: "users; DROP TABLE users--"},
		{name: "With backtick", input: "my`table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := QuoteQualifiedSafe(tt.input, QuoteIdentifier)
			assert.Error(t, err)
			assert.Empty(t, result)
			assert.IsType(t, &InvalidIdentifierError{}, err)
			assert.Contains(t, err.Error(), "invalid identifier")
		})
	}
}

func TestSplitQualified(t *testing.T) {
	schema, table := SplitQualified("public.orders")
	assert.Equal(t, "public", schema)
	assert.Equal(t, "orders", table)

	schema, table = SplitQualified("orders")
	assert.Equal(t, "", schema)
	assert.Equal(t, "orders", table)
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		backslash bool
		expected  string
	}{
		{name: "Plain", input: "price", backslash: true, expected: "'price'"},
		{name: "Single quote", input: "o'brien", backslash: false, expected: "'o''brien'"},
		{name: "Backslash MySQL", input: `a\b`, backslash: true, expected: `'a\\b'`},
		{name: "Backslash ANSI", input: `a\b`, backslash: false, expected: `'a\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteString(tt.input, tt.backslash))
		})
	}
}

func TestInvalidIdentifierError_Error(t *testing.T) {
	err := &InvalidIdentifierError{Name: "bad@table"}
	expected := "invalid identifier: bad@table (must contain only alphanumeric characters and underscores)"
	assert.Equal(t, expected, err.Error())
}
