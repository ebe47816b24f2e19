package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Constructors(t *testing.T) {
	v := NewValue("Taco")
	assert.True(t, v.Valid)
	assert.False(t, v.IsNull())
	assert.Equal(t, "Taco", v.Text())

	n := Null()
	assert.True(t, n.IsNull())
	assert.Equal(t, "NULL", n.Text())

	// Empty string is not NULL
	e := NewValue("")
	assert.False(t, e.IsNull())
	assert.Equal(t, "", e.Text())
}

func TestValue_Scan(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		src      interface{}
		expected Value
	}{
		{"nil", nil, Null()},
		{"string", "flauta", NewValue("flauta")},
		{"bytes", []byte("3.001"), NewValue("3.001")},
		{"int64", int64(42), NewValue("42")},
		{"float64", float64(6.5), NewValue("6.5")},
		{"bool", true, NewValue("true")},
		{"time", ts, NewValue(ts.Format(time.RFC3339Nano))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			require.NoError(t, v.Scan(tt.src))
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Value{NewValue("a\"b"), Null()})
	require.NoError(t, err)
	assert.JSONEq(t, `["a\"b", null]`, string(out))
}

func TestValue_MarshalYAML(t *testing.T) {
	v, err := Null().MarshalYAML()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewValue("x").MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "7", Key{NewValue("7")}.String())
	assert.Equal(t, "(7, NULL)", Key{NewValue("7"), Null()}.String())
	assert.Equal(t, "()", Key{}.String())
}
