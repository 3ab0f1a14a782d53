package telemetry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Normalize_TemperaturePrecedence(t *testing.T) {
	cases := []struct {
		name     string
		payload  map[string]interface{}
		expected *float64
	}{
		{
			name: "generic key wins over every synonym",
			payload: map[string]interface{}{
				"temperature": 2.5,
				"milk_temp":   9.9,
				"outlet_temp": 8.8,
			},
			expected: f(2.5),
		},
		{
			name: "temp wins over milk_temp",
			payload: map[string]interface{}{
				"temp":      1.0,
				"milk_temp": 9.9,
			},
			expected: f(1.0),
		},
		{
			name: "synonym used when no generic key present",
			payload: map[string]interface{}{
				"milk_temp": 3.2,
				"humidity":  60.0,
			},
			expected: f(3.2),
		},
		{
			name: "later synonym skipped for an earlier one",
			payload: map[string]interface{}{
				"oil_temp":    45.0,
				"heater_temp": 73.0,
			},
			expected: f(73.0),
		},
		{
			name: "non-numeric earlier key falls through to next synonym",
			payload: map[string]interface{}{
				"temperature": "not a number",
				"temp":        2.0,
			},
			expected: f(2.0),
		},
		{
			name:     "no temperature key at all",
			payload:  map[string]interface{}{"humidity": 55.0},
			expected: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := Normalize(tc.payload)
			if tc.expected == nil {
				assert.Nil(t, ch.Temperature)
				return
			}
			require.NotNil(t, ch.Temperature)
			assert.Equal(t, *tc.expected, *ch.Temperature)
		})
	}
}

func Test_Normalize_PressurePrecedence(t *testing.T) {
	ch := Normalize(map[string]interface{}{
		"suction_pressure":   1.8,
		"discharge_pressure": 12.0,
	})
	require.NotNil(t, ch.Pressure)
	assert.Equal(t, 1.8, *ch.Pressure)

	ch = Normalize(map[string]interface{}{
		"pressure":    2.1,
		"pressure_in": 5.0,
	})
	require.NotNil(t, ch.Pressure)
	assert.Equal(t, 2.1, *ch.Pressure)
}

func Test_Normalize_SingleKeyChannels(t *testing.T) {
	ch := Normalize(map[string]interface{}{
		"humidity": 71.5,
		"battery":  88.0,
	})
	require.NotNil(t, ch.Humidity)
	require.NotNil(t, ch.Battery)
	assert.Equal(t, 71.5, *ch.Humidity)
	assert.Equal(t, 88.0, *ch.Battery)

	// only the exact keys count
	ch = Normalize(map[string]interface{}{
		"humidity_pct":  71.5,
		"battery_level": 88.0,
	})
	assert.Nil(t, ch.Humidity)
	assert.Nil(t, ch.Battery)
}

func Test_AsNumber_Coercion(t *testing.T) {
	cases := []struct {
		name     string
		value    interface{}
		expected *float64
	}{
		{"float64", 3.7, f(3.7)},
		{"int", 42, f(42)},
		{"int64", int64(7), f(7)},
		{"json number", json.Number("2.25"), f(2.25)},
		{"numeric string", "19.5", f(19.5)},
		{"non-numeric string", "off", nil},
		{"bool", true, nil},
		{"nil", nil, nil},
		{"map", map[string]interface{}{"v": 1}, nil},
		{"NaN", math.NaN(), nil},
		{"positive infinity", math.Inf(1), nil},
		{"negative infinity", math.Inf(-1), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := asNumber(tc.value)
			if tc.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.expected, *got)
		})
	}
}

func f(v float64) *float64 { return &v }
