package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRate(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected float64
		wantErr  bool
	}{
		{name: "integer rate", raw: "50", expected: 50},
		{name: "decimal rate", raw: "12.5", expected: 12.5},
		{name: "surrounding whitespace", raw: "  7.25  ", expected: 7.25},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := ParseRate(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, rate)
		})
	}
}

func TestDisplayRate(t *testing.T) {
	assert.Equal(t, 50.0, DisplayRate("50"))
	assert.Equal(t, 0.0, DisplayRate(""))
	assert.Equal(t, 0.0, DisplayRate("garbage"))
}

func TestCost(t *testing.T) {
	assert.InDelta(t, 50.0, Cost(3600, 50), 1e-9)
	assert.InDelta(t, 25.0, Cost(1800, 50), 1e-9)
	assert.InDelta(t, 0.0, Cost(0, 50), 1e-9)
	assert.InDelta(t, 10.25, Cost(3600, 10.25), 1e-9)
}
