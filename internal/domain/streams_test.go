package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStreams(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   float64
		wantOK bool
	}{
		{"plain decimal", "3.21", 3.21, true},
		{"thousands with decimal", "1,234.5", 1234.5, true},
		{"grouped integer", "4,321,000", 4321000, true},
		{"single group", "1,234", 1234, true},
		{"decimal comma", "3,2", 3.2, true},
		{"decimal comma two digits", "2,95", 2.95, true},
		{"surrounding space", "  4.1 ", 4.1, true},
		{"not a number", "N/A", 0, false},
		{"dash", "—", 0, false},
		{"empty", "", 0, false},
		{"NaN literal", "NaN", 0, false},
		{"infinity", "Inf", 0, false},
		{"trailing footnote", "3.2[a]", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStreams(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
