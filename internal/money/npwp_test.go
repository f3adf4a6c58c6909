package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidNPWP(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"012345678901234", true},
		{"01.234.567.8-901.234", true},
		{"01 234 567 8 901 234", true},
		{"0123456789012345", false}, // 16 digits
		{"01234567890123", false},   // 14 digits
		{"", false},
		{"abcdefghijklmno", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidNPWP(tt.in), "input %q", tt.in)
	}
}

func TestFormatNPWP(t *testing.T) {
	assert.Equal(t, "01.234.567.8-901.234", FormatNPWP("012345678901234"))
	// Invalid input passes through untouched.
	assert.Equal(t, "123", FormatNPWP("123"))
}

func TestNPWPFormatStripIdentity(t *testing.T) {
	raw := "987654321012345"
	assert.Equal(t, raw, NormalizeNPWP(FormatNPWP(raw)))
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"+6281234567890", true},
		{"6281234567890", true},
		{"081234567890", true},
		{"0812345678", true},
		{"08123", false},            // too short
		{"1234567890", false},       // no Indonesian prefix
		{"+62812345678901234", false}, // too long
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidPhone(tt.in), "input %q", tt.in)
	}
}
