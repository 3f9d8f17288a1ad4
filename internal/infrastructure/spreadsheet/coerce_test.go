package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"TRUE", true, false},
		{"Yes", true, false},
		{"y", true, false},
		{"1", true, false},
		{" No ", false, false},
		{"0", false, false},
		{"", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBool(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{" 42 ", 42, false},
		{"42.0", 42, false},
		{"-3", -3, false},
		{"4.2", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInt(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 16.5 ")
	require.NoError(t, err)
	assert.Equal(t, "16.5", d.String())

	_, err = ParseDecimal("sixteen")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2026-03-15", "15/03/2026"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2026, d.Year())
		assert.Equal(t, 15, d.Day())
	}

	_, err := ParseDate("15th March")
	assert.Error(t, err)
}
