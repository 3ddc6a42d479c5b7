package clics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"utc", "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"millis", "2024-05-01T10:00:00.250Z", time.Date(2024, 5, 1, 10, 0, 0, 250e6, time.UTC)},
		{"offset", "2024-05-01T12:30:00.000+02:00", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"compact offset", "2024-05-01T07:00:00-0300", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"hour offset", "2024-05-01T11:00:00+01", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"two digit year", "24-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"old two digit year", "99-05-01T10:00:00Z", time.Date(1999, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseTime("yesterday")
	require.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1:30:00.500", time.Hour + 30*time.Minute + 500*time.Millisecond},
		{"5:00:00", 5 * time.Hour},
		{"5:30", 5*time.Minute + 30*time.Second},
		{"90", 90 * time.Second},
		{"-0:00:05.000", -5 * time.Second},
		{"+0:01:00", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDuration("1h")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1:30:00.500", FormatDuration(time.Hour+30*time.Minute+500*time.Millisecond))
	assert.Equal(t, "-0:00:05.000", FormatDuration(-5*time.Second))
	assert.Equal(t, "2024-05-01T10:00:00.250Z", FormatTime(time.Date(2024, 5, 1, 12, 0, 0, 250e6, time.FixedZone("", 2*3600))))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"#ff8800", "#ff8800"},
		{"ff8800", "#ff8800"},
		{"#f80", "#ff8800"},
		{"#f80c", "#ff8800"},
		{"#ff8800cc", "#ff8800"},
		{"0xff8800", "#ff8800"},
		{"0xccff8800", "#ff8800"},
		{"Red", "#ff0000"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseColor(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"#12", "#gggggg", "0xzz", "not a color"} {
		_, err := parseColor(bad)
		assert.Error(t, err, bad)
	}
}
