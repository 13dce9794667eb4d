package article

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-03-05T10:00:00+05:30", "2024-03-05 10:00:00+05:30"},
		{"2024-03-05T10:00:00Z", "2024-03-05 10:00:00+00:00"},
		{"2024-03-05T10:00:00", "2024-03-05 10:00:00+00:00"},
		{"2024-03-05", "2024-03-05 00:00:00+00:00"},
		{"  Mar 5, 2024 ", "2024-03-05 00:00:00+00:00"},
		{"5 March 2024", "2024-03-05 00:00:00+00:00"},
		{"3/25/2024", "2024-03-25 00:00:00+00:00"},
		{"25/3/2024", "2024-03-25 00:00:00+00:00"},
		{"2024-03-05 10:00:00+05:30", "2024-03-05 10:00:00+05:30"},
		{"2024-03-05T10:20:30.000+05:30", "2024-03-05 10:20:30+05:30"},
		{"2024-03-05T10:20:30.123456Z", "2024-03-05 10:20:30+00:00"},
		{"2024-03-05T10:00:00+05:30 (updated)", "2024-03-05 10:00:00+05:30"},
		{"Updated yesterday", "Updated yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.raw))
		})
	}
}

func TestWithinRecencyWindow(t *testing.T) {
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	keep, reason := WithinRecencyWindow("2024-06-01", cutoff)
	assert.True(t, keep)
	assert.Empty(t, reason)

	keep, _ = WithinRecencyWindow("2023-01-01 00:00:00+00:00", cutoff)
	assert.True(t, keep, "cutoff itself is inside the window")

	keep, reason = WithinRecencyWindow("June 1, 2020", cutoff)
	assert.False(t, keep)
	assert.Equal(t, "date 2020-06-01 older than cutoff 2023-01-01", reason)

	keep, reason = WithinRecencyWindow("2019-03-05T10:20:30.000+00:00", cutoff)
	assert.False(t, keep)
	assert.Equal(t, "date 2019-03-05 older than cutoff 2023-01-01", reason)

	keep, _ = WithinRecencyWindow("", cutoff)
	assert.True(t, keep)
	keep, _ = WithinRecencyWindow("a while ago", cutoff)
	assert.True(t, keep)
}
