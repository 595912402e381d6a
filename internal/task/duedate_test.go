package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDueDate(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "today",
			raw:  "today",
			want: time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "now is an alias for today",
			raw:  "now",
			want: time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "tomorrow",
			raw:  "Tomorrow",
			want: time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "tmr shorthand",
			raw:  "tmr",
			want: time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "next week",
			raw:  "sometime next week",
			want: time.Date(2026, 3, 21, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "next month",
			raw:  "next month",
			want: time.Date(2026, 4, 13, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "date only promotes to end of day",
			raw:  "2026-06-01",
			want: time.Date(2026, 6, 1, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "full timestamp passes through",
			raw:  "2026-06-01T09:15:00",
			want: time.Date(2026, 6, 1, 9, 15, 0, 0, time.UTC),
		},
		{
			name: "rfc3339 passes through",
			raw:  "2026-06-01T09:15:00Z",
			want: time.Date(2026, 6, 1, 9, 15, 0, 0, time.UTC),
		},
		{
			name: "unparsable falls back to end of tomorrow",
			raw:  "whenever you get a chance",
			want: time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDueDate(tt.raw, now)
			require.NotNil(t, got)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNormalizeDueDateEmpty(t *testing.T) {
	assert.Nil(t, NormalizeDueDate("", time.Now()))
	assert.Nil(t, NormalizeDueDate("   ", time.Now()))
}
