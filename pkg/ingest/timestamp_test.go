package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseTimestamp(t *testing.T) {
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		ts       string
		expected time.Time
	}{
		{
			name:     "rfc3339",
			ts:       "2026-02-28T09:30:00Z",
			expected: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "rfc3339 with fraction",
			ts:       "2026-02-28T09:30:00.250Z",
			expected: time.Date(2026, 2, 28, 9, 30, 0, 250000000, time.UTC),
		},
		{
			name:     "no zone",
			ts:       "2026-02-28T09:30:00",
			expected: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			ts:       "2026-02-28",
			expected: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "empty falls back to receipt time",
			ts:       "",
			expected: receivedAt,
		},
		{
			name:     "garbage falls back to receipt time",
			ts:       "yesterday-ish",
			expected: receivedAt,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTimestamp(tc.ts, receivedAt)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}
