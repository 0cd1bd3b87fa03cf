package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRangeCoversWholeEndDay(t *testing.T) {
	r, err := ParseDateRange("2024-03-01", "2024-03-01", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC), r.End)

	lateEvening := time.Date(2024, 3, 1, 23, 59, 59, 500, time.UTC)
	assert.False(t, lateEvening.After(r.End))
}

func TestParseDateRangeRejectsBadInput(t *testing.T) {
	_, err := ParseDateRange("yesterday", "2024-03-01", time.UTC)
	assert.Error(t, err)

	_, err = ParseDateRange("2024-03-05", "2024-03-01", time.UTC)
	assert.Error(t, err)
}

func TestParseDateRangeAcceptsTimestamps(t *testing.T) {
	r, err := ParseDateRange("2024-03-01T10:00:00Z", "2024-03-02T01:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Start.Hour())
	assert.Equal(t, 2, r.End.Day())
	assert.Equal(t, 23, r.End.Hour())
}
