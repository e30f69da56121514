package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2026, 8, 24, 10, 30, 0, 123456789, time.UTC)

	parsed, err := ParseTimestamp(FormatTimestamp(original))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(original), "nanosecond precision must survive the round trip")
}

func TestParseTimestampRejectsMalformed(t *testing.T) {
	_, err := ParseTimestamp("not a timestamp")
	assert.Error(t, err)
}
