package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo_Hourly(t *testing.T) {
	ref := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	info, err := GetTriggerInfo("0 0 * * * *", ref)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), info.Next)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC), info.Last)
	assert.Equal(t, 30*time.Minute, info.TimeSinceLast)
	assert.Equal(t, 30*time.Minute, info.TimeUntilNext)
}

func TestGetTriggerInfo_InvalidExpression(t *testing.T) {
	_, err := GetTriggerInfo("not a cron expr", time.Now())
	assert.Error(t, err)
}
