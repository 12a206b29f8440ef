package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginTracker_BlocksAfterMaxFailures(t *testing.T) {
	tracker := NewLoginTracker(5, 15*time.Minute)

	for i := 0; i < 4; i++ {
		tracker.RecordFailure("10.0.0.1")
		assert.True(t, tracker.Allowed("10.0.0.1"), "failure %d should not block yet", i+1)
	}

	tracker.RecordFailure("10.0.0.1")
	assert.False(t, tracker.Allowed("10.0.0.1"), "5th failure blocks further attempts")
}

func TestLoginTracker_IdentifiersAreIndependent(t *testing.T) {
	tracker := NewLoginTracker(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("ip:10.0.0.1")
	}

	assert.False(t, tracker.Allowed("ip:10.0.0.1"))
	assert.True(t, tracker.Allowed("email:alice@example.co.uk"))
}

func TestLoginTracker_WholeCounterResetsAfterIdleWindow(t *testing.T) {
	tracker := NewLoginTracker(5, 15*time.Minute)
	start := time.Now()
	tracker.now = func() time.Time { return start }

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("10.0.0.1")
	}
	assert.False(t, tracker.Allowed("10.0.0.1"))

	tracker.now = func() time.Time { return start.Add(15*time.Minute + time.Second) }
	assert.True(t, tracker.Allowed("10.0.0.1"), "counter resets wholesale after the idle window")
}

func TestLoginTracker_ClearOnSuccess(t *testing.T) {
	tracker := NewLoginTracker(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("10.0.0.1")
	}
	assert.False(t, tracker.Allowed("10.0.0.1"))

	tracker.Clear("10.0.0.1")
	assert.True(t, tracker.Allowed("10.0.0.1"))
}
