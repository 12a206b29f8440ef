package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// timeNow is swapped in tests to control session expiry checks
var timeNow = time.Now

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	BaseDelayMs    int
	RandomDelayMs  int
	DelayOnSuccess bool
}

// TimingDelay equalizes the observable duration of authentication failures
// so "user not found" and "password incorrect" are indistinguishable
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config, sleep: time.Sleep}
}

// Wait applies the delay after a failed operation; successes pass through
// unless DelayOnSuccess is set
func (td *TimingDelay) Wait(success bool) {
	if success && !td.config.DelayOnSuccess {
		return
	}

	baseDelay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	var randomDelay time.Duration
	if td.config.RandomDelayMs > 0 {
		if randomValue, err := cryptoRandIntn(td.config.RandomDelayMs); err == nil {
			randomDelay = time.Duration(randomValue) * time.Millisecond
		}
	}

	td.sleep(baseDelay + randomDelay)
}

// cryptoRandIntn returns a secure random number in [0, max).
// crypto/rand, not math/rand: the jitter must not be predictable.
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}
