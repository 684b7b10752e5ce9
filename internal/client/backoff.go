package client

import (
	"math/rand/v2"
	"time"
)

// Backoff computes bounded exponential retry delays. The first delay is
// Base; each later one is multiplied by Multiplier until it reaches Max.
type Backoff struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64

	attempt int
}

// Next returns the delay before the next retry.
func (b *Backoff) Next() time.Duration {
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	factor := 1.0
	for i := 0; i < b.attempt && (b.Max <= 0 || float64(b.Base)*factor < float64(b.Max)); i++ {
		factor *= multiplier
	}
	b.attempt++

	delay := time.Duration(float64(b.Base) * factor)
	if b.Max > 0 && (delay > b.Max || delay <= 0) {
		delay = b.Max
	}

	if b.Jitter > 0 {
		jitter := float64(delay) * b.Jitter * (rand.Float64()*2 - 1)
		delay += time.Duration(jitter)
	}
	return delay
}

// Reset starts over from Base.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempts is the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempt
}
