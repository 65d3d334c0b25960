package domain

import "time"

// Clock abstracts time so aggregates and number generators can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns a Clock backed by the wall clock (UTC)
func SystemClock() Clock {
	return systemClock{}
}

// FixedClock is a Clock pinned to a single instant, for tests
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}
