// Package clock abstracts "now" so engine operations that depend on the
// current calendar day (expiry scans, purchase dates, list generation) are
// deterministic under test.
package clock

import "time"

type Clock interface {
	Now() time.Time
	// Today returns the current calendar day truncated to midnight UTC.
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Fixed returns a clock frozen at t — for tests.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func (c fixedClock) Today() time.Time {
	y, m, d := c.t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
