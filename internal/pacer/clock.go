package pacer

import (
	"context"
	"math/rand/v2"
	"time"
)

// Clock is the time source of the loop. Every suspension goes through Sleep
// so it can be cancelled and faked.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() then.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	minJitter = 1 * time.Second
	maxJitter = 30 * time.Second
)

// Jitter returns a uniformly random whole number of seconds in [1s, 30s].
func Jitter() time.Duration {
	n := int64((maxJitter - minJitter) / time.Second)
	return minJitter + time.Duration(rand.Int64N(n+1))*time.Second
}
