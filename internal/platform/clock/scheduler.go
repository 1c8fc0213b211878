// Package clock schedules repeating ticks and delayed actions behind an interface so flows can be driven by a fake in tests.
package clock

import (
	"sync"
	"time"
)

// Stop cancels a scheduled action. Safe to call more than once.
type Stop func()

// Scheduler runs fn every interval or once after a delay.
type Scheduler interface {
	// Every calls fn once per interval until the returned Stop is called. A call that
	// already started may finish after Stop returns; no further call follows it.
	Every(interval time.Duration, fn func()) Stop
	// After calls fn once after delay unless the returned Stop is called first.
	After(delay time.Duration, fn func()) Stop
	// Now returns the current time.
	Now() time.Time
}

// Real is a Scheduler backed by time.Ticker and time.AfterFunc.
type Real struct{}

// Every starts a ticker goroutine. Stop halts the ticker and ends the goroutine. Stop does
// not wait for a running fn, so it may be called from inside fn.
func (Real) Every(interval time.Duration, fn func()) Stop {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				// select picks at random when both are ready.
				select {
				case <-done:
					return
				default:
				}
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// After wraps time.AfterFunc.
func (Real) After(delay time.Duration, fn func()) Stop {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}
