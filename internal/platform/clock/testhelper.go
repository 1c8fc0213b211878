package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Scheduler for unit tests. Ticks and delayed
// actions run synchronously on the goroutine that calls Tick or Fire.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	tickers map[int]func()
	timers  map[int]fakeTimer
	stops   int
}

type fakeTimer struct {
	delay time.Duration
	fn    func()
}

// NewFake returns a Fake whose Now starts at now. For unit tests only.
func NewFake(now time.Time) *Fake {
	return &Fake{
		now:     now,
		tickers: make(map[int]func()),
		timers:  make(map[int]fakeTimer),
	}
}

// Every registers fn as an active tick source.
func (f *Fake) Every(interval time.Duration, fn func()) Stop {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.tickers[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.tickers, id)
			f.stops++
		})
	}
}

// After registers fn as a pending delayed action.
func (f *Fake) After(delay time.Duration, fn func()) Stop {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.timers[id] = fakeTimer{delay: delay, fn: fn}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.timers, id)
	}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Tick advances Now by one second and invokes every active tick source once.
func (f *Fake) Tick() {
	f.mu.Lock()
	f.now = f.now.Add(time.Second)
	fns := make([]func(), 0, len(f.tickers))
	for _, fn := range f.tickers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ActiveTickers returns the number of tick sources not yet stopped.
func (f *Fake) ActiveTickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// Stops returns how many tick sources have been stopped.
func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// Pending returns the delays of delayed actions that have not fired.
func (f *Fake) Pending() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, 0, len(f.timers))
	for _, t := range f.timers {
		out = append(out, t.delay)
	}
	return out
}

// Fire runs and removes every pending delayed action.
func (f *Fake) Fire() {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.timers))
	for id, t := range f.timers {
		fns = append(fns, t.fn)
		delete(f.timers, id)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
