package registration

import (
	"fmt"
	"sync"
	"time"

	"silentsignals/client/internal/platform/clock"
)

const tickInterval = time.Second

// countdown drives the PIN expiry display from one repeating tick source.
// Each start bumps gen; ticks from an older generation are dropped.
type countdown struct {
	sched    clock.Scheduler
	total    int
	onTick   func(remaining int)
	onExpire func()

	mu        sync.Mutex
	gen       uint64
	remaining int
	stop      clock.Stop
}

func newCountdown(sched clock.Scheduler, total time.Duration, onTick func(int), onExpire func()) *countdown {
	return &countdown{
		sched:    sched,
		total:    int(total / time.Second),
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// start cancels any running source, resets to the full lifetime and shows it.
func (c *countdown) start() {
	c.mu.Lock()
	c.cancelLocked()
	c.gen++
	gen := c.gen
	c.remaining = c.total
	c.mu.Unlock()

	c.onTick(c.total)

	stop := c.sched.Every(tickInterval, func() { c.tick(gen) })
	c.mu.Lock()
	if c.gen != gen {
		// restarted or cancelled while registering
		c.mu.Unlock()
		stop()
		return
	}
	c.stop = stop
	c.mu.Unlock()
}

func (c *countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining == 0 {
		c.cancelLocked()
	}
	c.mu.Unlock()

	if remaining == 0 {
		c.onExpire()
		return
	}
	c.onTick(remaining)
}

// cancel stops the running source, if any.
func (c *countdown) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.gen++
}

func (c *countdown) cancelLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// secondsLeft returns the remaining seconds of the current countdown.
func (c *countdown) secondsLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// formatRemaining renders seconds as MM:SS.
func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
