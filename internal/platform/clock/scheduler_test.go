package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestReal_EveryStops(t *testing.T) {
	var n atomic.Int32
	stop := Real{}.Every(5*time.Millisecond, func() { n.Add(1) })
	time.Sleep(30 * time.Millisecond)
	stop()
	stop() // second call is a no-op
	after := n.Load()
	if after == 0 {
		t.Fatal("ticker never fired")
	}
	// one call past the stop check may still land
	time.Sleep(20 * time.Millisecond)
	settled := n.Load()
	if settled-after > 1 {
		t.Errorf("ticks after stop: got %d, want at most %d", settled, after+1)
	}
	time.Sleep(30 * time.Millisecond)
	if n.Load() != settled {
		t.Errorf("ticker kept running after stop: %d -> %d", settled, n.Load())
	}
}

func TestReal_EveryStopFromInsideFn(t *testing.T) {
	var n atomic.Int32
	var stop Stop
	ready := make(chan struct{})
	stopped := make(chan struct{})
	stop = Real{}.Every(5*time.Millisecond, func() {
		<-ready
		if n.Add(1) == 2 {
			stop()
			close(stopped)
		}
	})
	close(ready)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop called from fn did not return")
	}
	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestReal_AfterCanBeStopped(t *testing.T) {
	var fired atomic.Bool
	stop := Real{}.After(20*time.Millisecond, func() { fired.Store(true) })
	stop()
	time.Sleep(40 * time.Millisecond)
	if fired.Load() {
		t.Error("After fired despite Stop")
	}
}

func TestFake_TickAndStop(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	var a, b int
	stopA := f.Every(time.Second, func() { a++ })
	f.Every(time.Second, func() { b++ })
	f.Tick()
	stopA()
	f.Tick()
	if a != 1 || b != 2 {
		t.Errorf("a=%d b=%d, want 1 and 2", a, b)
	}
	if f.ActiveTickers() != 1 {
		t.Errorf("ActiveTickers = %d, want 1", f.ActiveTickers())
	}
	if got := f.Now(); !got.Equal(start.Add(2 * time.Second)) {
		t.Errorf("Now = %v, want start+2s", got)
	}
}

func TestFake_AfterFire(t *testing.T) {
	f := NewFake(time.Now())
	fired := false
	f.After(3*time.Second, func() { fired = true })
	if p := f.Pending(); len(p) != 1 || p[0] != 3*time.Second {
		t.Fatalf("Pending = %v, want [3s]", p)
	}
	f.Fire()
	if !fired {
		t.Error("Fire did not run the delayed action")
	}
	if len(f.Pending()) != 0 {
		t.Error("Pending should be empty after Fire")
	}
}
