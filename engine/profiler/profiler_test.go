package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOnInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithInterval(time.Second), WithClock(clock.now))

	for i := 0; i < 49; i++ {
		clock.advance(20 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("tick %d reported before the interval elapsed", i)
		}
	}
	clock.advance(20 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("tick 50 should report")
	}

	got := p.Last().FPS
	if got < 49.9 || got > 50.1 {
		t.Errorf("FPS = %v, want 50", got)
	}
	if p.Last().SysMB <= 0 {
		t.Error("SysMB should be positive")
	}

	clock.advance(20 * time.Millisecond)
	if p.Tick() {
		t.Error("the frame counter should restart after a report")
	}
}

func TestBuilderDefaults(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithClock(nil))
	if p.updateInterval != time.Second {
		t.Errorf("updateInterval = %v, want 1s", p.updateInterval)
	}
	if p.now == nil {
		t.Error("clock should default to time.Now")
	}
}
