package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/kaffee/common"
)

// Stats is one profiler report.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now func() time.Time
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: builder options such as WithInterval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics at Info when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: memory obtained from the OS.
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		NumGC:       p.memStats.NumGC,
	}

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info("profiler",
		"fps", s.FPS,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb_s", s.AllocRateMB,
		"gc", s.NumGC,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	return true
}

// Last returns the most recent report, or the zero Stats before the first one.
func (p *Profiler) Last() Stats {
	return p.last
}
