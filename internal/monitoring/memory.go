package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// MemoryStats is one runtime memory sample.
type MemoryStats struct {
	Alloc        uint64    `json:"alloc_bytes"`
	Sys          uint64    `json:"sys_bytes"`
	HeapAlloc    uint64    `json:"heap_alloc_bytes"`
	HeapSys      uint64    `json:"heap_sys_bytes"`
	HeapInuse    uint64    `json:"heap_inuse_bytes"`
	HeapObjects  uint64    `json:"heap_objects"`
	PauseTotalNs uint64    `json:"gc_pause_total_ns"`
	NumGC        uint32    `json:"num_gc"`
	NumGoroutine int       `json:"num_goroutine"`
	Timestamp    time.Time `json:"timestamp"`
}

// MemoryMonitor samples runtime memory into Metrics. Recordings are held in
// memory, so heap growth is the first sign of leaked captures.
type MemoryMonitor struct {
	interval   time.Duration
	metrics    *Metrics
	logger     *Logger
	maxHistory int

	mutex   sync.RWMutex
	latest  MemoryStats
	history []MemoryStats
}

// NewMemoryMonitor creates a new memory monitor
func NewMemoryMonitor(interval time.Duration, metrics *Metrics, logger *Logger) *MemoryMonitor {
	return &MemoryMonitor{
		interval:   interval,
		metrics:    metrics,
		logger:     logger,
		maxHistory: 60,
	}
}

// Run samples until ctx is cancelled.
func (mm *MemoryMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	mm.Collect()
	for samples := 1; ; samples++ {
		select {
		case <-ticker.C:
			stats := mm.Collect()
			if samples%mm.maxHistory == 0 {
				mm.logMemoryStats(stats)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Collect takes one sample and records it.
func (mm *MemoryMonitor) Collect() MemoryStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := MemoryStats{
		Alloc:        memStats.Alloc,
		Sys:          memStats.Sys,
		HeapAlloc:    memStats.HeapAlloc,
		HeapSys:      memStats.HeapSys,
		HeapInuse:    memStats.HeapInuse,
		HeapObjects:  memStats.HeapObjects,
		PauseTotalNs: memStats.PauseTotalNs,
		NumGC:        memStats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		Timestamp:    time.Now(),
	}

	mm.mutex.Lock()
	mm.latest = stats
	mm.history = append(mm.history, stats)
	if len(mm.history) > mm.maxHistory {
		mm.history = mm.history[1:]
	}
	mm.mutex.Unlock()

	if mm.metrics != nil {
		mm.metrics.RecordGCMetrics(int64(stats.NumGC), int64(stats.PauseTotalNs), int64(stats.HeapAlloc), int64(stats.HeapSys))
	}
	return stats
}

func (mm *MemoryMonitor) logMemoryStats(stats MemoryStats) {
	if mm.logger == nil {
		return
	}
	mm.logger.SystemLogger("memory_stats", fmt.Sprintf(
		"alloc:%dMB sys:%dMB heap:%dMB/%dMB gc:%d goroutines:%d",
		stats.Alloc/(1024*1024),
		stats.Sys/(1024*1024),
		stats.HeapInuse/(1024*1024),
		stats.HeapSys/(1024*1024),
		stats.NumGC,
		stats.NumGoroutine,
	))
}

// Latest returns the most recent sample.
func (mm *MemoryMonitor) Latest() MemoryStats {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()
	return mm.latest
}

// History returns a copy of the retained samples, oldest first.
func (mm *MemoryMonitor) History() []MemoryStats {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	out := make([]MemoryStats, len(mm.history))
	copy(out, mm.history)
	return out
}
