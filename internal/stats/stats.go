// Package stats tracks runtime statistics for Touchline.
package stats

import (
	"runtime"
	"sync"
	"time"
)

// Collector accumulates turn-level counters. Safe for concurrent use.
type Collector struct {
	startTime time.Time

	mu             sync.Mutex
	turnCount      int64
	groundedCount  int64
	searchFallback int64
	errorCount     int64
	totalDuration  int64 // nanoseconds
	perAgent       map[string]int64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		perAgent:  make(map[string]int64),
	}
}

// Stats represents runtime statistics at a point in time.
type Stats struct {
	// System resources
	MemoryStats MemoryStats `json:"memory"`
	Goroutines  int         `json:"goroutines"`
	Uptime      string      `json:"uptime"`

	// Turn metrics
	TurnCount      int64            `json:"turn_count"`
	GroundedCount  int64            `json:"grounded_count"`
	SearchFallback int64            `json:"search_fallback_count"`
	ErrorCount     int64            `json:"error_count"`
	AvgLatencyMs   float64          `json:"avg_latency_ms"`
	TurnsByAgent   map[string]int64 `json:"turns_by_agent"`

	// Database info
	DBSize   int64   `json:"db_size_bytes"`
	DBSizeMB float64 `json:"db_size_mb"`
	DBPath   string  `json:"db_path,omitempty"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	HeapAlloc   int64   `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	HeapSys     int64   `json:"heap_sys_bytes"`
	HeapSysMB   float64 `json:"heap_sys_mb"`
	HeapObjects uint64  `json:"heap_objects"`

	NumGC        uint32        `json:"num_gc"`
	GCPauseTotal time.Duration `json:"gc_pause_total"`
}

// Snapshot returns current statistics.
func (c *Collector) Snapshot(dbSize int64, dbPath string) *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()

	avgLatency := float64(0)
	if c.turnCount > 0 {
		avgLatency = float64(c.totalDuration) / float64(c.turnCount) / 1e6
	}

	byAgent := make(map[string]int64, len(c.perAgent))
	for k, v := range c.perAgent {
		byAgent[k] = v
	}

	return &Stats{
		MemoryStats: MemoryStats{
			HeapAlloc:    int64(m.HeapAlloc),
			HeapAllocMB:  bytesToMB(int64(m.HeapAlloc)),
			HeapSys:      int64(m.HeapSys),
			HeapSysMB:    bytesToMB(int64(m.HeapSys)),
			HeapObjects:  m.HeapObjects,
			NumGC:        m.NumGC,
			GCPauseTotal: time.Duration(m.PauseTotalNs),
		},
		Goroutines:     runtime.NumGoroutine(),
		Uptime:         time.Since(c.startTime).String(),
		TurnCount:      c.turnCount,
		GroundedCount:  c.groundedCount,
		SearchFallback: c.searchFallback,
		ErrorCount:     c.errorCount,
		AvgLatencyMs:   avgLatency,
		TurnsByAgent:   byAgent,
		DBSize:         dbSize,
		DBSizeMB:       bytesToMB(dbSize),
		DBPath:         dbPath,
	}
}

// RecordTurn records a completed chat turn handled by the given agent.
func (c *Collector) RecordTurn(agent string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnCount++
	c.totalDuration += duration.Nanoseconds()
	c.perAgent[agent]++
}

// RecordGrounded records a turn whose answer needed web augmentation.
func (c *Collector) RecordGrounded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groundedCount++
}

// RecordSearchFallback records a grounding attempt that fell back to the
// ungrounded answer because search produced nothing.
func (c *Collector) RecordSearchFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchFallback++
}

// RecordError records a failed turn.
func (c *Collector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
}

// StartTime returns when the collector started.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// bytesToMB converts bytes to megabytes.
func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
