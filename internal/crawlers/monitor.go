package crawlers

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// ResourceMonitor samples process and system load in the background. A long
// browser crawl leaks memory slowly; the heartbeat log surfaces the trend so
// a degrading run is visible before it falls over.
type ResourceMonitor struct {
	mu       sync.RWMutex
	snapshot ResourceSnapshot

	cancel    context.CancelFunc
	isRunning bool
}

// ResourceSnapshot is one sampled observation.
type ResourceSnapshot struct {
	// HeapAllocMB is this process's live heap in megabytes.
	HeapAllocMB float64

	// SystemUsedPercent is system-wide memory utilization.
	SystemUsedPercent float64

	// CPUPercent is system-wide CPU utilization over the sample window.
	CPUPercent float64

	// Pressure classifies the snapshot: normal, elevated or critical.
	Pressure string

	SampledAt time.Time
}

// NewResourceMonitor creates a stopped monitor.
func NewResourceMonitor() *ResourceMonitor {
	return &ResourceMonitor{}
}

// Start begins background sampling. Idempotent.
func (rm *ResourceMonitor) Start(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancel = cancel
	rm.isRunning = true

	go rm.loop(ctx, interval)
}

// Stop ends background sampling. Idempotent.
func (rm *ResourceMonitor) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if !rm.isRunning {
		return
	}
	rm.cancel()
	rm.isRunning = false
}

// Snapshot returns the most recent observation. A zero-valued snapshot means
// no sample has completed yet.
func (rm *ResourceMonitor) Snapshot() ResourceSnapshot {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.snapshot
}

func (rm *ResourceMonitor) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rm.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.sample()
		}
	}
}

func (rm *ResourceMonitor) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := ResourceSnapshot{
		HeapAllocMB: float64(memStats.HeapAlloc) / (1024 * 1024),
		SampledAt:   time.Now(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.SystemUsedPercent = vm.UsedPercent
	} else {
		utils.Debugf("memory sample failed: %v", err)
	}

	// cpu.Percent(0, false) compares against the previous call, so the
	// first sample reports zero.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	switch {
	case snap.SystemUsedPercent >= 95:
		snap.Pressure = "critical"
	case snap.SystemUsedPercent >= 85:
		snap.Pressure = "elevated"
	default:
		snap.Pressure = "normal"
	}

	rm.mu.Lock()
	rm.snapshot = snap
	rm.mu.Unlock()
}
