package monitoring

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// StatUpdater periodically logs host resource usage so operators can spot
// pressure from image processing and upload bursts.
type StatUpdater struct {
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	return &StatUpdater{interval: interval, done: make(chan bool)}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.logStats()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.logStats()
		}
	}
}

// Stop halts the updater.
func (su *StatUpdater) Stop() {
	su.done <- true
}

func (su *StatUpdater) logStats() {
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read CPU usage")
		return
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read memory usage")
		return
	}

	var cpuPct float64
	if len(percentages) > 0 {
		cpuPct = percentages[0]
	}

	log.Info().
		Float64("cpu_percent", cpuPct).
		Float64("mem_percent", vm.UsedPercent).
		Uint64("mem_used_mb", vm.Used/1024/1024).
		Msg("Host resource usage")
}
