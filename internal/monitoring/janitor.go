package monitoring

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Janitor removes stale temp uploads left behind by interrupted avatar
// requests. The pipeline deletes its own file on every exit path; the
// janitor only catches files orphaned by process crashes.
type Janitor struct {
	uploadDir string
	schedule  cron.Schedule
	maxAge    time.Duration
	ticker    *time.Ticker
	done      chan bool
	nextRun   time.Time
}

// NewJanitor creates a Janitor from a standard cron expression.
func NewJanitor(uploadDir, cronExpr string, maxAge time.Duration) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Janitor{
		uploadDir: uploadDir,
		schedule:  schedule,
		maxAge:    maxAge,
		done:      make(chan bool),
		nextRun:   schedule.Next(time.Now()),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Str("dir", j.uploadDir).Msg("Starting upload janitor...")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping upload janitor.")
			return
		case <-j.ticker.C:
			now := time.Now()
			if now.After(j.nextRun) {
				j.sweep(now)
				j.nextRun = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

// sweep removes regular files in the upload dir older than maxAge.
func (j *Janitor) sweep(now time.Time) {
	entries, err := os.ReadDir(j.uploadDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", j.uploadDir).Msg("Janitor: failed to read upload dir")
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < j.maxAge {
			continue
		}
		path := filepath.Join(j.uploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Janitor: failed to remove stale upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Janitor: cleaned stale uploads")
	}
}
