package utils

import (
	"time"

	"github.com/0xstonegm/txreplay/logger"
)

// threshold for reporting replay progress
const transactionThreshold = 25

// ProgressTracker reports the rate at which preceding transactions of the
// block are replayed. It is purely observational; skipping it changes no
// replay semantics.
type ProgressTracker struct {
	step   int           // step counter
	target int           // total number of steps
	start  time.Time     // start time
	last   time.Time     // last reported time
	rate   float64       // replay rate
	log    logger.Logger // message logger
}

// NewProgressTracker creates a new progress tracker for a block of the
// given transaction count.
func NewProgressTracker(target int, log logger.Logger) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		step:   0,
		target: target,
		start:  now,
		last:   now,
		rate:   0.0,
		log:    log,
	}
}

// PrintProgress reports the replay rate and estimated time after a
// transaction of the block has been processed.
func (pt *ProgressTracker) PrintProgress() {
	pt.step++
	if pt.step%transactionThreshold == 0 {
		now := time.Now()
		currentRate := transactionThreshold / now.Sub(pt.last).Seconds()
		pt.rate = currentRate*0.1 + pt.rate*0.9
		pt.last = now
		progress := float32(pt.step) / float32(pt.target)
		elapsed := int(now.Sub(pt.start).Seconds())
		eta := int(float64(pt.target-pt.step) / pt.rate)
		pt.log.Infof("\t\tReplaying block ... %8.1f tx/s, %5.1f%%, time: %d:%02d, ETA: %d:%02d", currentRate, progress*100, elapsed/60, elapsed%60, eta/60, eta%60)
	}
}
