package config

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultPruneInterval = 5 * time.Minute

var (
	pruneInterval          atomic.Value
	pruneIntervalListeners []chan time.Duration
	listenersMu            sync.Mutex
)

func init() {
	pruneInterval.Store(defaultPruneInterval)
}

type Timer struct {
	Days    uint32 `json:"days"`
	Hours   uint32 `json:"hours"`
	Minutes uint32 `json:"minutes"`
	Seconds uint32 `json:"seconds"`
}

func CalculateBetweenTime(timer Timer) time.Duration {
	intervalMs := uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000

	// Enforce minimum interval
	minInterval := uint64(1000)
	if intervalMs < minInterval {
		intervalMs = minInterval
	}

	return time.Duration(intervalMs) * time.Millisecond
}

func GetPruneInterval() time.Duration {
	return pruneInterval.Load().(time.Duration)
}

// PruneIntervalUpdates returns a channel that receives the current interval
// immediately and every subsequent change, so the maintenance loop can retune
// its ticker without restarting.
func PruneIntervalUpdates() <-chan time.Duration {
	ch := make(chan time.Duration, 1)
	listenersMu.Lock()
	pruneIntervalListeners = append(pruneIntervalListeners, ch)
	listenersMu.Unlock()

	ch <- GetPruneInterval()
	return ch
}

func setPruneInterval(interval time.Duration) {
	if interval <= 0 {
		interval = defaultPruneInterval
	}

	current := GetPruneInterval()
	if current == interval {
		return
	}

	pruneInterval.Store(interval)

	listenersMu.Lock()
	defer listenersMu.Unlock()
	for _, ch := range pruneIntervalListeners {
		select {
		case ch <- interval:
		default:
		}
	}
}
