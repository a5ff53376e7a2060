package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"lark/internal/config"
	"lark/internal/database"
	"lark/internal/support"
)

const securityPruneLockKey = "lark:leader:security_prune"

// StartSecurityPruneRoutine periodically deletes stale request-tracking rows
// and expired audit entries. The loop runs under a Redis leader lock so only
// one instance prunes at a time.
func StartSecurityPruneRoutine(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	err := support.RunWithLeader(ctx, securityPruneLockKey, support.DefaultLeadershipTTL, func(leaderCtx context.Context) {
		runSecurityPruneLoop(leaderCtx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Security prune routine stopped", "error", err)
	}
}

func runSecurityPruneLoop(ctx context.Context) {
	intervalUpdates := config.PruneIntervalUpdates()
	interval := config.GetPruneInterval()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runSecurityPrune()

	for {
		select {
		case <-ctx.Done():
			return
		case newInterval := <-intervalUpdates:
			if newInterval != interval && newInterval > 0 {
				interval = newInterval
				ticker.Reset(interval)
				log.Debug("Security prune interval updated", "interval", interval)
			}
		case <-ticker.C:
			runSecurityPrune()
		}
	}
}

func runSecurityPrune() {
	cfg := config.GetConfig()

	if removed, err := database.PruneStaleRequests(cfg.TrackingRetention()); err != nil {
		log.Error("Failed to prune request tracking rows", "error", err)
	} else if removed > 0 {
		log.Debug("Pruned stale request tracking rows", "count", removed)
	}

	if removed, err := database.PruneSecurityEvents(cfg.EventRetention()); err != nil {
		log.Error("Failed to prune security events", "error", err)
	} else if removed > 0 {
		log.Debug("Pruned old security events", "count", removed)
	}
}
