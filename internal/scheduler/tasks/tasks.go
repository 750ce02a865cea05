// Package tasks registers the maintenance tasks with the scheduler.
package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/health"
	"github.com/jhomen368/overseerr-mcp/internal/scheduler"
)

// Task IDs.
const (
	CachePruneID  = "cache-prune"
	CacheStatsID  = "cache-stats"
	HealthCheckID = "upstream-health"
)

// UpstreamHealthID is the health item for the downstream service.
const UpstreamHealthID = "overseerr"

// RegisterCacheTasks schedules expired entry pruning and periodic stats
// logging.
func RegisterCacheTasks(sched *scheduler.Scheduler, c *cache.Cache, cfg config.SchedulerConfig, logger zerolog.Logger) error {
	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:          CachePruneID,
		Name:        "Prune Cache",
		Description: "Removes expired lookup cache entries",
		Cron:        cfg.CachePruneCron,
		Func: func(context.Context) error {
			if removed := c.Prune(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("Pruned expired cache entries")
			}
			return nil
		},
	}); err != nil {
		return err
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CacheStatsID,
		Name:        "Log Cache Stats",
		Description: "Logs cache size and hit rates",
		Cron:        cfg.CacheStatsCron,
		Func: func(context.Context) error {
			st := c.Stats()
			logger.Info().
				Bool("enabled", st.Enabled).
				Int("size", st.Size).
				Int("maxSize", st.MaxSize).
				Uint64("hits", st.Hits).
				Uint64("misses", st.Misses).
				Float64("hitRate", st.HitRate).
				Msg("Cache stats")
			return nil
		},
	})
}

// RegisterHealthTask schedules the upstream probe and runs it on start.
func RegisterHealthTask(sched *scheduler.Scheduler, svc *health.Service, cfg config.SchedulerConfig, probe health.Probe) error {
	svc.Register(UpstreamHealthID, "Overseerr")
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HealthCheckID,
		Name:        "Check Overseerr",
		Description: "Checks that the Overseerr API is reachable",
		Cron:        cfg.HealthCheckCron,
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			return svc.Check(ctx, UpstreamHealthID, probe)
		},
	})
}
