package lifecycle

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/scheduler"
)

// TaskArchival is the asynq task type for the daily archival pass
// (spec §4.6, spec §9 "Scheduled maintenance").
const TaskArchival = "lifecycle:archival"

// RegisterSchedule wires RunArchivalPipeline to the daily cron cadence.
func (m *Manager) RegisterSchedule(s *scheduler.Scheduler, cfg *config.LifecycleConfig) error {
	s.HandleFunc(TaskArchival, func(ctx context.Context, _ *asynq.Task) error {
		counters, err := m.RunArchivalPipeline(ctx)
		if err != nil {
			logger.Errorf(ctx, "archival task failed: %v", err)
			return err
		}
		logger.Infof(ctx, "archival task: cold=%d deprecated=%d restored=%d hard=%d",
			counters.ColdArchived, counters.Deprecated, counters.Restored, counters.HardArchived)
		return nil
	})

	cadence := cfg.ArchivalCron
	if cadence == "" {
		cadence = "0 4 * * *"
	}
	return s.EveryCron(cadence, TaskArchival)
}
