package quality

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/scheduler"
)

// TaskRecompute is the asynq task type for the daily quality-score recompute
// (spec §4.5 "Scheduled recompute", spec §9 "Scheduled maintenance").
const TaskRecompute = "quality:recompute"

// RegisterSchedule wires RecomputeAll to the daily cron cadence, grounded on
// the teacher's asyncq registration pattern (internal/common/asyncq.go)
// generalized onto internal/scheduler.Scheduler.
func (e *Engine) RegisterSchedule(s *scheduler.Scheduler, cfg *config.QualityConfig) error {
	s.HandleFunc(TaskRecompute, func(ctx context.Context, _ *asynq.Task) error {
		processed, err := e.RecomputeAll(ctx)
		if err != nil {
			logger.Errorf(ctx, "quality recompute task failed: %v", err)
			return err
		}
		logger.Infof(ctx, "quality recompute task processed %d chunks", processed)
		return nil
	})

	cadence := cfg.RecomputeCron
	if cadence == "" {
		cadence = "0 3 * * *"
	}
	return s.EveryCron(cadence, TaskRecompute)
}
