package ingestion

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/scheduler"
)

// TaskSyncSpaces is the asynq task type for the hourly wiki sync
// (spec §4.2 "sync_spaces", spec §9 "Scheduled maintenance").
const TaskSyncSpaces = "ingestion:sync_spaces"

// RegisterSchedule wires SyncSpaces to the hourly cron cadence, grounded on
// the teacher's asyncq registration pattern (internal/common/asyncq.go)
// generalized onto internal/scheduler.Scheduler.
func (p *Pipeline) RegisterSchedule(s *scheduler.Scheduler, cfg *config.IngestionConfig) error {
	s.HandleFunc(TaskSyncSpaces, func(ctx context.Context, _ *asynq.Task) error {
		counters := p.SyncSpaces(ctx, cfg.Spaces, false, false)
		logger.Infof(ctx, "sync_spaces task: new=%d updated=%d skipped=%d errors=%d",
			counters.New, counters.Updated, counters.Skipped, counters.Errors)
		return nil
	})

	cadence := cfg.SyncCron
	if cadence == "" {
		cadence = "0 * * * *"
	}
	return s.EveryCron(cadence, TaskSyncSpaces)
}
