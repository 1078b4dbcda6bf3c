// Package scheduler wires the three periodic maintenance jobs (spec §9
// "Scheduled maintenance": hourly sync, daily recompute, daily archival) to
// asynq task dispatch plus robfig/cron cadence, generalizing the teacher's
// global asyncq client/handler registry (internal/common/asyncq.go) into an
// instance the DI container owns instead of a package-level singleton.
package scheduler

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/logger"
)

// Scheduler owns the asynq client/server pair and the cron entries that
// enqueue tasks on a fixed cadence.
type Scheduler struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	cron   *cron.Cron
}

// New builds a Scheduler against the configured Redis-backed task queue.
func New(cfg *config.AsynqConfig) *Scheduler {
	opt := asynq.RedisClientOpt{
		Addr: cfg.Addr, Username: cfg.Username, Password: cfg.Password,
		ReadTimeout: cfg.ReadTimeout, WriteTimeout: cfg.WriteTimeout,
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = 10
	}
	return &Scheduler{
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
		}),
		mux:  asynq.NewServeMux(),
		cron: cron.New(),
	}
}

// HandleFunc registers a task-type handler, mirroring the teacher's
// RegisterHandlerFunc.
func (s *Scheduler) HandleFunc(taskType string, handler func(context.Context, *asynq.Task) error) {
	s.mux.HandleFunc(taskType, handler)
}

// EveryCron enqueues a no-payload task of taskType on the given cron
// expression (e.g. "0 3 * * *" for daily at 03:00).
func (s *Scheduler) EveryCron(spec, taskType string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if _, err := s.client.EnqueueContext(ctx, asynq.NewTask(taskType, nil)); err != nil {
			logger.Errorf(ctx, "scheduler: enqueue %s failed: %v", taskType, err)
		}
	})
	return err
}

// Enqueue dispatches a task immediately (used by internal/commands'
// ingest-doc/create-knowledge handlers so the 3-second chat ack deadline is
// met by enqueuing rather than blocking, spec §9).
func (s *Scheduler) Enqueue(ctx context.Context, taskType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, asynq.NewTask(taskType, data))
	return err
}

// Start begins the cron scheduler and the asynq task server. Both run until
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	go func() {
		if err := s.server.Run(s.mux); err != nil {
			logger.Errorf(ctx, "scheduler: asynq server stopped: %v", err)
		}
	}()
	return nil
}

// Stop shuts down the cron scheduler and the asynq server.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.server.Shutdown()
}
