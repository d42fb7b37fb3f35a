package scheduler

import (
	"context"
	"fmt"

	"maremio_backend/platform/config"
	"maremio_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	backup *Backup
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, backup *Backup, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		backup: backup,
		log:    log,
	}

	mux.HandleFunc(TaskDailyBackup, w.handleDailyBackup)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDailyBackup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDailyBackupPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := w.backup.Run(ctx, payload.Date)
	if err != nil {
		return err
	}

	w.log.Info("daily backup completed", "key", result.Key, "records", result.TotalRecords, "pruned", len(result.Deleted))
	return nil
}
