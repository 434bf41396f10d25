// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"autoease/internal/common/config"
	"autoease/internal/common/logger"
	"autoease/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerSet opens job workers on one client and closes them together.
type WorkerSet struct {
	client  zbc.Client
	obs     *observability.Observability
	logger  logger.Logger
	workers []worker.JobWorker
}

func NewWorkerSet(client zbc.Client, obs *observability.Observability, log logger.Logger) *WorkerSet {
	return &WorkerSet{
		client: client,
		obs:    obs,
		logger: log,
	}
}

// Register opens a worker for taskType unless the config disables it.
func (s *WorkerSet) Register(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		s.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	w := s.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(s.obs, taskType, handler))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	s.workers = append(s.workers, w)

	s.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

func (s *WorkerSet) Len() int {
	return len(s.workers)
}

// Close stops polling and waits for in-flight jobs.
func (s *WorkerSet) Close() {
	for _, w := range s.workers {
		w.Close()
		w.AwaitClose()
	}
	s.workers = nil
}

// Instrument records OpenTelemetry job count and duration around a handler.
func Instrument(obs *observability.Observability, taskType string, next HandlerFunc) HandlerFunc {
	if obs == nil {
		return next
	}
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		next(client, job)
		obs.RecordJobProcessed(context.Background(), taskType, "handled")
		obs.RecordJobDuration(context.Background(), taskType, time.Since(start), "handled")
	}
}
