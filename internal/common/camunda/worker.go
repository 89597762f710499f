package camunda

import (
	"time"

	"merchant-onboarding/internal/common/config"
	"merchant-onboarding/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Workers tracks the job workers opened by the process so they can be closed
// together on shutdown.
type Workers struct {
	client zbc.Client
	logger logger.Logger
	open   []worker.JobWorker
	types  []string
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{client: client, logger: log}
}

// Start opens a job worker for taskType unless it is disabled.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	w.open = append(w.open, jobWorker)
	w.types = append(w.types, taskType)
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

func (w *Workers) TaskTypes() []string {
	return append([]string(nil), w.types...)
}

// Close stops polling and waits for in-flight jobs of every worker.
func (w *Workers) Close() {
	for i, jw := range w.open {
		jw.Close()
		jw.AwaitClose()
		w.logger.Info("worker stopped", map[string]interface{}{"taskType": w.types[i]})
	}
	w.open = nil
}
