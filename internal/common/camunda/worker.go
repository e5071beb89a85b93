// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/metrics"
	"synctask-notifications/internal/triggers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const SourceZeebe = "zeebe"

const completeTimeout = 30 * time.Second

// ChangeJobHandler turns a Zeebe job carrying a record-change envelope into a
// call to a reactive handler. The job is always completed: notification
// failures never fail the process instance.
type ChangeJobHandler struct {
	taskType string
	handler  triggers.Handler
	timeout  time.Duration
	retry    *RetryConfig
	logger   logger.Logger
}

func NewChangeJobHandler(taskType string, handler triggers.Handler, timeout time.Duration, log logger.Logger) *ChangeJobHandler {
	return &ChangeJobHandler{
		taskType: taskType,
		handler:  handler,
		timeout:  timeout,
		retry:    DefaultRetryConfig,
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
	}
}

func (h *ChangeJobHandler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(h.taskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(h.taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(h.taskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	h.process(ctx, job)
	cancel()

	// completion has its own deadline, independent of the handler timeout
	completeCtx, cancelComplete := context.WithTimeout(context.Background(), completeTimeout)
	defer cancelComplete()
	h.completeJob(completeCtx, client, job)
}

func (h *ChangeJobHandler) process(ctx context.Context, job entities.Job) {
	change, err := triggers.Decode(SourceZeebe, []byte(job.GetVariables()))
	if err != nil {
		h.logger.Warn("Discarding job with malformed change payload", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.TriggerEventsReceived.WithLabelValues(SourceZeebe, change.Collection, string(change.Operation)).Inc()
	h.handler.HandleChange(ctx, change)
}

func (h *ChangeJobHandler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job) {
	err := WithRetry(ctx, h.retry, "complete job", func(ctx context.Context) error {
		_, err := client.NewCompleteJobCommand().JobKey(job.Key).Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(h.taskType).Inc()
}

// Worker is an open Zeebe job worker for one task type.
type Worker struct {
	worker   worker.JobWorker
	taskType string
	logger   logger.Logger
}

func NewWorker(client zbc.Client, taskType string, maxJobsActive int, timeout time.Duration, handler *ChangeJobHandler, log logger.Logger) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{"taskType": taskType})

	return &Worker{worker: jobWorker, taskType: taskType, logger: log}
}

// Stop closes the worker and waits for activated jobs to finish.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
