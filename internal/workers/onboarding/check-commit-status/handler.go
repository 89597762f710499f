package checkcommitstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/common/observability"
	"merchant-onboarding/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-commit-status"
)

type StatusReader interface {
	Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error)
}

type Handler struct {
	config *Config
	status StatusReader
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, status StatusReader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		status: status,
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	done := metrics.TrackJob(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, start, done, &apperrors.StandardError{
			Code:      apperrors.ErrCodeParseError,
			Message:   "Invalid job variables",
			Details:   fmt.Sprintf("parse input: %v", err),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		// The job context may have expired; report on a fresh one.
		reportCtx, reportCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer reportCancel()
		h.fail(reportCtx, client, job, start, done, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	done("")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	key, err := models.ParseAssessmentKey(input.AssessmentKey)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "assessmentKey", Message: err.Error()})
	}

	status, err := h.status.Status(ctx, key)
	if err != nil {
		return nil, &apperrors.StandardError{
			Code:      apperrors.ErrCodeLedgerStatusFailed,
			Message:   "Ledger status lookup failed",
			Details:   err.Error(),
			Retryable: true,
			Metadata:  map[string]interface{}{"assessmentKey": key.String()},
			Timestamp: time.Now().UTC(),
		}
	}

	h.logger.Info("commit status resolved", map[string]interface{}{
		"assessmentKey": key.String(),
		"state":         string(status.State),
	})

	return &Output{
		AssessmentKey: key.String(),
		CommitState:   status.State,
		CommitHandle:  status.Handle,
		Committed:     status.State == models.CommitStateCommitted,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, done func(string), err error) {
	h.errors.HandleJobError(ctx, client, job, err)
	done(string(apperrors.Classify(err)))
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
