package submitmerchantonboarding

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
	"merchant-onboarding/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "submit-merchant-onboarding"
)

type Orchestrator interface {
	Submit(ctx context.Context, profile models.MerchantProfile, att models.VerificationAttestation, submitter models.Address) (models.OnboardingResult, error)
	SubmitWithNonce(ctx context.Context, profile models.MerchantProfile, att models.VerificationAttestation, submitter models.Address, nonce uint64) (models.OnboardingResult, error)
}

type Handler struct {
	config       *Config
	orchestrator Orchestrator
	publisher    notify.Publisher
	errors       *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, orchestrator Orchestrator, publisher notify.Publisher, obs *observability.Observability, log logger.Logger) *Handler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
		publisher:    publisher,
		errors:       apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
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
	var (
		result models.OnboardingResult
		err    error
	)
	// Every path runs the full pipeline, so the policy gate always precedes
	// the commit.
	if input.Nonce != nil {
		result, err = h.orchestrator.SubmitWithNonce(ctx, input.Profile, input.Attestation, input.MerchantAddress, *input.Nonce)
	} else {
		result, err = h.orchestrator.Submit(ctx, input.Profile, input.Attestation, input.MerchantAddress)
	}
	if err != nil {
		return nil, err
	}

	h.publish(result)

	return &Output{
		RequestID:      result.RequestID,
		AssessmentKey:  result.AssessmentKey,
		Nonce:          result.Nonce,
		CommitHandle:   result.CommitHandle,
		CreditScore:    result.RiskAssessment.CreditRisk.CreditScore,
		RiskAssessment: result.RiskAssessment,
		CommittedAt:    result.Timestamp,
	}, nil
}

func (h *Handler) publish(result models.OnboardingResult) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.NotifyTimeout)
	defer cancel()

	if err := h.publisher.PublishCommitted(ctx, result); err != nil {
		h.logger.Warn("committed event not published", map[string]interface{}{
			"assessmentKey": result.AssessmentKey.String(),
			"error":         err,
		})
	}
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
