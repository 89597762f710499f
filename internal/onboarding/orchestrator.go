// Package onboarding runs a merchant submission from attestation check to
// ledger commit.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/common/retry"
	"merchant-onboarding/internal/ledger"
	"merchant-onboarding/internal/models"

	"github.com/google/uuid"
)

// ErrCommitPending is wrapped in a CommitError when a resumed key is still
// pending on the ledger.
var ErrCommitPending = errors.New("onboarding: commit pending on ledger")

type Scorer interface {
	Score(profile models.MerchantProfile) models.RiskAssessment
}

type AttestationValidator interface {
	Validate(att models.VerificationAttestation) (bool, string)
}

type KeyDeriver interface {
	DeriveKey(profile models.MerchantProfile, submitter models.Address, nonce uint64) models.AssessmentKey
}

type ProfileValidator interface {
	Validate(profile models.MerchantProfile) error
}

type Config struct {
	MaxRetries    int
	CommitTimeout time.Duration
	RetryDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:    2,
		CommitTimeout: 15 * time.Second,
		RetryDelay:    500 * time.Millisecond,
	}
}

type Dependencies struct {
	Scorer    Scorer
	Validator AttestationValidator
	Deriver   KeyDeriver
	Gateway   ledger.Gateway

	// ProfileValidator is optional; the upstream form layer owns field checks.
	ProfileValidator ProfileValidator
	Logger           logger.Logger
	Clock            func() time.Time
	OnTransition     TransitionHook
}

type Orchestrator struct {
	config       Config
	scorer       Scorer
	validator    AttestationValidator
	deriver      KeyDeriver
	gateway      ledger.Gateway
	profiles     ProfileValidator
	logger       logger.Logger
	clock        func() time.Time
	onTransition TransitionHook
}

func NewOrchestrator(config Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Scorer == nil || deps.Validator == nil || deps.Deriver == nil || deps.Gateway == nil {
		return nil, fmt.Errorf("onboarding: scorer, validator, deriver and gateway are required")
	}
	if config.MaxRetries < 0 {
		return nil, fmt.Errorf("onboarding: max retries must be >= 0, got %d", config.MaxRetries)
	}
	if config.CommitTimeout <= 0 {
		config.CommitTimeout = DefaultConfig().CommitTimeout
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Orchestrator{
		config:       config,
		scorer:       deps.Scorer,
		validator:    deps.Validator,
		deriver:      deps.Deriver,
		gateway:      deps.Gateway,
		profiles:     deps.ProfileValidator,
		logger:       log.WithFields(map[string]interface{}{"component": "onboarding"}),
		clock:        clock,
		onTransition: deps.OnTransition,
	}, nil
}

// Submit runs the pipeline with a nonce taken from the clock at entry.
func (o *Orchestrator) Submit(
	ctx context.Context,
	profile models.MerchantProfile,
	att models.VerificationAttestation,
	submitter models.Address,
) (models.OnboardingResult, error) {
	nonce := uint64(o.clock().UnixMilli())
	return o.SubmitWithNonce(ctx, profile, att, submitter, nonce)
}

// SubmitWithNonce runs the pipeline with a caller supplied nonce. Reusing a
// nonce for the same profile and submitter yields the same assessment key, so
// the ledger rejects the second commit.
func (o *Orchestrator) SubmitWithNonce(
	ctx context.Context,
	profile models.MerchantProfile,
	att models.VerificationAttestation,
	submitter models.Address,
	nonce uint64,
) (models.OnboardingResult, error) {
	start := o.clock()
	requestID := uuid.NewString()
	t := newTracker(requestID, StateReceived, o.onTransition)
	log := o.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"submitter": submitter.Canonical(),
	})

	if err := o.validateInput(profile, submitter); err != nil {
		t.fail()
		o.finish(log, metrics.OutcomeValidationFailed, start, err)
		return models.OnboardingResult{}, err
	}

	if ok, reason := o.validator.Validate(att); !ok {
		t.fail()
		err := &apperrors.PolicyError{Reason: reason}
		o.finish(log, metrics.OutcomePolicyRejected, start, err)
		return models.OnboardingResult{}, err
	}
	o.step(t, log, StatePolicyChecked)

	assessment := o.scorer.Score(profile)
	o.step(t, log, StateScored)

	key := o.deriver.DeriveKey(profile, submitter, nonce)
	o.step(t, log, StateKeyDerived)
	log = log.WithFields(map[string]interface{}{"assessmentKey": key.String()})

	payload := BuildPayload(profile, submitter, key, assessment)
	o.step(t, log, StateCommitting)

	handle, err := o.commit(ctx, log, payload, nonce)
	if err != nil {
		t.fail()
		o.finish(log, outcomeOf(err), start, err)
		return models.OnboardingResult{}, err
	}
	o.step(t, log, StateCommitted)

	result := models.OnboardingResult{
		RequestID:      requestID,
		AssessmentKey:  key,
		Nonce:          nonce,
		RiskAssessment: assessment,
		CommitHandle:   handle,
		Timestamp:      o.clock().UTC(),
	}
	o.finish(log.WithFields(map[string]interface{}{
		"txHandle":    string(handle),
		"creditScore": assessment.CreditRisk.CreditScore,
	}), metrics.OutcomeCommitted, start, nil)
	return result, nil
}

// Resume re-enters Committing for a submission that ended in a CommitError or
// CancelledError returned by this pipeline. The carried payload is checked
// again but scores are not recomputed. Any other error is rejected; callers
// holding only workflow variables resubmit through SubmitWithNonce instead.
func (o *Orchestrator) Resume(ctx context.Context, prior error) (models.OnboardingResult, error) {
	start := o.clock()
	requestID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"resumed":   true,
	})

	payload, nonce, err := resumable(prior)
	if err == nil {
		err = ValidatePayload(payload)
	}
	if err != nil {
		o.finish(log, metrics.OutcomeValidationFailed, start, err)
		return models.OnboardingResult{}, err
	}
	key := payload.AssessmentKey
	log = log.WithFields(map[string]interface{}{"assessmentKey": key.String()})

	t := newTracker(requestID, StateKeyDerived, o.onTransition)
	o.step(t, log, StateCommitting)

	handle, err := o.resolve(ctx, log, payload, nonce)
	if err != nil {
		t.fail()
		o.finish(log, outcomeOf(err), start, err)
		return models.OnboardingResult{}, err
	}
	o.step(t, log, StateCommitted)

	o.finish(log.WithFields(map[string]interface{}{"txHandle": string(handle)}), metrics.OutcomeCommitted, start, nil)
	return models.OnboardingResult{
		RequestID:      requestID,
		AssessmentKey:  key,
		Nonce:          nonce,
		RiskAssessment: payload.RiskAssessment,
		CommitHandle:   handle,
		Timestamp:      o.clock().UTC(),
	}, nil
}

// resumable extracts the payload and nonce from a commit failure.
func resumable(prior error) (models.CommitPayload, uint64, error) {
	var (
		commitErr    *apperrors.CommitError
		cancelledErr *apperrors.CancelledError
		payload      models.CommitPayload
		key          models.AssessmentKey
		nonce        uint64
	)
	switch {
	case errors.As(prior, &commitErr):
		payload, key, nonce = commitErr.Payload, commitErr.Key, commitErr.Nonce
	case errors.As(prior, &cancelledErr):
		payload, key, nonce = cancelledErr.Payload, cancelledErr.Key, cancelledErr.Nonce
	default:
		return payload, 0, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "prior",
			Message: "only a ledger commit failure or cancellation can be resumed",
		})
	}
	if payload.AssessmentKey != key {
		return payload, 0, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "assessmentKey",
			Message: "payload key does not match the failed commit",
		})
	}
	return payload, nonce, nil
}

// Status reports the ledger-side state of key.
func (o *Orchestrator) Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error) {
	if key.IsZero() {
		return models.CommitStatus{}, apperrors.NewValidationError(apperrors.FieldError{Field: "assessmentKey", Message: "is required"})
	}
	return o.gateway.Status(ctx, key)
}

func (o *Orchestrator) validateInput(profile models.MerchantProfile, submitter models.Address) error {
	if err := submitter.Validate(); err != nil {
		return apperrors.NewValidationError(apperrors.FieldError{Field: "submitter", Message: err.Error()})
	}
	if o.profiles == nil {
		return nil
	}
	return o.profiles.Validate(profile)
}

func (o *Orchestrator) resolve(ctx context.Context, log logger.Logger, payload models.CommitPayload, nonce uint64) (models.TxHandle, error) {
	key := payload.AssessmentKey
	status, err := o.gateway.Status(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return "", &apperrors.CancelledError{Key: key, Nonce: nonce, Assessment: payload.RiskAssessment, Payload: payload, Cause: ctx.Err()}
		}
		return "", &apperrors.CommitError{Key: key, Nonce: nonce, Assessment: payload.RiskAssessment, Payload: payload, Cause: fmt.Errorf("status lookup: %w", err)}
	}

	switch status.State {
	case models.CommitStateCommitted:
		log.Info("assessment already on ledger", map[string]interface{}{"txHandle": string(status.Handle)})
		return status.Handle, nil
	case models.CommitStatePending:
		return "", &apperrors.CommitError{Key: key, Nonce: nonce, Assessment: payload.RiskAssessment, Payload: payload, Cause: ErrCommitPending}
	default:
		return o.commit(ctx, log, payload, nonce)
	}
}

// commit applies payload with bounded retries on transient failures. Every
// attempt presents the same key; nonce is carried into failures so the caller
// can reproduce that key.
func (o *Orchestrator) commit(ctx context.Context, log logger.Logger, payload models.CommitPayload, nonce uint64) (models.TxHandle, error) {
	key := payload.AssessmentKey

	var (
		handle    models.TxHandle
		duplicate *ledger.AlreadyCommittedError
	)
	policy := retry.Policy{
		MaxRetries:   o.config.MaxRetries,
		InitialDelay: o.config.RetryDelay,
		Retryable:    ledger.IsTransient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("ledger commit failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
				"error":   err,
			})
		},
	}

	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		h, err := o.commitOnce(ctx, payload)
		if err == nil {
			metrics.RecordCommitAttempt(metrics.AttemptSuccess)
			handle = h
			return nil
		}
		if dup, ok := ledger.AsAlreadyCommitted(err); ok {
			metrics.RecordCommitAttempt(metrics.AttemptDuplicate)
			// A retry that finds its own key applied means an earlier attempt
			// of this submission landed.
			if attempt > 1 && dup.Handle != "" {
				handle = dup.Handle
				return nil
			}
			duplicate = dup
			return err
		}
		switch {
		case ctx.Err() != nil:
			metrics.RecordCommitAttempt(metrics.AttemptCancelled)
		case ledger.IsTransient(err):
			metrics.RecordCommitAttempt(metrics.AttemptTransient)
		default:
			metrics.RecordCommitAttempt(metrics.AttemptTerminal)
		}
		return err
	})

	if err == nil {
		return handle, nil
	}
	if ctx.Err() != nil {
		return "", &apperrors.CancelledError{Key: key, Nonce: nonce, Assessment: payload.RiskAssessment, Payload: payload, Cause: ctx.Err()}
	}
	if duplicate != nil {
		return "", &apperrors.AlreadyCommittedError{Key: key, Assessment: payload.RiskAssessment, Handle: duplicate.Handle}
	}
	return "", &apperrors.CommitError{
		Key:        key,
		Nonce:      nonce,
		Assessment: payload.RiskAssessment,
		Payload:    payload,
		Attempts:   attempts,
		Cause:      err,
	}
}

func (o *Orchestrator) commitOnce(ctx context.Context, payload models.CommitPayload) (models.TxHandle, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.config.CommitTimeout)
	defer cancel()

	handle, err := o.gateway.Commit(attemptCtx, payload, payload.AssessmentKey)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", &ledger.TransientError{Op: "commit", Err: err}
	}
	return handle, err
}

func (o *Orchestrator) step(t *tracker, log logger.Logger, to State) {
	from := t.state
	if err := t.advance(to); err != nil {
		log.Error("state machine violation", map[string]interface{}{"error": err})
		return
	}
	log.Debug("state transition", map[string]interface{}{"from": string(from), "to": string(to)})
}

func (o *Orchestrator) finish(log logger.Logger, outcome string, start time.Time, err error) {
	metrics.RecordSubmission(outcome, o.clock().Sub(start))

	fields := map[string]interface{}{"outcome": outcome}
	switch outcome {
	case metrics.OutcomeCommitted:
		log.Info("onboarding committed", fields)
	case metrics.OutcomeValidationFailed, metrics.OutcomePolicyRejected, metrics.OutcomeAlreadyCommitted:
		fields["error"] = err
		log.Warn("onboarding rejected", fields)
	case metrics.OutcomeCancelled:
		fields["error"] = err
		log.Warn("onboarding cancelled, ledger status unknown", fields)
	default:
		fields["error"] = err
		log.Error("onboarding commit failed", fields)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrCancelled):
		return metrics.OutcomeCancelled
	case errors.Is(err, apperrors.ErrAlreadyCommitted):
		return metrics.OutcomeAlreadyCommitted
	case errors.Is(err, apperrors.ErrValidation):
		return metrics.OutcomeValidationFailed
	default:
		return metrics.OutcomeCommitFailed
	}
}
