package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"merchant-onboarding/internal/models"
)

// FieldError describes one rejected profile field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a malformed input. Never retried.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationError) Code() ErrorCode { return ErrCodeProfileValidationFailed }
func (e *ValidationError) Retryable() bool { return false }
func (e *ValidationError) Unwrap() error   { return ErrValidation }

// PolicyError is returned when an attestation fails the compliance gate.
// No side effects have occurred when it is returned.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string   { return "policy rejected attestation: " + e.Reason }
func (e *PolicyError) Code() ErrorCode { return ErrCodePolicyRejected }
func (e *PolicyError) Retryable() bool { return false }
func (e *PolicyError) Unwrap() error   { return ErrPolicy }

// VerifierUnavailableError is a transport-level failure of the identity verifier.
type VerifierUnavailableError struct {
	Cause error
}

func (e *VerifierUnavailableError) Error() string {
	return fmt.Sprintf("identity verifier unavailable: %v", e.Cause)
}
func (e *VerifierUnavailableError) Code() ErrorCode { return ErrCodeVerifierUnavailable }
func (e *VerifierUnavailableError) Retryable() bool { return true }
func (e *VerifierUnavailableError) Unwrap() []error { return []error{ErrVerifierUnavailable, e.Cause} }

// ProofInvalidError means the verifier refused the proof. Terminal.
type ProofInvalidError struct {
	Reason string
}

func (e *ProofInvalidError) Error() string   { return "identity proof invalid: " + e.Reason }
func (e *ProofInvalidError) Code() ErrorCode { return ErrCodeProofInvalid }
func (e *ProofInvalidError) Retryable() bool { return false }
func (e *ProofInvalidError) Unwrap() error   { return ErrProofInvalid }

// CommitError is returned after the bounded ledger retries are exhausted. It
// carries the computed assessment and the nonce the key was derived with, so
// resubmitting with that nonce reproduces the same key.
type CommitError struct {
	Key        models.AssessmentKey
	Nonce      uint64
	Assessment models.RiskAssessment
	Payload    models.CommitPayload
	Attempts   int
	Cause      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("ledger commit %s failed after %d attempt(s): %v", e.Key, e.Attempts, e.Cause)
}
func (e *CommitError) Code() ErrorCode { return ErrCodeLedgerCommitFailed }
func (e *CommitError) Retryable() bool { return false }
func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailed, e.Cause} }

// CancelledError is returned when the caller cancels while a commit is in
// flight. The ledger state is unknown and must be resolved through Status.
type CancelledError struct {
	Key        models.AssessmentKey
	Nonce      uint64
	Assessment models.RiskAssessment
	Payload    models.CommitPayload
	Cause      error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("ledger commit %s cancelled, status unknown: %v", e.Key, e.Cause)
}
func (e *CancelledError) Code() ErrorCode { return ErrCodeLedgerCommitCancelled }
func (e *CancelledError) Retryable() bool { return false }
func (e *CancelledError) Unwrap() []error { return []error{ErrCancelled, e.Cause} }

// AlreadyCommittedError is surfaced when the ledger already holds a commit for Key.
type AlreadyCommittedError struct {
	Key        models.AssessmentKey
	Assessment models.RiskAssessment
	Handle     models.TxHandle
}

func (e *AlreadyCommittedError) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("assessment %s already committed in %s", e.Key, e.Handle)
	}
	return fmt.Sprintf("assessment %s already committed", e.Key)
}
func (e *AlreadyCommittedError) Code() ErrorCode { return ErrCodeAlreadyCommitted }
func (e *AlreadyCommittedError) Retryable() bool { return false }
func (e *AlreadyCommittedError) Unwrap() error   { return ErrAlreadyCommitted }

type classified interface {
	Code() ErrorCode
	Retryable() bool
}

// Classify returns the code of the first classified error in err's chain.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c classified
	if stderrors.As(err, &c) {
		return c.Code()
	}
	var std *StandardError
	if stderrors.As(err, &std) {
		return std.Code
	}
	return ErrCodeInternalError
}

// IsRetryable reports whether err belongs to a retryable class.
func IsRetryable(err error) bool {
	var c classified
	if stderrors.As(err, &c) {
		return c.Retryable()
	}
	var std *StandardError
	if stderrors.As(err, &std) {
		return std.Retryable
	}
	return false
}

// ToStandard normalizes any pipeline error into a StandardError, keeping the
// resumable assessment key and nonce in Metadata where they exist.
func ToStandard(err error) *StandardError {
	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	out := &StandardError{
		Code:      Classify(err),
		Details:   err.Error(),
		Retryable: IsRetryable(err),
		Timestamp: time.Now().UTC(),
	}

	var (
		validationErr *ValidationError
		policyErr     *PolicyError
		commitErr     *CommitError
		cancelledErr  *CancelledError
		committedErr  *AlreadyCommittedError
	)
	switch {
	case stderrors.As(err, &validationErr):
		out.Message = "Merchant profile validation failed"
		fields := make([]interface{}, len(validationErr.Fields))
		for i, f := range validationErr.Fields {
			fields[i] = map[string]interface{}{"field": f.Field, "message": f.Message}
		}
		out.Metadata = map[string]interface{}{"fields": fields}
	case stderrors.As(err, &policyErr):
		out.Message = "Attestation rejected by compliance policy"
		out.Metadata = map[string]interface{}{"reason": policyErr.Reason}
	case stderrors.Is(err, ErrVerifierUnavailable):
		out.Message = "Identity verifier unavailable"
	case stderrors.Is(err, ErrProofInvalid):
		out.Message = "Identity proof invalid"
	case stderrors.As(err, &commitErr):
		out.Message = "Ledger commit failed"
		out.Metadata = map[string]interface{}{
			"assessmentKey": commitErr.Key.String(),
			"nonce":         commitErr.Nonce,
			"attempts":      commitErr.Attempts,
		}
	case stderrors.As(err, &cancelledErr):
		out.Message = "Ledger commit cancelled; resolve status before resubmitting"
		out.Metadata = map[string]interface{}{
			"assessmentKey": cancelledErr.Key.String(),
			"nonce":         cancelledErr.Nonce,
		}
	case stderrors.As(err, &committedErr):
		out.Message = "Assessment already committed"
		out.Metadata = map[string]interface{}{
			"assessmentKey": committedErr.Key.String(),
			"commitHandle":  string(committedErr.Handle),
		}
	default:
		out.Message = "Unexpected error"
	}

	return out
}
