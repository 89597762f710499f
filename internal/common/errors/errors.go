// Package errors provides the classified error taxonomy of the onboarding
// pipeline and its translation into workflow (BPMN) errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodePolicyRejected          ErrorCode = "ATTESTATION_POLICY_REJECTED"

	ErrCodeVerifierUnavailable ErrorCode = "VERIFIER_UNAVAILABLE"
	ErrCodeProofInvalid        ErrorCode = "PROOF_INVALID"

	ErrCodeLedgerCommitFailed    ErrorCode = "LEDGER_COMMIT_FAILED"
	ErrCodeLedgerCommitCancelled ErrorCode = "LEDGER_COMMIT_CANCELLED"
	ErrCodeAlreadyCommitted      ErrorCode = "ASSESSMENT_ALREADY_COMMITTED"
	ErrCodeLedgerStatusFailed    ErrorCode = "LEDGER_STATUS_FAILED"

	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrValidation          = stderrors.New(string(ErrCodeProfileValidationFailed))
	ErrPolicy              = stderrors.New(string(ErrCodePolicyRejected))
	ErrVerifierUnavailable = stderrors.New(string(ErrCodeVerifierUnavailable))
	ErrProofInvalid        = stderrors.New(string(ErrCodeProofInvalid))
	ErrCommitFailed        = stderrors.New(string(ErrCodeLedgerCommitFailed))
	ErrCancelled           = stderrors.New(string(ErrCodeLedgerCommitCancelled))
	ErrAlreadyCommitted    = stderrors.New(string(ErrCodeAlreadyCommitted))
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// GetRetryCount returns how many times the workflow engine may re-run a job
// that failed with code. Ledger retries happen inside the orchestrator, so a
// failed commit is not retried again by the engine.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeVerifierUnavailable:
		return 3
	case ErrCodeLedgerStatusFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "POLICY"):
		return "COMPLIANCE"
	case strings.Contains(codeStr, "VERIFIER") || strings.Contains(codeStr, "PROOF"):
		return "IDENTITY"
	case strings.Contains(codeStr, "LEDGER") || strings.Contains(codeStr, "COMMITTED"):
		return "LEDGER"
	default:
		return "OTHER"
	}
}
