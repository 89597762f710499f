// Package verifier calls the external identity verification service, which
// owns the zero-knowledge proof math, and turns its answer into an attestation.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	httpclient "merchant-onboarding/internal/common/http"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

// ProofRequest is what the merchant's wallet app produced.
type ProofRequest struct {
	Proof         []byte                 `json:"proof"`
	PublicSignals []string               `json:"publicSignals"`
	Kind          models.AttestationKind `json:"attestationId"`
	UserContext   []byte                 `json:"userContextData"`
	Submitter     models.Address         `json:"merchantAddress"`
}

// Validate rejects malformed requests before any network call.
func (r ProofRequest) Validate() error {
	var fields []apperrors.FieldError
	if len(r.Proof) == 0 {
		fields = append(fields, apperrors.FieldError{Field: "proof", Message: "is required"})
	}
	if r.PublicSignals == nil {
		fields = append(fields, apperrors.FieldError{Field: "publicSignals", Message: "is required and must be an array"})
	}
	if !r.Kind.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "attestationId", Message: "must be 1 (passport), 2 (EU ID card) or 3 (national ID)"})
	}
	if len(r.UserContext) == 0 {
		fields = append(fields, apperrors.FieldError{Field: "userContextData", Message: "is required"})
	}
	if err := r.Submitter.Validate(); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "merchantAddress", Message: err.Error()})
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields...)
	}
	return nil
}

type Config struct {
	Endpoint string
	AppName  string
	Scope    string
	Timeout  time.Duration
}

type verifyRequest struct {
	AppName string `json:"appName"`
	Scope   string `json:"scope"`
	ProofRequest
}

type verifyResponse struct {
	IsValid  bool   `json:"isValid"`
	Error    string `json:"error,omitempty"`
	Disclose *struct {
		Nationality string `json:"nationality,omitempty"`
		Age         *int   `json:"age,omitempty"`
	} `json:"discloseOutput,omitempty"`
}

type Client struct {
	config Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg Config, http *httpclient.Client, log logger.Logger) *Client {
	if http == nil {
		http = httpclient.NewClient(cfg.Timeout)
	}
	return &Client{
		config: cfg,
		http:   http,
		logger: log.WithFields(map[string]interface{}{"component": "verifier"}),
	}
}

// Verify returns *apperrors.ValidationError for a malformed request,
// *apperrors.VerifierUnavailableError when the service cannot be reached or
// fails on its side, and *apperrors.ProofInvalidError when it refuses the proof.
// A well-formed "not valid" answer is returned as an attestation with Valid false.
func (c *Client) Verify(ctx context.Context, req ProofRequest) (models.VerificationAttestation, error) {
	if err := req.Validate(); err != nil {
		return models.VerificationAttestation{}, err
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.config.Endpoint, verifyRequest{
		AppName:      c.config.AppName,
		Scope:        c.config.Scope,
		ProofRequest: req,
	}, nil)
	if err != nil {
		c.logger.Warn("verifier request failed", map[string]interface{}{
			"submitter": req.Submitter.Canonical(),
			"error":     err,
		})
		return models.VerificationAttestation{}, &apperrors.VerifierUnavailableError{Cause: err}
	}

	fields := map[string]interface{}{
		"submitter":  req.Submitter.Canonical(),
		"statusCode": resp.StatusCode,
		"requestId":  resp.RequestID,
		"durationMs": time.Since(start).Milliseconds(),
	}

	switch {
	case resp.StatusCode >= 500:
		c.logger.Warn("verifier unavailable", fields)
		return models.VerificationAttestation{}, &apperrors.VerifierUnavailableError{
			Cause: fmt.Errorf("verifier returned status %d", resp.StatusCode),
		}
	case resp.StatusCode >= 400:
		c.logger.Info("verifier refused proof", fields)
		return models.VerificationAttestation{}, &apperrors.ProofInvalidError{Reason: refusalReason(resp)}
	}

	var out verifyResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return models.VerificationAttestation{}, &apperrors.ProofInvalidError{
			Reason: fmt.Sprintf("unreadable verifier response: %v", err),
		}
	}

	att := models.VerificationAttestation{
		Valid:         out.IsValid,
		Kind:          req.Kind,
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
		UserContext:   req.UserContext,
	}
	if out.Disclose != nil {
		// Alpha-3 codes map to alpha-2; anything unrecognised is kept
		// upper-cased for the policy gate to reject.
		if raw := strings.TrimSpace(out.Disclose.Nationality); raw != "" {
			n, _ := models.NormalizeCountry(raw)
			att.Nationality = &n
		}
		att.Age = out.Disclose.Age
	}

	fields["valid"] = att.Valid
	c.logger.Info("verification completed", fields)
	return att, nil
}

func refusalReason(resp *httpclient.Response) string {
	var out verifyResponse
	if err := json.Unmarshal(resp.Body, &out); err == nil && out.Error != "" {
		return out.Error
	}
	return fmt.Sprintf("verifier returned status %d", resp.StatusCode)
}
