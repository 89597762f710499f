package verifymerchantidentity

import (
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/verifier"
)

// Input carries the proof bundle produced by the merchant's wallet app. Byte
// fields are base64 in the job variables.
type Input struct {
	verifier.ProofRequest
}

type Output struct {
	Attestation      models.VerificationAttestation `json:"attestation"`
	IdentityVerified bool                           `json:"identityVerified"`
	Nationality      string                         `json:"nationality,omitempty"`
}
