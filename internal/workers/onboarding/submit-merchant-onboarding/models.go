package submitmerchantonboarding

import (
	"time"

	"merchant-onboarding/internal/models"
)

type Input struct {
	Profile         models.MerchantProfile         `json:"profile"`
	Attestation     models.VerificationAttestation `json:"attestation"`
	MerchantAddress models.Address                 `json:"merchantAddress"`
	// Nonce reproduces an earlier submission's key when set. A failed or
	// cancelled commit reports it in the "nonce" error variable.
	Nonce *uint64 `json:"nonce,omitempty"`
}

type Output struct {
	RequestID      string                `json:"requestId"`
	AssessmentKey  models.AssessmentKey  `json:"assessmentKey"`
	Nonce          uint64                `json:"nonce"`
	CommitHandle   models.TxHandle       `json:"commitHandle"`
	CreditScore    int                   `json:"creditScore"`
	RiskAssessment models.RiskAssessment `json:"riskAssessment"`
	CommittedAt    time.Time             `json:"committedAt"`
}
