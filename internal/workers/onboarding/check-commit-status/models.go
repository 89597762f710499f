package checkcommitstatus

import "merchant-onboarding/internal/models"

type Input struct {
	AssessmentKey string `json:"assessmentKey"`
}

type Output struct {
	AssessmentKey string             `json:"assessmentKey"`
	CommitState   models.CommitState `json:"commitState"`
	CommitHandle  models.TxHandle    `json:"commitHandle,omitempty"`
	Committed     bool               `json:"committed"`
}
