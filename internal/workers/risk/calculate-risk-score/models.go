package calculateriskscore

import "merchant-onboarding/internal/models"

type Input struct {
	Profile models.MerchantProfile `json:"profile"`
}

type Output struct {
	RiskAssessment     models.RiskAssessment `json:"riskAssessment"`
	CreditScore        int                   `json:"creditScore"`
	DefaultProbability int                   `json:"defaultProbability"`
}
