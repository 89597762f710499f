// Package scoring maps a merchant profile onto a bounded, deterministic set
// of risk scores. Every function here is pure and safe for concurrent use.
package scoring

import (
	"merchant-onboarding/internal/models"
)

const (
	minScore  = 0
	maxScore  = 100
	minRating = 1
	maxRating = 5
)

// Engine is the stateless risk scoring engine.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the full risk assessment for profile. It never fails and
// never modifies profile.
func (e *Engine) Score(profile models.MerchantProfile) models.RiskAssessment {
	return Score(profile)
}

// Score is the package-level form of Engine.Score.
func Score(p models.MerchantProfile) models.RiskAssessment {
	lgd := lossGivenDefault(p)

	return models.RiskAssessment{
		CreditRisk: models.CreditRisk{
			CreditScore:        creditScore(p),
			DefaultProbability: defaultProbability(p),
			LossGivenDefault:   lgd,
			RecoveryRate:       maxScore - lgd,
		},
		BusinessFundamentals: models.BusinessFundamentals{
			BusinessAgeScore:          businessAgeScore(p.BusinessAge),
			RevenueStabilityScore:     revenueStabilityScore(p),
			MarketPositionScore:       marketPositionScore(p),
			IndustryRiskScore:         industryRiskScore(p),
			RegulatoryComplianceScore: regulatoryComplianceScore(p),
		},
		FinancialHealth: models.FinancialHealth{
			LiquidityScore:     liquidityScore(p.BalanceSheet),
			LeverageScore:      leverageScore(p.BalanceSheet),
			CashFlowScore:      cashFlowScore(p),
			ProfitabilityScore: profitabilityScore(p),
		},
		MarketRisk: models.MarketRisk{
			MarketVolatility:      marketVolatility(p.RiskFactors.MarketRisk),
			EconomicCyclePosition: economicCyclePosition(p.MarketContext.MarketGrowth),
			RegulatoryStability:   regulatoryStability(p.RiskFactors.RegulatoryRisk),
			Seasonality:           seasonalityRating(p.MonthlyRevenue.Seasonality),
		},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v int) int { return clamp(v, minScore, maxScore) }
