package scoring

import (
	"math"

	"merchant-onboarding/internal/models"
)

func creditScore(p models.MerchantProfile) int {
	score := 50

	if p.BusinessAge >= 24 {
		score += 20
	} else if p.BusinessAge >= 12 {
		score += 10
	} else if p.BusinessAge >= 6 {
		score += 5
	}

	onTime := p.RiskFactors.PaymentHistory.OnTime
	if onTime >= 95 {
		score += 15
	} else if onTime >= 85 {
		score += 10
	} else if onTime >= 70 {
		score += 5
	}

	if p.MonthlyRevenue.GrowthRate > 0 {
		score += 10
	}
	if p.MonthlyRevenue.Seasonality == models.SeasonalityLow {
		score += 5
	}

	score -= riskPenalty(p.RiskFactors)

	if c := p.FundIntention.Collateral; c.Available {
		if c.Liquidity == models.RiskHigh {
			score += 10
		} else if c.Liquidity == models.RiskMedium {
			score += 5
		}
	}

	return clampScore(score)
}

func riskPenalty(r models.RiskFactors) int {
	penalty := 0
	if r.FinancialRisk == models.RiskHigh {
		penalty += 15
	}
	if r.OperationalRisk == models.RiskHigh {
		penalty += 10
	}
	if r.MarketRisk == models.RiskHigh {
		penalty += 10
	}
	if r.EconomicSensitivity == models.RiskHigh {
		penalty += 5
	}
	return penalty
}

func defaultProbability(p models.MerchantProfile) int {
	probability := 10

	r := p.RiskFactors
	if r.FinancialRisk == models.RiskHigh {
		probability += 15
	}
	if r.OperationalRisk == models.RiskHigh {
		probability += 10
	}
	if r.MarketRisk == models.RiskHigh {
		probability += 10
	}

	probability += percentPoints(r.PaymentHistory.Default)

	if p.BusinessAge < 6 {
		probability += 20
	} else if p.BusinessAge < 12 {
		probability += 10
	}

	if p.MonthlyRevenue.Seasonality == models.SeasonalityHigh {
		probability += 5
	}

	return clampScore(probability)
}

// lossGivenDefault never exceeds its base of 40, so only the floor applies.
func lossGivenDefault(p models.MerchantProfile) int {
	lgd := 40

	if c := p.FundIntention.Collateral; c.Available {
		if c.Liquidity == models.RiskHigh {
			lgd -= 20
		} else if c.Liquidity == models.RiskMedium {
			lgd -= 10
		} else {
			lgd -= 5
		}
	}

	if p.BusinessAge >= 24 {
		lgd -= 5
	}
	if p.RiskFactors.PaymentHistory.OnTime >= 95 {
		lgd -= 5
	}

	return clampScore(lgd)
}

// percentPoints rounds a 0-100 percentage to whole points. NaN and values
// outside the percentage range are clamped first.
func percentPoints(pct float64) int {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(math.Round(pct))
}
