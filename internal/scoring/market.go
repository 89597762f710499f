package scoring

import (
	"merchant-onboarding/internal/models"
)

func marketVolatility(level models.RiskLevel) int {
	switch level {
	case models.RiskLow:
		return 20
	case models.RiskHigh:
		return 80
	default:
		return 50
	}
}

func economicCyclePosition(growth string) int {
	switch growth {
	case models.MarketDeclining:
		return 1
	case models.MarketStable:
		return 2
	case models.MarketGrowing:
		return 3
	case models.MarketRapidlyGrowing:
		return 4
	default:
		return 2
	}
}

func regulatoryStability(level models.RiskLevel) int {
	switch level {
	case models.RiskLow:
		return 4
	case models.RiskHigh:
		return 2
	default:
		return 3
	}
}

func seasonalityRating(s models.RiskLevel) int {
	switch s {
	case models.SeasonalityLow:
		return 1
	case models.SeasonalityHigh:
		return 3
	default:
		return 2
	}
}
