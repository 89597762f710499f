package scoring

import (
	"merchant-onboarding/internal/models"
)

func businessAgeScore(months int) int {
	switch {
	case months >= 60:
		return 100
	case months >= 36:
		return 80
	case months >= 24:
		return 60
	case months >= 12:
		return 40
	case months >= 6:
		return 20
	default:
		return 0
	}
}

func revenueStabilityScore(p models.MerchantProfile) int {
	score := 50

	growth := p.MonthlyRevenue.GrowthRate
	if growth > 20 {
		score += 20
	} else if growth > 0 {
		score += 10
	} else if growth < -10 {
		score -= 20
	}

	// Anything other than low or medium, including an unset value, counts as high.
	switch p.MonthlyRevenue.Seasonality {
	case models.SeasonalityLow:
		score += 20
	case models.SeasonalityMedium:
		score += 10
	default:
		score -= 10
	}

	return clampScore(score)
}

func marketPositionScore(p models.MerchantProfile) int {
	score := 50
	m := p.MarketContext

	switch m.MarketSize {
	case models.MarketSizeLarge:
		score += 20
	case models.MarketSizeMedium:
		score += 10
	}

	switch m.CompetitionLevel {
	case string(models.RiskLow):
		score += 15
	case string(models.RiskMedium):
		score += 5
	}

	switch m.MarketGrowth {
	case models.MarketRapidlyGrowing:
		score += 15
	case models.MarketGrowing:
		score += 10
	}

	return clampScore(score)
}

func industryRiskScore(p models.MerchantProfile) int {
	score := 50
	r := p.RiskFactors

	if r.HasIndustryRisk(models.IndustryRiskSeasonal) {
		score -= 10
	}
	if r.HasIndustryRisk(models.IndustryRiskWeather) {
		score -= 15
	}
	if r.HasIndustryRisk(models.IndustryRiskPriceVolatility) {
		score -= 20
	}
	if r.HasIndustryRisk(models.IndustryRiskRegulatory) {
		score -= 10
	}

	return clampScore(score)
}

func regulatoryComplianceScore(p models.MerchantProfile) int {
	score := 50

	if p.RegistrationStatus == models.RegistrationRegistered {
		score += 20
	} else {
		score -= 10
	}

	if p.LegalStructure == models.LegalStructureFormal {
		score += 10
	}

	switch p.ComplianceProfile.KYCLevel {
	case models.KYCComprehensive:
		score += 15
	case models.KYCEnhanced:
		score += 10
	}

	switch p.ComplianceProfile.AMLRisk {
	case models.RiskLow:
		score += 10
	case models.RiskHigh:
		score -= 15
	}

	return clampScore(score)
}
