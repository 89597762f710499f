package scoring

import (
	"merchant-onboarding/internal/models"
)

// liquidityScore tiers the current ratio. No current liabilities saturates
// to the top tier.
func liquidityScore(b models.BalanceSheet) int {
	if b.CurrentLiabilities == 0 {
		return 100
	}

	ratio := b.CurrentAssets / b.CurrentLiabilities
	switch {
	case ratio >= 2:
		return 100
	case ratio >= 1.5:
		return 80
	case ratio >= 1:
		return 60
	case ratio >= 0.5:
		return 40
	default:
		return 20
	}
}

func leverageScore(b models.BalanceSheet) int {
	if b.TotalAssets == 0 {
		return 0
	}

	ratio := b.TotalLiabilities / b.TotalAssets
	switch {
	case ratio <= 0.2:
		return 100
	case ratio <= 0.4:
		return 80
	case ratio <= 0.6:
		return 60
	case ratio <= 0.8:
		return 40
	default:
		return 20
	}
}

func cashFlowScore(p models.MerchantProfile) int {
	revenue := p.MonthlyRevenue.Current
	if revenue == 0 {
		return 0
	}

	ratio := p.CashFlow.Operating / revenue
	switch {
	case ratio >= 0.3:
		return 100
	case ratio >= 0.2:
		return 80
	case ratio >= 0.1:
		return 60
	case ratio >= 0:
		return 40
	default:
		return 20
	}
}

func profitabilityScore(p models.MerchantProfile) int {
	revenue := p.MonthlyRevenue.Current
	if revenue == 0 {
		return 0
	}

	margin := p.CashFlow.Free / revenue
	switch {
	case margin >= 0.2:
		return 100
	case margin >= 0.1:
		return 80
	case margin >= 0.05:
		return 60
	case margin >= 0:
		return 40
	default:
		return 20
	}
}
