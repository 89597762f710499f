package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/models"
)

func validProfile() models.MerchantProfile {
	return models.MerchantProfile{
		BusinessName:       "Toko Maju",
		BusinessType:       models.BusinessTypePartnership,
		Industry:           "retail",
		BusinessAge:        18,
		LegalStructure:     models.LegalStructureFormal,
		RegistrationStatus: models.RegistrationRegistered,
		MonthlyRevenue:     models.MonthlyRevenue{Current: 9000, Average: 8500, GrowthRate: 4, Seasonality: models.SeasonalityMedium},
		MonthlyExpenses:    models.MonthlyExpenses{Fixed: 3000, Variable: 2500, Total: 5500},
		CashFlow:           models.CashFlow{Operating: 2000, Free: -100, WorkingCapital: 4000},
		BalanceSheet: models.BalanceSheet{
			TotalAssets:        60000,
			CurrentAssets:      15000,
			TotalLiabilities:   25000,
			CurrentLiabilities: 7000,
			Equity:             35000,
		},
		FundIntention: models.FundIntention{
			Purpose:           models.FundingPurposeInventory,
			Amount:            models.AmountRange{Requested: 10000, Minimum: 5000, Maximum: 15000},
			Duration:          models.DurationRange{Preferred: 12, Minimum: 6, Maximum: 18},
			RepaymentCapacity: models.RepaymentCapacity{MonthlyCapacity: 900, PercentageOfRevenue: 10},
			Collateral:        models.Collateral{Available: true, Type: models.CollateralInventory, Value: 8000, Liquidity: models.RiskMedium},
		},
		RiskFactors: models.RiskFactors{
			MarketRisk:          models.RiskMedium,
			OperationalRisk:     models.RiskLow,
			FinancialRisk:       models.RiskMedium,
			EconomicSensitivity: models.RiskMedium,
			RegulatoryRisk:      models.RiskLow,
			CurrencyRisk:        models.RiskLow,
			PaymentHistory:      models.PaymentHistory{OnTime: 88, Late: 10, Default: 2},
			IndustryRisks:       []string{"seasonal"},
		},
		MarketContext: models.MarketContext{
			PrimaryMarket:    "ID",
			OperatingRegions: []string{"ID", "SG"},
			MarketSize:       models.MarketSizeSmall,
			CompetitionLevel: "high",
			MarketGrowth:     models.MarketStable,
		},
		ComplianceProfile: models.ComplianceProfile{KYCLevel: models.KYCEnhanced, AMLRisk: models.RiskLow, Jurisdiction: "ID"},
	}
}

func newValidator(t *testing.T) *ProfileValidator {
	v, err := NewProfileValidator()
	require.NoError(t, err)
	return v
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	out := make([]string, len(vErr.Fields))
	for i, f := range vErr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestProfileValidator_Valid(t *testing.T) {
	assert.NoError(t, newValidator(t).Validate(validProfile()))
}

func TestProfileValidator_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.MerchantProfile)
		field  string
	}{
		{"empty name", func(p *models.MerchantProfile) { p.BusinessName = "" }, "businessName"},
		{"unknown business type", func(p *models.MerchantProfile) { p.BusinessType = "cooperative" }, "businessType"},
		{"negative age", func(p *models.MerchantProfile) { p.BusinessAge = -1 }, "businessAge"},
		{"bad seasonality", func(p *models.MerchantProfile) { p.MonthlyRevenue.Seasonality = "extreme" }, "monthlyRevenue.seasonality"},
		{"percentage above 100", func(p *models.MerchantProfile) { p.RiskFactors.PaymentHistory.Late = 120 }, "riskFactors.paymentHistory.late"},
		{"duration above 60", func(p *models.MerchantProfile) { p.FundIntention.Duration.Maximum = 72 }, "fundIntention.duration.maximum"},
		{"lower-case market", func(p *models.MerchantProfile) { p.MarketContext.PrimaryMarket = "id" }, "marketContext.primaryMarket"},
		{"negative working capital", func(p *models.MerchantProfile) { p.CashFlow.WorkingCapital = -5 }, "cashFlow.workingCapital"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			assert.Contains(t, fieldsOf(t, newValidator(t).Validate(p)), tt.field)
		})
	}
}

func TestProfileValidator_Invariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.MerchantProfile)
		field  string
	}{
		{"expenses total", func(p *models.MerchantProfile) { p.MonthlyExpenses.Total = 6000 }, "monthlyExpenses.total"},
		{"equity", func(p *models.MerchantProfile) { p.BalanceSheet.Equity = 1 }, "balanceSheet.equity"},
		{"requested above maximum", func(p *models.MerchantProfile) { p.FundIntention.Amount.Requested = 20000 }, "fundIntention.amount"},
		{"preferred below minimum", func(p *models.MerchantProfile) { p.FundIntention.Duration.Preferred = 3 }, "fundIntention.duration"},
		{"current assets above total", func(p *models.MerchantProfile) { p.BalanceSheet.CurrentAssets = 70000 }, "balanceSheet.currentAssets"},
		{"payment history short of 100", func(p *models.MerchantProfile) { p.RiskFactors.PaymentHistory.Late = 2 }, "riskFactors.paymentHistory"},
		{"payment history above 100", func(p *models.MerchantProfile) { p.RiskFactors.PaymentHistory.Default = 12 }, "riskFactors.paymentHistory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			assert.Equal(t, []string{tt.field}, fieldsOf(t, newValidator(t).Validate(p)))
		})
	}
}

func TestProfileValidator_ToleratesRounding(t *testing.T) {
	p := validProfile()
	p.MonthlyExpenses = models.MonthlyExpenses{Fixed: 0.1, Variable: 0.2, Total: 0.3}
	p.RiskFactors.PaymentHistory = models.PaymentHistory{OnTime: 66.7, Late: 33.3, Default: 0.5}
	assert.NoError(t, newValidator(t).Validate(p))
}

func TestProfileValidator_ErrorIsClassified(t *testing.T) {
	p := validProfile()
	p.BusinessName = ""

	err := newValidator(t).Validate(p)
	assert.Equal(t, apperrors.ErrCodeProfileValidationFailed, apperrors.Classify(err))
	assert.False(t, apperrors.IsRetryable(err))
}
