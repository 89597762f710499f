package scoring

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestProfile() models.MerchantProfile {
	return models.MerchantProfile{
		BusinessName:       "Kopi Kenangan Stall",
		BusinessType:       models.BusinessTypeLLC,
		Industry:           "food_and_beverage",
		BusinessAge:        60,
		LegalStructure:     models.LegalStructureFormal,
		RegistrationStatus: models.RegistrationRegistered,
		MonthlyRevenue: models.MonthlyRevenue{
			Current:     50000,
			Average:     48000,
			GrowthRate:  15,
			Seasonality: models.SeasonalityLow,
		},
		MonthlyExpenses: models.MonthlyExpenses{Fixed: 20000, Variable: 10000, Total: 30000},
		CashFlow:        models.CashFlow{Operating: 15000, Free: 10000, WorkingCapital: 20000},
		BalanceSheet: models.BalanceSheet{
			TotalAssets:        200000,
			CurrentAssets:      80000,
			TotalLiabilities:   40000,
			CurrentLiabilities: 20000,
			Equity:             160000,
		},
		FundIntention: models.FundIntention{
			Purpose:  models.FundingPurposeWorkingCapital,
			Amount:   models.AmountRange{Requested: 25000, Minimum: 10000, Maximum: 40000},
			Duration: models.DurationRange{Preferred: 12, Minimum: 6, Maximum: 24},
			RepaymentCapacity: models.RepaymentCapacity{
				MonthlyCapacity:     3000,
				PercentageOfRevenue: 6,
			},
		},
		RiskFactors: models.RiskFactors{
			MarketRisk:          models.RiskLow,
			OperationalRisk:     models.RiskLow,
			FinancialRisk:       models.RiskLow,
			EconomicSensitivity: models.RiskLow,
			RegulatoryRisk:      models.RiskLow,
			CurrencyRisk:        models.RiskLow,
			PaymentHistory:      models.PaymentHistory{OnTime: 95, Late: 4, Default: 1},
		},
		MarketContext: models.MarketContext{
			PrimaryMarket:    "ID",
			OperatingRegions: []string{"ID", "MY"},
			MarketSize:       models.MarketSizeLarge,
			CompetitionLevel: "low",
			MarketGrowth:     models.MarketGrowing,
		},
		ComplianceProfile: models.ComplianceProfile{
			KYCLevel:     models.KYCComprehensive,
			AMLRisk:      models.RiskLow,
			Jurisdiction: "ID",
		},
	}
}

// ==========================
// Full Assessment
// ==========================

func TestScore_HealthyProfile(t *testing.T) {
	got := NewEngine().Score(createTestProfile())

	assert.Equal(t, models.RiskAssessment{
		CreditRisk: models.CreditRisk{
			CreditScore:        100,
			DefaultProbability: 11,
			LossGivenDefault:   30,
			RecoveryRate:       70,
		},
		BusinessFundamentals: models.BusinessFundamentals{
			BusinessAgeScore:          100,
			RevenueStabilityScore:     80,
			MarketPositionScore:       95,
			IndustryRiskScore:         50,
			RegulatoryComplianceScore: 100,
		},
		FinancialHealth: models.FinancialHealth{
			LiquidityScore:     100,
			LeverageScore:      100,
			CashFlowScore:      100,
			ProfitabilityScore: 100,
		},
		MarketRisk: models.MarketRisk{
			MarketVolatility:      20,
			EconomicCyclePosition: 3,
			RegulatoryStability:   4,
			Seasonality:           1,
		},
	}, got)
}

func TestScore_ZeroValueProfile(t *testing.T) {
	got := Score(models.MerchantProfile{})

	assert.Equal(t, 50, got.CreditRisk.CreditScore)
	assert.Equal(t, 30, got.CreditRisk.DefaultProbability)
	assert.Equal(t, 40, got.CreditRisk.LossGivenDefault)
	assert.Equal(t, 60, got.CreditRisk.RecoveryRate)
	assert.Equal(t, 0, got.BusinessFundamentals.BusinessAgeScore)
	assert.Equal(t, 40, got.BusinessFundamentals.RevenueStabilityScore)
	assert.Equal(t, 40, got.BusinessFundamentals.RegulatoryComplianceScore)
	assert.Equal(t, 100, got.FinancialHealth.LiquidityScore)
	assert.Equal(t, 0, got.FinancialHealth.LeverageScore)
	assert.Equal(t, 0, got.FinancialHealth.CashFlowScore)
	assert.Equal(t, 0, got.FinancialHealth.ProfitabilityScore)
	assert.Equal(t, models.MarketRisk{
		MarketVolatility:      50,
		EconomicCyclePosition: 2,
		RegulatoryStability:   3,
		Seasonality:           2,
	}, got.MarketRisk)
}

func TestScore_WorstCaseClamps(t *testing.T) {
	p := createTestProfile()
	p.BusinessAge = 0
	p.RegistrationStatus = models.RegistrationUnregistered
	p.LegalStructure = models.LegalStructureInformal
	p.MonthlyRevenue.GrowthRate = -50
	p.MonthlyRevenue.Seasonality = models.SeasonalityHigh
	p.RiskFactors = models.RiskFactors{
		MarketRisk:          models.RiskHigh,
		OperationalRisk:     models.RiskHigh,
		FinancialRisk:       models.RiskHigh,
		EconomicSensitivity: models.RiskHigh,
		RegulatoryRisk:      models.RiskHigh,
		PaymentHistory:      models.PaymentHistory{OnTime: 0, Late: 0, Default: 100},
		IndustryRisks:       []string{"seasonal", "weather", "price_volatility", "regulatory"},
	}
	p.ComplianceProfile.KYCLevel = models.KYCBasic
	p.ComplianceProfile.AMLRisk = models.RiskHigh

	got := Score(p)

	assert.Equal(t, 10, got.CreditRisk.CreditScore)
	assert.Equal(t, 100, got.CreditRisk.DefaultProbability)
	assert.Equal(t, 20, got.BusinessFundamentals.RevenueStabilityScore)
	assert.Equal(t, 0, got.BusinessFundamentals.IndustryRiskScore)
	assert.Equal(t, 25, got.BusinessFundamentals.RegulatoryComplianceScore)
	assert.Equal(t, 80, got.MarketRisk.MarketVolatility)
	assert.Equal(t, 2, got.MarketRisk.RegulatoryStability)
	assert.Equal(t, 3, got.MarketRisk.Seasonality)
}

// ==========================
// Example Scenarios
// ==========================

func TestScenario_EstablishedLowRiskMerchant(t *testing.T) {
	p := createTestProfile()
	p.BusinessAge = 60
	p.RiskFactors.PaymentHistory.OnTime = 95
	p.MonthlyRevenue.GrowthRate = 15
	p.MonthlyRevenue.Seasonality = models.SeasonalityLow
	p.FundIntention.Collateral = models.Collateral{}

	assert.GreaterOrEqual(t, Score(p).CreditRisk.CreditScore, 85)
}

func TestScenario_YoungHighRiskMerchant(t *testing.T) {
	p := createTestProfile()
	p.BusinessAge = 3
	p.RiskFactors.FinancialRisk = models.RiskHigh
	p.RiskFactors.OperationalRisk = models.RiskHigh
	p.RiskFactors.MarketRisk = models.RiskHigh
	p.RiskFactors.PaymentHistory.Default = 10

	got := Score(p).CreditRisk.DefaultProbability
	assert.GreaterOrEqual(t, got, 45)
	assert.Equal(t, 75, got)
}

func TestScenario_LiquidityAndLeverage(t *testing.T) {
	p := createTestProfile()
	p.BalanceSheet.CurrentAssets = 20000
	p.BalanceSheet.CurrentLiabilities = 5000
	p.BalanceSheet.TotalLiabilities = 0
	p.BalanceSheet.TotalAssets = 50000

	got := Score(p).FinancialHealth
	assert.Equal(t, 100, got.LiquidityScore)
	assert.Equal(t, 100, got.LeverageScore)
}

// ==========================
// Component Tiers
// ==========================

func TestBusinessAgeScore(t *testing.T) {
	tests := []struct {
		months int
		want   int
	}{
		{0, 0}, {5, 0}, {6, 20}, {11, 20}, {12, 40}, {24, 60}, {35, 60}, {36, 80}, {59, 80}, {60, 100}, {240, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, businessAgeScore(tt.months), "months=%d", tt.months)
	}
}

func TestLiquidityScoreTiers(t *testing.T) {
	tests := []struct {
		assets, liabilities float64
		want                int
	}{
		{100, 50, 100},
		{150, 100, 80},
		{100, 100, 60},
		{50, 100, 40},
		{49, 100, 20},
		{0, 0, 100},
	}
	for _, tt := range tests {
		got := liquidityScore(models.BalanceSheet{CurrentAssets: tt.assets, CurrentLiabilities: tt.liabilities})
		assert.Equal(t, tt.want, got, "%v/%v", tt.assets, tt.liabilities)
	}
}

func TestLeverageScoreTiers(t *testing.T) {
	tests := []struct {
		liabilities, assets float64
		want                int
	}{
		{20, 100, 100},
		{40, 100, 80},
		{60, 100, 60},
		{80, 100, 40},
		{81, 100, 20},
		{10, 0, 0},
	}
	for _, tt := range tests {
		got := leverageScore(models.BalanceSheet{TotalLiabilities: tt.liabilities, TotalAssets: tt.assets})
		assert.Equal(t, tt.want, got, "%v/%v", tt.liabilities, tt.assets)
	}
}

func TestCashFlowAndProfitabilityTiers(t *testing.T) {
	p := createTestProfile()
	p.MonthlyRevenue.Current = 1000

	tests := []struct {
		operating, free        float64
		wantCashFlow, wantProf int
	}{
		{300, 200, 100, 100},
		{200, 100, 80, 80},
		{100, 50, 60, 60},
		{0, 0, 40, 40},
		{-1, -1, 20, 20},
	}
	for _, tt := range tests {
		p.CashFlow.Operating = tt.operating
		p.CashFlow.Free = tt.free
		assert.Equal(t, tt.wantCashFlow, cashFlowScore(p))
		assert.Equal(t, tt.wantProf, profitabilityScore(p))
	}
}

func TestLossGivenDefault_Collateral(t *testing.T) {
	tests := []struct {
		name       string
		collateral models.Collateral
		wantLGD    int
		wantCredit int
	}{
		{"none", models.Collateral{}, 30, 100},
		{"high liquidity", models.Collateral{Available: true, Type: models.CollateralRealEstate, Liquidity: models.RiskHigh}, 10, 100},
		{"medium liquidity", models.Collateral{Available: true, Liquidity: models.RiskMedium}, 20, 100},
		{"low liquidity", models.Collateral{Available: true, Liquidity: models.RiskLow}, 25, 100},
		{"unset liquidity", models.Collateral{Available: true}, 25, 100},
		{"liquidity without availability", models.Collateral{Liquidity: models.RiskHigh}, 30, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := createTestProfile()
			p.FundIntention.Collateral = tt.collateral
			got := Score(p).CreditRisk
			assert.Equal(t, tt.wantLGD, got.LossGivenDefault)
			assert.Equal(t, 100-tt.wantLGD, got.RecoveryRate)
			assert.Equal(t, tt.wantCredit, got.CreditScore)
		})
	}
}

func TestIndustryRiskScore_DeductionsCompose(t *testing.T) {
	p := createTestProfile()

	p.RiskFactors.IndustryRisks = []string{"weather"}
	assert.Equal(t, 35, industryRiskScore(p))

	p.RiskFactors.IndustryRisks = []string{"seasonal", "regulatory"}
	assert.Equal(t, 30, industryRiskScore(p))

	p.RiskFactors.IndustryRisks = []string{"unknown_tag"}
	assert.Equal(t, 50, industryRiskScore(p))
}

// ==========================
// Properties
// ==========================

var (
	levels   = []models.RiskLevel{"", models.RiskLow, models.RiskMedium, models.RiskHigh, "extreme"}
	growths  = []string{"", models.MarketDeclining, models.MarketStable, models.MarketGrowing, models.MarketRapidlyGrowing}
	sizes    = []string{"", models.MarketSizeMicro, models.MarketSizeSmall, models.MarketSizeMedium, models.MarketSizeLarge}
	kycs     = []string{"", models.KYCBasic, models.KYCEnhanced, models.KYCComprehensive}
	riskTags = []string{"seasonal", "weather", "price_volatility", "regulatory", "supply_chain"}
)

func randomProfile(r *rand.Rand) models.MerchantProfile {
	level := func() models.RiskLevel { return levels[r.Intn(len(levels))] }
	money := func() float64 { return r.Float64() * 1e6 }
	signed := func() float64 { return (r.Float64() - 0.5) * 2e5 }
	pct := func() float64 { return r.Float64() * 100 }

	p := createTestProfile()
	p.BusinessAge = r.Intn(400)
	p.RegistrationStatus = []string{models.RegistrationRegistered, models.RegistrationUnregistered, ""}[r.Intn(3)]
	p.LegalStructure = []string{models.LegalStructureFormal, models.LegalStructureInformal}[r.Intn(2)]
	p.MonthlyRevenue = models.MonthlyRevenue{Current: money() * float64(r.Intn(2)), GrowthRate: (r.Float64() - 0.5) * 200, Seasonality: level()}
	p.CashFlow = models.CashFlow{Operating: signed(), Free: signed(), WorkingCapital: money()}
	assets, liabilities := money()*float64(r.Intn(2)), money()
	p.BalanceSheet = models.BalanceSheet{
		TotalAssets:        assets,
		CurrentAssets:      money(),
		TotalLiabilities:   liabilities,
		CurrentLiabilities: money() * float64(r.Intn(2)),
		Equity:             assets - liabilities,
	}
	p.FundIntention.Collateral = models.Collateral{Available: r.Intn(2) == 1, Liquidity: level()}
	p.RiskFactors = models.RiskFactors{
		MarketRisk:          level(),
		OperationalRisk:     level(),
		FinancialRisk:       level(),
		EconomicSensitivity: level(),
		RegulatoryRisk:      level(),
		PaymentHistory:      models.PaymentHistory{OnTime: pct(), Late: pct(), Default: pct()},
	}
	for _, tag := range riskTags {
		if r.Intn(2) == 1 {
			p.RiskFactors.IndustryRisks = append(p.RiskFactors.IndustryRisks, tag)
		}
	}
	p.MarketContext.MarketSize = sizes[r.Intn(len(sizes))]
	p.MarketContext.CompetitionLevel = string(level())
	p.MarketContext.MarketGrowth = growths[r.Intn(len(growths))]
	p.ComplianceProfile.KYCLevel = kycs[r.Intn(len(kycs))]
	p.ComplianceProfile.AMLRisk = level()
	return p
}

func assertScore(t *testing.T, name string, v int) {
	t.Helper()
	assert.GreaterOrEqual(t, v, minScore, name)
	assert.LessOrEqual(t, v, maxScore, name)
}

func assertRating(t *testing.T, name string, v int) {
	t.Helper()
	assert.GreaterOrEqual(t, v, minRating, name)
	assert.LessOrEqual(t, v, maxRating, name)
}

func TestScore_Bounded(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		a := Score(randomProfile(r))

		assertScore(t, "creditScore", a.CreditRisk.CreditScore)
		assertScore(t, "defaultProbability", a.CreditRisk.DefaultProbability)
		assertScore(t, "lossGivenDefault", a.CreditRisk.LossGivenDefault)
		assertScore(t, "recoveryRate", a.CreditRisk.RecoveryRate)
		assertScore(t, "businessAgeScore", a.BusinessFundamentals.BusinessAgeScore)
		assertScore(t, "revenueStabilityScore", a.BusinessFundamentals.RevenueStabilityScore)
		assertScore(t, "marketPositionScore", a.BusinessFundamentals.MarketPositionScore)
		assertScore(t, "industryRiskScore", a.BusinessFundamentals.IndustryRiskScore)
		assertScore(t, "regulatoryComplianceScore", a.BusinessFundamentals.RegulatoryComplianceScore)
		assertScore(t, "liquidityScore", a.FinancialHealth.LiquidityScore)
		assertScore(t, "leverageScore", a.FinancialHealth.LeverageScore)
		assertScore(t, "cashFlowScore", a.FinancialHealth.CashFlowScore)
		assertScore(t, "profitabilityScore", a.FinancialHealth.ProfitabilityScore)
		assertScore(t, "marketVolatility", a.MarketRisk.MarketVolatility)
		assertRating(t, "economicCyclePosition", a.MarketRisk.EconomicCyclePosition)
		assertRating(t, "regulatoryStability", a.MarketRisk.RegulatoryStability)
		assertRating(t, "seasonality", a.MarketRisk.Seasonality)

		require.Equal(t, 100, a.CreditRisk.LossGivenDefault+a.CreditRisk.RecoveryRate)
	}
}

func TestScore_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p := randomProfile(r)
		first, err := json.Marshal(Score(p))
		require.NoError(t, err)
		second, err := json.Marshal(Score(p))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestScore_DoesNotMutateProfile(t *testing.T) {
	p := createTestProfile()
	p.RiskFactors.IndustryRisks = []string{"weather", "seasonal"}

	snapshot := p
	snapshot.RiskFactors.IndustryRisks = append([]string(nil), p.RiskFactors.IndustryRisks...)
	snapshot.MarketContext.OperatingRegions = append([]string(nil), p.MarketContext.OperatingRegions...)

	_ = Score(p)

	assert.Equal(t, snapshot, p)
	assert.Equal(t, p.BalanceSheet.TotalAssets-p.BalanceSheet.TotalLiabilities, p.BalanceSheet.Equity)
}

func TestPercentPoints(t *testing.T) {
	assert.Equal(t, 0, percentPoints(-3))
	assert.Equal(t, 3, percentPoints(2.5))
	assert.Equal(t, 2, percentPoints(2.4))
	assert.Equal(t, 0, percentPoints(math.NaN()))
	assert.Equal(t, 100, percentPoints(250))
}
