// internal/models/merchant.go
package models

// BusinessType is the declared legal form of the merchant.
type BusinessType string

const (
	BusinessTypeSoleProprietor BusinessType = "sole-proprietor"
	BusinessTypePartnership    BusinessType = "partnership"
	BusinessTypeCorporation    BusinessType = "corporation"
	BusinessTypeLLC            BusinessType = "llc"
	BusinessTypeOther          BusinessType = "other"
)

// RiskLevel is the three-step scale shared by every categorical risk field.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Seasonality levels reuse the risk scale.
const (
	SeasonalityLow    = RiskLow
	SeasonalityMedium = RiskMedium
	SeasonalityHigh   = RiskHigh
)

const (
	LegalStructureFormal   = "formal"
	LegalStructureInformal = "informal"

	RegistrationRegistered   = "registered"
	RegistrationUnregistered = "unregistered"
)

const (
	FundingPurposeWorkingCapital = "working_capital"
	FundingPurposeEquipment      = "equipment"
	FundingPurposeExpansion      = "expansion"
	FundingPurposeInventory      = "inventory"
	FundingPurposeOther          = "other"
)

const (
	CollateralEquipment  = "equipment"
	CollateralRealEstate = "real_estate"
	CollateralInventory  = "inventory"
	CollateralCrypto     = "crypto"
	CollateralOther      = "other"
)

const (
	MarketSizeMicro  = "micro"
	MarketSizeSmall  = "small"
	MarketSizeMedium = "medium"
	MarketSizeLarge  = "large"

	MarketDeclining      = "declining"
	MarketStable         = "stable"
	MarketGrowing        = "growing"
	MarketRapidlyGrowing = "rapidly_growing"
)

const (
	KYCBasic         = "basic"
	KYCEnhanced      = "enhanced"
	KYCComprehensive = "comprehensive"
)

// Industry risk tags that carry a scoring deduction.
const (
	IndustryRiskSeasonal        = "seasonal"
	IndustryRiskWeather         = "weather"
	IndustryRiskPriceVolatility = "price_volatility"
	IndustryRiskRegulatory      = "regulatory"
)

// MerchantProfile is the immutable snapshot a merchant submits for one assessment attempt.
type MerchantProfile struct {
	BusinessName       string       `json:"businessName"`
	BusinessType       BusinessType `json:"businessType"`
	Industry           string       `json:"industry"`
	BusinessAge        int          `json:"businessAge"` // months
	LegalStructure     string       `json:"legalStructure"`
	RegistrationStatus string       `json:"registrationStatus"`

	MonthlyRevenue  MonthlyRevenue  `json:"monthlyRevenue"`
	MonthlyExpenses MonthlyExpenses `json:"monthlyExpenses"`
	CashFlow        CashFlow        `json:"cashFlow"`
	BalanceSheet    BalanceSheet    `json:"balanceSheet"`

	FundIntention     FundIntention     `json:"fundIntention"`
	RiskFactors       RiskFactors       `json:"riskFactors"`
	MarketContext     MarketContext     `json:"marketContext"`
	ComplianceProfile ComplianceProfile `json:"complianceProfile"`
}

type MonthlyRevenue struct {
	Current     float64   `json:"current"`
	Average     float64   `json:"average"`
	GrowthRate  float64   `json:"growthRate"` // percent
	Seasonality RiskLevel `json:"seasonality"`
}

type MonthlyExpenses struct {
	Fixed    float64 `json:"fixed"`
	Variable float64 `json:"variable"`
	Total    float64 `json:"total"`
}

type CashFlow struct {
	Operating      float64 `json:"operating"`
	Free           float64 `json:"free"`
	WorkingCapital float64 `json:"workingCapital"`
}

type BalanceSheet struct {
	TotalAssets        float64 `json:"totalAssets"`
	CurrentAssets      float64 `json:"currentAssets"`
	TotalLiabilities   float64 `json:"totalLiabilities"`
	CurrentLiabilities float64 `json:"currentLiabilities"`
	Equity             float64 `json:"equity"`
}

type FundIntention struct {
	Purpose           string            `json:"purpose"`
	Amount            AmountRange       `json:"amount"`
	Duration          DurationRange     `json:"duration"`
	RepaymentCapacity RepaymentCapacity `json:"repaymentCapacity"`
	Collateral        Collateral        `json:"collateral"`
}

type AmountRange struct {
	Requested float64 `json:"requested"`
	Minimum   float64 `json:"minimum"`
	Maximum   float64 `json:"maximum"`
}

// DurationRange is expressed in months, bounded 1-60.
type DurationRange struct {
	Preferred int `json:"preferred"`
	Minimum   int `json:"minimum"`
	Maximum   int `json:"maximum"`
}

type RepaymentCapacity struct {
	MonthlyCapacity     float64 `json:"monthlyCapacity"`
	PercentageOfRevenue float64 `json:"percentageOfRevenue"`
}

type Collateral struct {
	Available bool      `json:"available"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Liquidity RiskLevel `json:"liquidity"`
}

type RiskFactors struct {
	MarketRisk          RiskLevel      `json:"marketRisk"`
	OperationalRisk     RiskLevel      `json:"operationalRisk"`
	FinancialRisk       RiskLevel      `json:"financialRisk"`
	EconomicSensitivity RiskLevel      `json:"economicSensitivity"`
	RegulatoryRisk      RiskLevel      `json:"regulatoryRisk"`
	CurrencyRisk        RiskLevel      `json:"currencyRisk"`
	PaymentHistory      PaymentHistory `json:"paymentHistory"`
	IndustryRisks       []string       `json:"industryRisks"`
}

// PaymentHistory percentages, each 0-100.
type PaymentHistory struct {
	OnTime  float64 `json:"onTime"`
	Late    float64 `json:"late"`
	Default float64 `json:"default"`
}

type MarketContext struct {
	PrimaryMarket    string   `json:"primaryMarket"`    // ISO-3166 alpha-2
	OperatingRegions []string `json:"operatingRegions"` // ISO-3166 alpha-2
	MarketSize       string   `json:"marketSize"`
	CompetitionLevel string   `json:"competitionLevel"`
	MarketGrowth     string   `json:"marketGrowth"`
}

type ComplianceProfile struct {
	KYCLevel               string    `json:"kycLevel"`
	AMLRisk                RiskLevel `json:"amlRisk"`
	RegulatoryRequirements []string  `json:"regulatoryRequirements,omitempty"`
	Jurisdiction           string    `json:"jurisdiction"` // ISO-3166 alpha-2
}

// HasIndustryRisk reports whether tag is present in the industry risk set.
func (r RiskFactors) HasIndustryRisk(tag string) bool {
	for _, t := range r.IndustryRisks {
		if t == tag {
			return true
		}
	}
	return false
}
