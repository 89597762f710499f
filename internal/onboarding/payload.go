package onboarding

import (
	"fmt"
	"sort"
	"strings"

	"merchant-onboarding/internal/assessmentkey"
	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/models"
)

// CollateralCode maps a collateral type onto the ledger's numeric code.
func CollateralCode(collateralType string) uint8 {
	switch strings.ToLower(collateralType) {
	case models.CollateralEquipment:
		return models.CollateralCodeEquipment
	case models.CollateralRealEstate:
		return models.CollateralCodeRealEstate
	case models.CollateralInventory:
		return models.CollateralCodeInventory
	case models.CollateralCrypto:
		return models.CollateralCodeCrypto
	default:
		return models.CollateralCodeOther
	}
}

// BuildPayload assembles the ledger record for an assessment. The submitter
// acts as merchant wallet, collateral holder and protection seller.
func BuildPayload(
	profile models.MerchantProfile,
	submitter models.Address,
	key models.AssessmentKey,
	assessment models.RiskAssessment,
) models.CommitPayload {
	wallet := models.Address(submitter.Canonical())
	return models.CommitPayload{
		AssessmentKey:     key,
		BusinessID:        assessmentkey.BusinessID(profile),
		CountryCodeHash:   assessmentkey.CountryCodeHash(profile.MarketContext.PrimaryMarket),
		MerchantWallet:    wallet,
		CollateralAddress: wallet,
		ProtectionSeller:  wallet,
		CollateralType:    CollateralCode(profile.FundIntention.Collateral.Type),
		RiskAssessment:    assessment,
	}
}

// ValidatePayload checks a payload that did not come straight from
// BuildPayload: a set key, well-formed addresses, an in-range collateral code
// and an assessment inside the engine's output bounds.
func ValidatePayload(p models.CommitPayload) error {
	var fields []apperrors.FieldError
	add := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: msg})
	}

	if p.AssessmentKey.IsZero() {
		add("assessmentKey", "is required")
	}
	for field, addr := range map[string]models.Address{
		"merchantWallet":    p.MerchantWallet,
		"collateralAddress": p.CollateralAddress,
		"protectionSeller":  p.ProtectionSeller,
	} {
		if err := addr.Validate(); err != nil {
			add(field, err.Error())
		}
	}
	if p.CollateralType > models.CollateralCodeOther {
		add("collateralType", fmt.Sprintf("unknown code %d", p.CollateralType))
	}

	a := p.RiskAssessment
	for field, v := range map[string]int{
		"creditScore":               a.CreditRisk.CreditScore,
		"defaultProbability":        a.CreditRisk.DefaultProbability,
		"lossGivenDefault":          a.CreditRisk.LossGivenDefault,
		"recoveryRate":              a.CreditRisk.RecoveryRate,
		"businessAgeScore":          a.BusinessFundamentals.BusinessAgeScore,
		"revenueStabilityScore":     a.BusinessFundamentals.RevenueStabilityScore,
		"marketPositionScore":       a.BusinessFundamentals.MarketPositionScore,
		"industryRiskScore":         a.BusinessFundamentals.IndustryRiskScore,
		"regulatoryComplianceScore": a.BusinessFundamentals.RegulatoryComplianceScore,
		"liquidityScore":            a.FinancialHealth.LiquidityScore,
		"leverageScore":             a.FinancialHealth.LeverageScore,
		"cashFlowScore":             a.FinancialHealth.CashFlowScore,
		"profitabilityScore":        a.FinancialHealth.ProfitabilityScore,
		"marketVolatility":          a.MarketRisk.MarketVolatility,
	} {
		if v < 0 || v > 100 {
			add("riskAssessment."+field, fmt.Sprintf("must be within [0,100], got %d", v))
		}
	}
	for field, v := range map[string]int{
		"economicCyclePosition": a.MarketRisk.EconomicCyclePosition,
		"regulatoryStability":   a.MarketRisk.RegulatoryStability,
		"seasonality":           a.MarketRisk.Seasonality,
	} {
		if v < 1 || v > 5 {
			add("riskAssessment."+field, fmt.Sprintf("must be within [1,5], got %d", v))
		}
	}
	if a.CreditRisk.RecoveryRate+a.CreditRisk.LossGivenDefault != 100 {
		add("riskAssessment.recoveryRate", "recoveryRate + lossGivenDefault must equal 100")
	}

	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return apperrors.NewValidationError(fields...)
}
