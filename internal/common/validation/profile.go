// Package validation checks merchant profiles before they enter the pipeline.
package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/models"
)

// amountTolerance absorbs float rounding in submitted totals.
const amountTolerance = 0.01

// shareTolerance allows payment-history percentages rounded to whole points.
const shareTolerance = 1.0

// ProfileValidator validates structure with a JSON schema, then the
// cross-field invariants a schema cannot express.
type ProfileValidator struct {
	schema *gojsonschema.Schema
}

func NewProfileValidator() (*ProfileValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(profileSchema))
	if err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}
	return &ProfileValidator{schema: schema}, nil
}

// Validate returns nil or an *apperrors.ValidationError listing every
// rejected field.
func (v *ProfileValidator) Validate(profile models.MerchantProfile) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(profile))
	if err != nil {
		return apperrors.NewValidationError(apperrors.FieldError{Field: "(root)", Message: err.Error()})
	}

	var fields []apperrors.FieldError
	if !result.Valid() {
		for _, desc := range result.Errors() {
			fields = append(fields, apperrors.FieldError{Field: desc.Field(), Message: desc.Description()})
		}
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	}

	fields = append(fields, checkInvariants(profile)...)
	if len(fields) > 0 {
		return apperrors.NewValidationError(fields...)
	}
	return nil
}

func checkInvariants(p models.MerchantProfile) []apperrors.FieldError {
	var fields []apperrors.FieldError
	add := func(field, format string, args ...interface{}) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	e := p.MonthlyExpenses
	if !approxEqual(e.Total, e.Fixed+e.Variable) {
		add("monthlyExpenses.total", "must equal fixed + variable (%.2f), got %.2f", e.Fixed+e.Variable, e.Total)
	}

	b := p.BalanceSheet
	if !approxEqual(b.Equity, b.TotalAssets-b.TotalLiabilities) {
		add("balanceSheet.equity", "must equal totalAssets - totalLiabilities (%.2f), got %.2f", b.TotalAssets-b.TotalLiabilities, b.Equity)
	}
	if b.CurrentAssets > b.TotalAssets+amountTolerance {
		add("balanceSheet.currentAssets", "must not exceed totalAssets")
	}
	if b.CurrentLiabilities > b.TotalLiabilities+amountTolerance {
		add("balanceSheet.currentLiabilities", "must not exceed totalLiabilities")
	}

	a := p.FundIntention.Amount
	if a.Minimum > a.Requested || a.Requested > a.Maximum {
		add("fundIntention.amount", "requires minimum <= requested <= maximum")
	}

	d := p.FundIntention.Duration
	if d.Minimum > d.Preferred || d.Preferred > d.Maximum {
		add("fundIntention.duration", "requires minimum <= preferred <= maximum")
	}

	h := p.RiskFactors.PaymentHistory
	if sum := h.OnTime + h.Late + h.Default; math.Abs(sum-100) > shareTolerance {
		add("riskFactors.paymentHistory", "onTime + late + default must be about 100, got %.2f", sum)
	}

	return fields
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= amountTolerance
}
