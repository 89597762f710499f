package policy

import (
	"merchant-onboarding/internal/models"
)

// Rejection reasons, suitable for display.
const (
	ReasonVerifierRejected     = "attestation rejected by verifier"
	ReasonBelowMinimumAge      = "below minimum age"
	ReasonExcludedJurisdiction = "excluded jurisdiction"
	ReasonUnknownNationality   = "unrecognized nationality"
	ReasonKindNotAccepted      = "attestation kind not accepted"
)

// Validate checks att against p and returns the first failing reason.
// Checks run in a fixed order and stop at the first failure. While exclusion
// is enforced a disclosed nationality that is not an ISO-3166 code fails, so
// an unmapped spelling cannot slip past the list.
func Validate(att models.VerificationAttestation, p Policy) (bool, string) {
	if !att.Valid {
		return false, ReasonVerifierRejected
	}
	if att.Age != nil && *att.Age < p.MinimumAge() {
		return false, ReasonBelowMinimumAge
	}
	if p.EnforcesNationalityExclusion() && att.Nationality != nil {
		if _, known := models.NormalizeCountry(*att.Nationality); !known {
			return false, ReasonUnknownNationality
		}
		if p.IsExcluded(*att.Nationality) {
			return false, ReasonExcludedJurisdiction
		}
	}
	if !p.Accepts(att.Kind) {
		return false, ReasonKindNotAccepted
	}
	return true, ""
}

// Validator binds a Policy loaded at process start.
type Validator struct {
	policy Policy
}

func NewValidator(p Policy) *Validator {
	return &Validator{policy: p}
}

func (v *Validator) Validate(att models.VerificationAttestation) (bool, string) {
	return Validate(att, v.policy)
}

func (v *Validator) Policy() Policy {
	return v.policy
}
