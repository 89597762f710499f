package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestValidate(t *testing.T) {
	p := Default()

	tests := []struct {
		name   string
		att    models.VerificationAttestation
		ok     bool
		reason string
	}{
		{
			name: "accepted",
			att:  models.VerificationAttestation{Valid: true, Age: intPtr(30), Nationality: strPtr("DE"), Kind: models.AttestationPassport},
			ok:   true,
		},
		{
			name: "no disclosed attributes",
			att:  models.VerificationAttestation{Valid: true, Kind: models.AttestationNationalID},
			ok:   true,
		},
		{
			name:   "verifier rejected",
			att:    models.VerificationAttestation{Valid: false, Age: intPtr(30), Kind: models.AttestationPassport},
			reason: ReasonVerifierRejected,
		},
		{
			name:   "below minimum age",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(16), Kind: models.AttestationPassport},
			reason: ReasonBelowMinimumAge,
		},
		{
			name: "exactly minimum age",
			att:  models.VerificationAttestation{Valid: true, Age: intPtr(18), Kind: models.AttestationPassport},
			ok:   true,
		},
		{
			name:   "excluded jurisdiction",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("kp"), Kind: models.AttestationEUIDCard},
			reason: ReasonExcludedJurisdiction,
		},
		{
			name:   "excluded jurisdiction alpha-3",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("IRN"), Kind: models.AttestationPassport},
			reason: ReasonExcludedJurisdiction,
		},
		{
			name:   "excluded jurisdiction lower-case alpha-3",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr(" prk "), Kind: models.AttestationPassport},
			reason: ReasonExcludedJurisdiction,
		},
		{
			name: "allowed alpha-3",
			att:  models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("KEN"), Kind: models.AttestationPassport},
			ok:   true,
		},
		{
			name: "ICAO single-letter Germany",
			att:  models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("D<<"), Kind: models.AttestationPassport},
			ok:   true,
		},
		{
			name:   "country name is not a code",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("Iran"), Kind: models.AttestationPassport},
			reason: ReasonUnknownNationality,
		},
		{
			name:   "unassigned alpha-2",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr("ZZ"), Kind: models.AttestationPassport},
			reason: ReasonUnknownNationality,
		},
		{
			name:   "empty nationality",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Nationality: strPtr(""), Kind: models.AttestationPassport},
			reason: ReasonUnknownNationality,
		},
		{
			name:   "unknown kind",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(40), Kind: models.AttestationKind(7)},
			reason: ReasonKindNotAccepted,
		},
		{
			name:   "invalid short-circuits before age",
			att:    models.VerificationAttestation{Valid: false, Age: intPtr(10), Nationality: strPtr("IR")},
			reason: ReasonVerifierRejected,
		},
		{
			name:   "age checked before jurisdiction",
			att:    models.VerificationAttestation{Valid: true, Age: intPtr(10), Nationality: strPtr("IR"), Kind: models.AttestationPassport},
			reason: ReasonBelowMinimumAge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Validate(tt.att, p)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestValidate_ExclusionNotEnforced(t *testing.T) {
	p, err := New(Options{
		MinimumAge:        18,
		ExcludedCountries: []string{"IR"},
		AcceptedKinds:     []models.AttestationKind{models.AttestationPassport},
	})
	require.NoError(t, err)

	ok, _ := NewValidator(p).Validate(models.VerificationAttestation{
		Valid:       true,
		Nationality: strPtr("IR"),
		Kind:        models.AttestationPassport,
	})
	assert.True(t, ok)
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(Options{MinimumAge: 121})
	assert.Error(t, err)

	_, err = New(Options{MinimumAge: 18, ExcludedCountries: []string{"Iran"}})
	assert.Error(t, err)

	_, err = New(Options{MinimumAge: 18, ExcludedCountries: []string{"QQ"}})
	assert.Error(t, err)

	_, err = New(Options{MinimumAge: 18, AcceptedKinds: []models.AttestationKind{0}})
	assert.Error(t, err)
}

func TestPolicy_IsImmutable(t *testing.T) {
	countries := []string{"IR"}
	p, err := New(Options{MinimumAge: 18, ExcludedCountries: countries, EnforceNationalityExclusion: true})
	require.NoError(t, err)

	countries[0] = "DE"
	assert.True(t, p.IsExcluded("IR"))
	assert.False(t, p.IsExcluded("DE"))

	list := p.ExcludedCountries()
	list[0] = "FR"
	assert.Equal(t, []string{"IR"}, p.ExcludedCountries())
}

func TestNew_AcceptsAlpha3Exclusions(t *testing.T) {
	p, err := New(Options{
		MinimumAge:                  18,
		ExcludedCountries:           []string{"IRN", "prk", "RUS", "SYR"},
		EnforceNationalityExclusion: true,
		AcceptedKinds:               []models.AttestationKind{models.AttestationPassport},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"IR", "KP", "RU", "SY"}, p.ExcludedCountries())
	assert.True(t, p.IsExcluded("IR"))
	assert.True(t, p.IsExcluded("irn"))
	assert.False(t, p.IsExcluded("Iran"))
}

func TestValidate_UnknownNationalityPassesWhenExclusionNotEnforced(t *testing.T) {
	p, err := New(Options{MinimumAge: 18, AcceptedKinds: []models.AttestationKind{models.AttestationPassport}})
	require.NoError(t, err)

	ok, reason := Validate(models.VerificationAttestation{
		Valid:       true,
		Nationality: strPtr("Atlantis"),
		Kind:        models.AttestationPassport,
	}, p)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 18, p.MinimumAge())
	assert.Equal(t, []string{"IR", "KP", "RU", "SY"}, p.ExcludedCountries())
	assert.True(t, p.Accepts(models.AttestationEUIDCard))
}
