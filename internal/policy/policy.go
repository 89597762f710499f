// Package policy holds the compliance gate applied to identity attestations
// before any score is computed or any commit is attempted.
package policy

import (
	"fmt"
	"sort"

	"merchant-onboarding/internal/models"
)

const (
	DefaultMinimumAge = 18
	maxMinimumAge     = 120
)

// DefaultExcludedCountries are ISO-3166 alpha-2 codes. New also accepts the
// alpha-3 form (IRN, PRK, RUS, SYR) and stores alpha-2.
var DefaultExcludedCountries = []string{"IR", "KP", "RU", "SY"}

// Options is the mutable input to New.
type Options struct {
	MinimumAge                  int
	ExcludedCountries           []string
	EnforceNationalityExclusion bool
	AcceptedKinds               []models.AttestationKind
}

// Policy is immutable once built. The zero value accepts nothing.
type Policy struct {
	minimumAge      int
	excluded        map[string]struct{}
	enforceExcluded bool
	accepted        map[models.AttestationKind]struct{}
}

// New validates opts and copies them into a Policy.
func New(opts Options) (Policy, error) {
	if opts.MinimumAge < 0 || opts.MinimumAge > maxMinimumAge {
		return Policy{}, fmt.Errorf("minimum age must be between 0 and %d, got %d", maxMinimumAge, opts.MinimumAge)
	}

	p := Policy{
		minimumAge:      opts.MinimumAge,
		excluded:        make(map[string]struct{}, len(opts.ExcludedCountries)),
		enforceExcluded: opts.EnforceNationalityExclusion,
		accepted:        make(map[models.AttestationKind]struct{}, len(opts.AcceptedKinds)),
	}
	for _, c := range opts.ExcludedCountries {
		code, ok := models.NormalizeCountry(c)
		if !ok {
			return Policy{}, fmt.Errorf("excluded country %q is not an ISO-3166 code", c)
		}
		p.excluded[code] = struct{}{}
	}
	for _, k := range opts.AcceptedKinds {
		if !k.Valid() {
			return Policy{}, fmt.Errorf("unknown attestation kind %d", int(k))
		}
		p.accepted[k] = struct{}{}
	}
	return p, nil
}

// Default returns the production policy: age 18, nationality exclusion
// enforced against DefaultExcludedCountries, all three document kinds.
func Default() Policy {
	p, _ := New(Options{
		MinimumAge:                  DefaultMinimumAge,
		ExcludedCountries:           DefaultExcludedCountries,
		EnforceNationalityExclusion: true,
		AcceptedKinds: []models.AttestationKind{
			models.AttestationPassport,
			models.AttestationEUIDCard,
			models.AttestationNationalID,
		},
	})
	return p
}

func (p Policy) MinimumAge() int { return p.minimumAge }

func (p Policy) EnforcesNationalityExclusion() bool { return p.enforceExcluded }

// IsExcluded reports whether country, in alpha-2 or alpha-3 form, is on the
// exclusion list, regardless of whether exclusion is enforced. Unrecognised
// codes are not on the list; Validate rejects them separately.
func (p Policy) IsExcluded(country string) bool {
	code, ok := models.NormalizeCountry(country)
	if !ok {
		return false
	}
	_, excluded := p.excluded[code]
	return excluded
}

func (p Policy) Accepts(kind models.AttestationKind) bool {
	_, ok := p.accepted[kind]
	return ok
}

// ExcludedCountries returns a sorted copy of the exclusion list.
func (p Policy) ExcludedCountries() []string {
	out := make([]string, 0, len(p.excluded))
	for c := range p.excluded {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
