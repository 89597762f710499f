// Package assessmentkey derives content-addressed identifiers from a merchant
// profile. The assessment key is the idempotency token presented to the ledger.
package assessmentkey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"merchant-onboarding/internal/models"
)

// keyFields is the canonical serialization of a key. Field order is fixed by
// the struct and must not change, or every previously issued key changes.
type keyFields struct {
	BusinessName   string              `json:"businessName"`
	BusinessType   models.BusinessType `json:"businessType"`
	Industry       string              `json:"industry"`
	BusinessAge    int                 `json:"businessAge"`
	LegalStructure string              `json:"legalStructure"`
	Submitter      string              `json:"submitter"`
	Nonce          uint64              `json:"nonce"`
}

type businessFields struct {
	BusinessName   string              `json:"businessName"`
	BusinessType   models.BusinessType `json:"businessType"`
	Industry       string              `json:"industry"`
	BusinessAge    int                 `json:"businessAge"`
	LegalStructure string              `json:"legalStructure"`
}

// SumObject hashes the JSON encoding of v with SHA-256.
func SumObject(v any) ([sha256.Size]byte, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return [sha256.Size]byte{}, nil, err
	}
	return sha256.Sum256(b), b, nil
}

// mustSum is for the fixed structs above, whose encoding cannot fail.
func mustSum(v any) [sha256.Size]byte {
	sum, _, err := SumObject(v)
	if err != nil {
		panic(fmt.Sprintf("assessmentkey: encode %T: %v", v, err))
	}
	return sum
}

// DeriveKey returns the same key for the same (profile identity, submitter,
// nonce). The submitter address is hashed in its lower-case form.
func DeriveKey(profile models.MerchantProfile, submitter models.Address, nonce uint64) models.AssessmentKey {
	return models.AssessmentKey(mustSum(keyFields{
		BusinessName:   profile.BusinessName,
		BusinessType:   profile.BusinessType,
		Industry:       profile.Industry,
		BusinessAge:    profile.BusinessAge,
		LegalStructure: profile.LegalStructure,
		Submitter:      submitter.Canonical(),
		Nonce:          nonce,
	}))
}

// BusinessID identifies the business independent of submitter and attempt.
func BusinessID(profile models.MerchantProfile) string {
	sum := mustSum(businessFields{
		BusinessName:   profile.BusinessName,
		BusinessType:   profile.BusinessType,
		Industry:       profile.Industry,
		BusinessAge:    profile.BusinessAge,
		LegalStructure: profile.LegalStructure,
	})
	return "0x" + hex.EncodeToString(sum[:])
}

// CountryCodeHash hashes an ISO-3166 alpha-2 code as given.
func CountryCodeHash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return "0x" + hex.EncodeToString(sum[:])
}

// Deriver is the injectable form of DeriveKey.
type Deriver struct{}

func NewDeriver() *Deriver {
	return &Deriver{}
}

func (d *Deriver) DeriveKey(profile models.MerchantProfile, submitter models.Address, nonce uint64) models.AssessmentKey {
	return DeriveKey(profile, submitter, nonce)
}
