// internal/models/attestation.go
package models

import (
	"fmt"
	"regexp"
	"strings"
)

// AttestationKind identifies the identity document behind an attestation.
type AttestationKind int

const (
	AttestationPassport   AttestationKind = 1
	AttestationEUIDCard   AttestationKind = 2
	AttestationNationalID AttestationKind = 3
)

func (k AttestationKind) String() string {
	switch k {
	case AttestationPassport:
		return "passport"
	case AttestationEUIDCard:
		return "eu_id_card"
	case AttestationNationalID:
		return "national_id"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseAttestationKind accepts the names returned by String.
func ParseAttestationKind(s string) (AttestationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passport":
		return AttestationPassport, nil
	case "eu_id_card", "eu-id", "eu_id":
		return AttestationEUIDCard, nil
	case "national_id", "national-id":
		return AttestationNationalID, nil
	}
	return 0, fmt.Errorf("unknown attestation kind %q", s)
}

// Valid reports whether k is one of the closed set of known kinds.
func (k AttestationKind) Valid() bool {
	return k >= AttestationPassport && k <= AttestationNationalID
}

// VerificationAttestation is produced by the external identity verifier and never mutated.
type VerificationAttestation struct {
	Valid         bool            `json:"valid"`
	Nationality   *string         `json:"nationality,omitempty"` // ISO-3166 alpha-2
	Age           *int            `json:"age,omitempty"`
	Kind          AttestationKind `json:"kind"`
	Proof         []byte          `json:"proof,omitempty"`
	PublicSignals []string        `json:"publicSignals,omitempty"`
	UserContext   []byte          `json:"userContext,omitempty"`
}

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Address is a hex-encoded 20 byte account address.
type Address string

func (a Address) Validate() error {
	if !addressPattern.MatchString(string(a)) {
		return fmt.Errorf("invalid address %q: must be 0x followed by 40 hex characters", string(a))
	}
	return nil
}

// Canonical returns the lower-case form used wherever the address is hashed.
func (a Address) Canonical() string {
	return strings.ToLower(string(a))
}
