// internal/models/assessment.go
package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RiskAssessment is fully derived from a MerchantProfile. Scores are 0-100, ratings 1-5.
type RiskAssessment struct {
	CreditRisk           CreditRisk           `json:"creditRisk"`
	BusinessFundamentals BusinessFundamentals `json:"businessFundamentals"`
	FinancialHealth      FinancialHealth      `json:"financialHealth"`
	MarketRisk           MarketRisk           `json:"marketRisk"`
}

// CreditRisk keeps RecoveryRate == 100 - LossGivenDefault.
type CreditRisk struct {
	CreditScore        int `json:"creditScore"`
	DefaultProbability int `json:"defaultProbability"`
	LossGivenDefault   int `json:"lossGivenDefault"`
	RecoveryRate       int `json:"recoveryRate"`
}

type BusinessFundamentals struct {
	BusinessAgeScore          int `json:"businessAgeScore"`
	RevenueStabilityScore     int `json:"revenueStabilityScore"`
	MarketPositionScore       int `json:"marketPositionScore"`
	IndustryRiskScore         int `json:"industryRiskScore"`
	RegulatoryComplianceScore int `json:"regulatoryComplianceScore"`
}

type FinancialHealth struct {
	LiquidityScore     int `json:"liquidityScore"`
	LeverageScore      int `json:"leverageScore"`
	CashFlowScore      int `json:"cashFlowScore"`
	ProfitabilityScore int `json:"profitabilityScore"`
}

type MarketRisk struct {
	MarketVolatility      int `json:"marketVolatility"`
	EconomicCyclePosition int `json:"economicCyclePosition"`
	RegulatoryStability   int `json:"regulatoryStability"`
	Seasonality           int `json:"seasonality"`
}

// AssessmentKeySize is the width of the SHA-256 digest backing an AssessmentKey.
const AssessmentKeySize = 32

// AssessmentKey is the content-addressed idempotency token for a ledger commit.
type AssessmentKey [AssessmentKeySize]byte

func (k AssessmentKey) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (k AssessmentKey) IsZero() bool {
	return k == AssessmentKey{}
}

func (k AssessmentKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *AssessmentKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssessmentKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseAssessmentKey decodes the 0x-prefixed hex form produced by String.
func ParseAssessmentKey(s string) (AssessmentKey, error) {
	var k AssessmentKey
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return k, fmt.Errorf("decode assessment key: %w", err)
	}
	if len(raw) != AssessmentKeySize {
		return k, fmt.Errorf("assessment key must be %d bytes, got %d", AssessmentKeySize, len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// TxHandle identifies the ledger transaction that applied a commit.
type TxHandle string

// CommitState is the ledger-side view of an assessment key.
type CommitState string

const (
	CommitStateCommitted CommitState = "committed"
	CommitStatePending   CommitState = "pending"
	CommitStateNotFound  CommitState = "not_found"
)

type CommitStatus struct {
	State  CommitState `json:"state"`
	Handle TxHandle    `json:"handle,omitempty"`
}

// Collateral type codes understood by the ledger.
const (
	CollateralCodeEquipment  uint8 = 0
	CollateralCodeRealEstate uint8 = 1
	CollateralCodeInventory  uint8 = 2
	CollateralCodeCrypto     uint8 = 3
	CollateralCodeOther      uint8 = 4
)

// CommitPayload is everything written to the ledger for one assessment.
type CommitPayload struct {
	AssessmentKey     AssessmentKey  `json:"assessmentKey"`
	BusinessID        string         `json:"businessId"`
	CountryCodeHash   string         `json:"countryCodeHash"`
	MerchantWallet    Address        `json:"merchantWallet"`
	CollateralAddress Address        `json:"collateralAddress"`
	ProtectionSeller  Address        `json:"protectionSeller"`
	CollateralType    uint8          `json:"collateralType"`
	RiskAssessment    RiskAssessment `json:"riskAssessment"`
}

// OnboardingResult is returned once per committed submission and never mutated.
type OnboardingResult struct {
	RequestID      string         `json:"requestId"`
	AssessmentKey  AssessmentKey  `json:"assessmentKey"`
	Nonce          uint64         `json:"nonce"`
	RiskAssessment RiskAssessment `json:"riskAssessment"`
	CommitHandle   TxHandle       `json:"commitHandle"`
	Timestamp      time.Time      `json:"timestamp"`
}
