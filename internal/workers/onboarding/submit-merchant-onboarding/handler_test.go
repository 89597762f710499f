package submitmerchantonboarding

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/assessmentkey"
	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/ledger"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/policy"
	"merchant-onboarding/internal/scoring"
)

// ==========================
// Test Helpers
// ==========================

const testAddress = models.Address("0x52908400098527886E0F7030069857D2E4169EE7")

type recordingPublisher struct {
	mu      sync.Mutex
	results []models.OnboardingResult
	err     error
}

func (p *recordingPublisher) PublishCommitted(_ context.Context, r models.OnboardingResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return p.err
}

func createTestOrchestrator(t *testing.T, gw ledger.Gateway) *onboarding.Orchestrator {
	o, err := onboarding.NewOrchestrator(onboarding.Config{MaxRetries: 2}, onboarding.Dependencies{
		Scorer:    scoring.NewEngine(),
		Validator: policy.NewValidator(policy.Default()),
		Deriver:   assessmentkey.NewDeriver(),
		Gateway:   gw,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return o
}

func createTestHandler(t *testing.T, gw ledger.Gateway, pub *recordingPublisher) *Handler {
	return NewHandler(DefaultConfig(), createTestOrchestrator(t, gw), pub, nil, logger.NewTestLogger(t))
}

func createTestInput(nonce *uint64) *Input {
	age := 29
	nationality := "ID"
	return &Input{
		Profile: models.MerchantProfile{
			BusinessName:   "Bengkel Jaya",
			BusinessType:   models.BusinessTypeSoleProprietor,
			Industry:       "automotive",
			BusinessAge:    26,
			LegalStructure: models.LegalStructureInformal,
			MarketContext:  models.MarketContext{PrimaryMarket: "ID"},
		},
		Attestation: models.VerificationAttestation{
			Valid: true, Age: &age, Nationality: &nationality, Kind: models.AttestationNationalID,
		},
		MerchantAddress: testAddress,
		Nonce:           nonce,
	}
}

func u64(v uint64) *uint64 { return &v }

// ==========================
// Execute
// ==========================

func TestExecute_CommitsAndPublishes(t *testing.T) {
	gw := ledger.NewMemoryGateway()
	pub := &recordingPublisher{}
	h := createTestHandler(t, gw, pub)
	input := createTestInput(u64(1234))

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, assessmentkey.DeriveKey(input.Profile, testAddress, 1234), out.AssessmentKey)
	assert.Equal(t, uint64(1234), out.Nonce)
	assert.NotEmpty(t, out.CommitHandle)
	assert.Equal(t, out.RiskAssessment.CreditRisk.CreditScore, out.CreditScore)
	assert.Equal(t, 1, gw.Len())

	require.Len(t, pub.results, 1)
	assert.Equal(t, out.CommitHandle, pub.results[0].CommitHandle)
}

func TestExecute_WithoutNonceUsesClock(t *testing.T) {
	h := createTestHandler(t, ledger.NewMemoryGateway(), &recordingPublisher{})

	out, err := h.Execute(context.Background(), createTestInput(nil))
	require.NoError(t, err)

	assert.NotZero(t, out.Nonce)
}

func TestExecute_ReusedNonceIsAlreadyCommitted(t *testing.T) {
	gw := ledger.NewMemoryGateway()
	pub := &recordingPublisher{}
	h := createTestHandler(t, gw, pub)

	first, err := h.Execute(context.Background(), createTestInput(u64(77)))
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), createTestInput(u64(77)))
	require.Error(t, err)

	std := apperrors.ToStandard(err)
	assert.Equal(t, apperrors.ErrCodeAlreadyCommitted, std.Code)
	assert.Equal(t, first.AssessmentKey.String(), std.Metadata["assessmentKey"])
	assert.Len(t, pub.results, 1)
}

func TestExecute_PolicyRejectionBecomesBPMNError(t *testing.T) {
	gw := ledger.NewMemoryGateway()
	pub := &recordingPublisher{}
	h := createTestHandler(t, gw, pub)

	input := createTestInput(nil)
	nationality := "KP"
	input.Attestation.Nationality = &nationality

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)

	bpmn := apperrors.ConvertToBPMNError(apperrors.ToStandard(err))
	assert.Equal(t, string(apperrors.ErrCodePolicyRejected), bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
	assert.Equal(t, policy.ReasonExcludedJurisdiction, bpmn.ErrorVariables["reason"])
	assert.Equal(t, 0, gw.Len())
	assert.Empty(t, pub.results)
}

func TestExecute_PublishFailureDoesNotFailJob(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("sns throttled")}
	h := createTestHandler(t, ledger.NewMemoryGateway(), pub)

	out, err := h.Execute(context.Background(), createTestInput(u64(5)))
	require.NoError(t, err)

	assert.NotEmpty(t, out.CommitHandle)
	assert.Len(t, pub.results, 1)
}

// failFirstGateway fails the first commit without touching the ledger.
type failFirstGateway struct {
	*ledger.MemoryGateway
	mu    sync.Mutex
	calls int
}

func (g *failFirstGateway) Commit(ctx context.Context, payload models.CommitPayload, key models.AssessmentKey) (models.TxHandle, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		return "", errors.New("check constraint violated")
	}
	return g.MemoryGateway.Commit(ctx, payload, key)
}

func TestExecute_FailedCommitResubmitsWithSameKey(t *testing.T) {
	gw := &failFirstGateway{MemoryGateway: ledger.NewMemoryGateway()}
	h := createTestHandler(t, gw, &recordingPublisher{})

	_, err := h.Execute(context.Background(), createTestInput(nil))
	require.Error(t, err)

	vars := apperrors.ConvertToBPMNError(apperrors.ToStandard(err)).ToErrorVariables()
	assert.Equal(t, string(apperrors.ErrCodeLedgerCommitFailed), vars["errorCode"])
	assert.Equal(t, 0, gw.Len())

	// The workflow maps the error variables into the next job's input.
	raw, err := json.Marshal(vars)
	require.NoError(t, err)
	var failed struct {
		AssessmentKey string  `json:"assessmentKey"`
		Nonce         *uint64 `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(raw, &failed))
	require.NotNil(t, failed.Nonce)

	out, err := h.Execute(context.Background(), createTestInput(failed.Nonce))
	require.NoError(t, err)

	assert.Equal(t, failed.AssessmentKey, out.AssessmentKey.String())
	assert.Equal(t, *failed.Nonce, out.Nonce)
	assert.Equal(t, 1, gw.Len())
}

func TestExecute_CommitPayloadVariableCannotBypassPolicy(t *testing.T) {
	gw := ledger.NewMemoryGateway()
	h := createTestHandler(t, gw, &recordingPublisher{})

	vars := `{"merchantAddress":"` + string(testAddress) + `",` +
		`"resumePayload":{"assessmentKey":"0x` + strings.Repeat("11", 32) + `",` +
		`"merchantWallet":"0xdeadbeef","riskAssessment":{"creditRisk":{"creditScore":999,"defaultProbability":-50}}}}`
	var input Input
	require.NoError(t, json.Unmarshal([]byte(vars), &input))

	_, err := h.Execute(context.Background(), &input)
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrPolicy)
	assert.Equal(t, 0, gw.Len())
}

func TestInput_DecodesJobVariables(t *testing.T) {
	vars := `{"merchantAddress":"` + string(testAddress) + `","nonce":42,` +
		`"attestation":{"valid":true,"age":30,"kind":1},"profile":{"businessName":"x"}}`

	var input Input
	require.NoError(t, json.Unmarshal([]byte(vars), &input))

	require.NotNil(t, input.Nonce)
	assert.Equal(t, uint64(42), *input.Nonce)
	assert.Equal(t, 30, *input.Attestation.Age)
}
