package checkcommitstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/common/camunda/camundatest"
	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/ledger"
	"merchant-onboarding/internal/models"
)

// ==========================
// Test Helpers
// ==========================

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testKey(b byte) models.AssessmentKey {
	var k models.AssessmentKey
	k[31] = b
	return k
}

type failingStatus struct{}

func (failingStatus) Status(context.Context, models.AssessmentKey) (models.CommitStatus, error) {
	return models.CommitStatus{}, errors.New("connection refused")
}

// slowStatus blocks until the lookup context ends.
type slowStatus struct{}

func (slowStatus) Status(ctx context.Context, _ models.AssessmentKey) (models.CommitStatus, error) {
	<-ctx.Done()
	return models.CommitStatus{}, ctx.Err()
}

func createTestJob(vars string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7001, Retries: 3, Variables: vars}}
}

// ==========================
// Execute
// ==========================

func TestExecute_CommittedKey(t *testing.T) {
	gw := ledger.NewMemoryGateway()
	key := testKey(1)
	handle, err := gw.Commit(context.Background(), models.CommitPayload{AssessmentKey: key}, key)
	require.NoError(t, err)

	cache := ledger.NewStatusCache(gw, setupRedis(t), time.Minute, logger.NewTestLogger(t))
	h := NewHandler(DefaultConfig(), cache, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{AssessmentKey: key.String()})
	require.NoError(t, err)

	assert.True(t, out.Committed)
	assert.Equal(t, models.CommitStateCommitted, out.CommitState)
	assert.Equal(t, handle, out.CommitHandle)
}

func TestExecute_UnknownKey(t *testing.T) {
	h := NewHandler(DefaultConfig(), ledger.NewMemoryGateway(), nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{AssessmentKey: testKey(2).String()})
	require.NoError(t, err)

	assert.False(t, out.Committed)
	assert.Equal(t, models.CommitStateNotFound, out.CommitState)
	assert.Empty(t, out.CommitHandle)
}

func TestExecute_MalformedKey(t *testing.T) {
	h := NewHandler(DefaultConfig(), ledger.NewMemoryGateway(), nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{AssessmentKey: "0xnothex"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExecute_LookupFailureIsRetryable(t *testing.T) {
	h := NewHandler(DefaultConfig(), failingStatus{}, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{AssessmentKey: testKey(3).String()})
	require.Error(t, err)

	bpmn := apperrors.ConvertToBPMNError(apperrors.ToStandard(err))
	assert.Equal(t, string(apperrors.ErrCodeLedgerStatusFailed), bpmn.Code)
	assert.Equal(t, 2, bpmn.Retries)
}

// ==========================
// Handle
// ==========================

func TestHandle_CompletesWithStatus(t *testing.T) {
	h := NewHandler(DefaultConfig(), ledger.NewMemoryGateway(), nil, logger.NewTestLogger(t))
	client := camundatest.NewJobClient()

	h.Handle(client, createTestJob(`{"assessmentKey":"`+testKey(4).String()+`"}`))

	cmd, ok := client.Last()
	require.True(t, ok)
	assert.Equal(t, camundatest.Completed, cmd.Kind)
	assert.Equal(t, int64(7001), cmd.JobKey)
	assert.Contains(t, cmd.Variables, `"commitState":"not_found"`)
}

func TestHandle_ReportsFailureAfterJobTimeout(t *testing.T) {
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond}, slowStatus{}, nil, logger.NewTestLogger(t))
	client := camundatest.NewJobClient()

	h.Handle(client, createTestJob(`{"assessmentKey":"`+testKey(5).String()+`"}`))

	cmds := client.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, camundatest.Failed, cmds[0].Kind)
	assert.Equal(t, int32(1), cmds[0].Retries)
	assert.NoError(t, cmds[0].ContextErr)
	assert.Contains(t, cmds[0].Variables, string(apperrors.ErrCodeLedgerStatusFailed))
}
