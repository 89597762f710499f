package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"merchant-onboarding/internal/models"
)

type memoryRecord struct {
	handle      models.TxHandle
	payload     models.CommitPayload
	committedAt time.Time
}

// MemoryGateway is an in-process ledger with the same at-most-once contract as
// the durable gateways. It backs the memory driver and tests.
type MemoryGateway struct {
	mu      sync.RWMutex
	records map[models.AssessmentKey]memoryRecord
	now     func() time.Time
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		records: make(map[models.AssessmentKey]memoryRecord),
		now:     time.Now,
	}
}

func (g *MemoryGateway) Commit(ctx context.Context, payload models.CommitPayload, key models.AssessmentKey) (models.TxHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[key]; ok {
		return "", &AlreadyCommittedError{Key: key, Handle: rec.handle}
	}

	handle := models.TxHandle("mem-" + uuid.NewString())
	g.records[key] = memoryRecord{handle: handle, payload: payload, committedAt: g.now().UTC()}
	return handle, nil
}

func (g *MemoryGateway) Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.CommitStatus{}, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if rec, ok := g.records[key]; ok {
		return models.CommitStatus{State: models.CommitStateCommitted, Handle: rec.handle}, nil
	}
	return models.CommitStatus{State: models.CommitStateNotFound}, nil
}

// Payload returns the payload applied for key.
func (g *MemoryGateway) Payload(key models.AssessmentKey) (models.CommitPayload, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[key]
	return rec.payload, ok
}

func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}
