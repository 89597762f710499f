package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

const DefaultTable = "assessment_commits"

// PostgresGateway records commits in a table keyed by assessment key. The
// primary key is the ledger-side uniqueness constraint.
type PostgresGateway struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewPostgresGateway(db *sql.DB, table string, log logger.Logger) *PostgresGateway {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresGateway{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		logger: log.WithFields(map[string]interface{}{"component": "ledger.postgres"}),
	}
}

// EnsureSchema creates the commit table if it does not exist.
func (g *PostgresGateway) EnsureSchema(ctx context.Context) error {
	_, err := g.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			assessment_key    TEXT PRIMARY KEY,
			tx_handle         TEXT NOT NULL UNIQUE,
			business_id       TEXT NOT NULL,
			country_code_hash TEXT NOT NULL,
			merchant_wallet   TEXT NOT NULL,
			collateral_type   SMALLINT NOT NULL,
			credit_score      SMALLINT NOT NULL,
			payload           JSONB NOT NULL,
			committed_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, g.table))
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", classifyPostgresError("schema", err))
	}
	return nil
}

func (g *PostgresGateway) Commit(ctx context.Context, payload models.CommitPayload, key models.AssessmentKey) (models.TxHandle, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode commit payload: %w", err)
	}

	handle := models.TxHandle("pg-" + uuid.NewString())

	query := fmt.Sprintf(`
		INSERT INTO %s (assessment_key, tx_handle, business_id, country_code_hash, merchant_wallet, collateral_type, credit_score, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (assessment_key) DO NOTHING
		RETURNING tx_handle`, g.table)

	var applied string
	err = g.db.QueryRowContext(ctx, query,
		key.String(),
		string(handle),
		payload.BusinessID,
		payload.CountryCodeHash,
		payload.MerchantWallet.Canonical(),
		payload.CollateralType,
		payload.RiskAssessment.CreditRisk.CreditScore,
		body,
	).Scan(&applied)

	switch {
	case err == nil:
		g.logger.Debug("commit applied", map[string]interface{}{"assessmentKey": key.String(), "txHandle": applied})
		return models.TxHandle(applied), nil
	case errors.Is(err, sql.ErrNoRows):
		return "", g.alreadyCommitted(ctx, key)
	default:
		err = classifyPostgresError("commit", err)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", g.alreadyCommitted(ctx, key)
		}
		return "", err
	}
}

// alreadyCommitted looks up the winning handle. A failed lookup still reports
// the duplicate; the handle is informational.
func (g *PostgresGateway) alreadyCommitted(ctx context.Context, key models.AssessmentKey) error {
	dup := &AlreadyCommittedError{Key: key}
	status, err := g.Status(ctx, key)
	if err != nil {
		g.logger.Warn("failed to read handle of existing commit", map[string]interface{}{
			"assessmentKey": key.String(),
			"error":         err,
		})
		return dup
	}
	dup.Handle = status.Handle
	return dup
}

func (g *PostgresGateway) Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error) {
	var handle string
	err := g.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT tx_handle FROM %s WHERE assessment_key = $1`, g.table),
		key.String(),
	).Scan(&handle)

	if errors.Is(err, sql.ErrNoRows) {
		return models.CommitStatus{State: models.CommitStateNotFound}, nil
	}
	if err != nil {
		return models.CommitStatus{}, classifyPostgresError("status", err)
	}
	return models.CommitStatus{State: models.CommitStateCommitted, Handle: models.TxHandle(handle)}, nil
}

// classifyPostgresError wraps server errors that are safe to retry.
func classifyPostgresError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return &TransientError{Op: op, Err: err}
		case "40":
			// serialization_failure, deadlock_detected
			return &TransientError{Op: op, Err: err}
		}
		return err
	}
	if IsTransient(err) {
		return &TransientError{Op: op, Err: err}
	}
	return err
}
