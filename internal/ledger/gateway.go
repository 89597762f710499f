// Package ledger defines the commit gateway to the system of record and its
// implementations. A gateway must apply each assessment key at most once.
package ledger

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"merchant-onboarding/internal/models"
)

// Gateway submits commits and reports their status. Presenting a key that is
// already applied returns an *AlreadyCommittedError and never applies the
// payload twice.
type Gateway interface {
	Commit(ctx context.Context, payload models.CommitPayload, key models.AssessmentKey) (models.TxHandle, error)
	Status(ctx context.Context, key models.AssessmentKey) (models.CommitStatus, error)
}

var (
	ErrAlreadyCommitted = errors.New("ledger: assessment key already committed")
	ErrTransient        = errors.New("ledger: transient failure")
)

// AlreadyCommittedError carries the handle of the transaction that applied the
// key first, when the gateway knows it.
type AlreadyCommittedError struct {
	Key    models.AssessmentKey
	Handle models.TxHandle
}

func (e *AlreadyCommittedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAlreadyCommitted, e.Key)
}

func (e *AlreadyCommittedError) Is(target error) bool { return target == ErrAlreadyCommitted }

// TransientError marks a failure that may succeed if retried with the same key.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error { return []error{ErrTransient, e.Err} }

// IsTransient reports whether err is safe to retry with the same key.
// Cancellation by the caller is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrAlreadyCommitted) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// AsAlreadyCommitted extracts the duplicate-key rejection from err.
func AsAlreadyCommitted(err error) (*AlreadyCommittedError, bool) {
	var dup *AlreadyCommittedError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
