package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerReconciler checks one member's counters against their records
type LedgerReconciler interface {
	Reconcile(ctx context.Context, memberID uuid.UUID) (*commissionapp.ReconciliationReport, error)
}

// ReconcileExecutor runs ledger reconciliation jobs.
//
// An inconsistent ledger is a finding, not a failure: it is recorded and
// logged but never retried, since rerunning the check cannot fix it.
type ReconcileExecutor struct {
	reconciler LedgerReconciler
	logger     *zap.Logger

	mu           sync.Mutex
	inconsistent map[uuid.UUID][]string
}

// NewReconcileExecutor creates a new ReconcileExecutor
func NewReconcileExecutor(reconciler LedgerReconciler, logger *zap.Logger) *ReconcileExecutor {
	return &ReconcileExecutor{
		reconciler:   reconciler,
		logger:       logger,
		inconsistent: make(map[uuid.UUID][]string),
	}
}

// Execute implements JobExecutor
func (e *ReconcileExecutor) Execute(ctx context.Context, job *Job) error {
	report, err := e.reconciler.Reconcile(ctx, job.MemberID)
	switch {
	case errors.Is(err, member.ErrInconsistentLedger):
		issues := []string{err.Error()}
		if report != nil && len(report.Issues) > 0 {
			issues = report.Issues
		}
		e.record(job.MemberID, issues)
		return nil
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	}

	if !report.Consistent {
		e.record(job.MemberID, report.Issues)
		return nil
	}
	e.mu.Lock()
	delete(e.inconsistent, job.MemberID)
	e.mu.Unlock()
	return nil
}

func (e *ReconcileExecutor) record(memberID uuid.UUID, issues []string) {
	e.mu.Lock()
	e.inconsistent[memberID] = issues
	e.mu.Unlock()
	e.logger.Error("ledger reconciliation found an inconsistent member",
		zap.String("member_id", memberID.String()),
		zap.Strings("issues", issues),
	)
}

// Inconsistent returns the members whose last check failed, with the issues found
func (e *ReconcileExecutor) Inconsistent() map[uuid.UUID][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[uuid.UUID][]string, len(e.inconsistent))
	for id, issues := range e.inconsistent {
		out[id] = append([]string(nil), issues...)
	}
	return out
}
