package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService owns every earnings mutation other than distribution:
// withdrawals, record cancellation and payout
type LedgerService struct {
	memberRepo     member.MemberRepository
	recordRepo     commission.RecordRepository
	withdrawalRepo commission.WithdrawalRepository
	txScope        txn.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	memberRepo member.MemberRepository,
	recordRepo commission.RecordRepository,
	withdrawalRepo commission.WithdrawalRepository,
	txScope txn.TransactionScope,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		memberRepo:     memberRepo,
		recordRepo:     recordRepo,
		withdrawalRepo: withdrawalRepo,
		txScope:        txScope,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for ledger events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Withdraw moves amount from pending to withdrawn and appends a withdrawal row
func (s *LedgerService) Withdraw(ctx context.Context, memberID uuid.UUID, req WithdrawRequest) (*WithdrawalResponse, error) {
	w, err := commission.NewWithdrawal(memberID, req.Amount, req.Reference)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		if err := repos.EarningsRepo().WithdrawPending(ctx, memberID, w.Amount); err != nil {
			return err
		}
		return repos.WithdrawalRepo().Save(ctx, w)
	})
	if err != nil {
		return nil, s.checkLedger(ctx, memberID, "withdraw", err)
	}

	s.publish(ctx, commission.NewWithdrawalRecordedEvent(w))
	s.logger.Info("withdrawal recorded",
		zap.String("member_id", memberID.String()),
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("amount", w.Amount.String()),
	)

	resp := ToWithdrawalResponse(w)
	return &resp, nil
}

// CancelCommission cancels a pending record and reverses its credit
func (s *LedgerService) CancelCommission(ctx context.Context, recordID uuid.UUID, req CancelCommissionRequest) (*RecordResponse, error) {
	var record *commission.Record
	err := s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		record, err = s.cancelInTx(ctx, repos, recordID, req.Reason)
		return err
	})
	if err != nil {
		if record != nil {
			return nil, s.checkLedger(ctx, record.BeneficiaryID, "cancel_commission", err)
		}
		return nil, err
	}

	s.publish(ctx, commission.NewCommissionCancelledEvent(record))
	s.logger.Info("commission cancelled",
		zap.String("record_id", record.ID.String()),
		zap.String("beneficiary_id", record.BeneficiaryID.String()),
		zap.String("amount", record.Amount.String()),
	)

	resp := ToRecordResponse(record)
	return &resp, nil
}

func (s *LedgerService) cancelInTx(ctx context.Context, repos txn.TransactionalRepositories, recordID uuid.UUID, reason string) (*commission.Record, error) {
	record, err := repos.RecordRepo().FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := record.Cancel(reason); err != nil {
		return nil, err
	}
	updated, err := repos.RecordRepo().UpdateStatus(ctx, record, commission.StatusPending)
	if err != nil {
		return record, err
	}
	if !updated {
		return record, commission.ErrRecordNotCancellable
	}
	if err := repos.EarningsRepo().ReverseEarnings(ctx, record.BeneficiaryID, record.Amount); err != nil {
		return record, err
	}
	return record, nil
}

// MarkPaid pays out a pending record. Its amount moves from pending to withdrawn.
func (s *LedgerService) MarkPaid(ctx context.Context, recordID uuid.UUID) (*RecordResponse, error) {
	var record *commission.Record
	err := s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		record, err = repos.RecordRepo().FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if err := record.MarkPaid(); err != nil {
			return err
		}
		updated, err := repos.RecordRepo().UpdateStatus(ctx, record, commission.StatusPending)
		if err != nil {
			return err
		}
		if !updated {
			return commission.ErrRecordNotPayable
		}
		return repos.EarningsRepo().WithdrawPending(ctx, record.BeneficiaryID, record.Amount)
	})
	if err != nil {
		if record != nil {
			return nil, s.checkLedger(ctx, record.BeneficiaryID, "mark_paid", err)
		}
		return nil, err
	}

	s.publish(ctx, commission.NewCommissionPaidEvent(record))
	s.logger.Info("commission paid",
		zap.String("record_id", record.ID.String()),
		zap.String("beneficiary_id", record.BeneficiaryID.String()),
		zap.String("amount", record.Amount.String()),
	)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// CancelOrderCommissions cancels every pending record of an order in one
// transaction. Records already paid or cancelled are reported as skipped.
func (s *LedgerService) CancelOrderCommissions(ctx context.Context, orderID uuid.UUID, reason string) (*CancelOrderResult, error) {
	result := &CancelOrderResult{
		OrderID:   orderID,
		Cancelled: []RecordResponse{},
		Skipped:   []RecordResponse{},
	}
	var cancelled []*commission.Record
	var failedFor uuid.UUID

	err := s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		records, err := repos.RecordRepo().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		cancelled = cancelled[:0]
		result.Cancelled = result.Cancelled[:0]
		result.Skipped = result.Skipped[:0]
		for i := range records {
			rec := &records[i]
			if !rec.IsPending() {
				result.Skipped = append(result.Skipped, ToRecordResponse(rec))
				continue
			}
			done, err := s.cancelInTx(ctx, repos, rec.ID, reason)
			if err != nil {
				if errors.Is(err, commission.ErrRecordNotCancellable) && done != nil {
					result.Skipped = append(result.Skipped, ToRecordResponse(rec))
					continue
				}
				failedFor = rec.BeneficiaryID
				return err
			}
			cancelled = append(cancelled, done)
			result.Cancelled = append(result.Cancelled, ToRecordResponse(done))
		}
		return nil
	})
	if err != nil {
		if failedFor != uuid.Nil {
			return nil, s.checkLedger(ctx, failedFor, "cancel_order_commissions", err)
		}
		return nil, err
	}

	for _, rec := range cancelled {
		s.publish(ctx, commission.NewCommissionCancelledEvent(rec))
	}
	s.logger.Info("order commissions cancelled",
		zap.String("order_id", orderID.String()),
		zap.Int("cancelled", len(result.Cancelled)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// GetEarnings returns a member's counters
func (s *LedgerService) GetEarnings(ctx context.Context, memberID uuid.UUID) (*EarningsResponse, error) {
	m, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	resp := toEarningsResponse(m)
	return &resp, nil
}

// ListCommissions returns a page of records credited to a member
func (s *LedgerService) ListCommissions(ctx context.Context, memberID uuid.UUID, filter CommissionListFilter) (*shared.Paginated[RecordResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := commission.Status(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown commission status %q", filter.Status))
		}
		f.Filters["status"] = status
	}

	records, total, err := s.recordRepo.FindByBeneficiary(ctx, memberID, f)
	if err != nil {
		return nil, err
	}
	items := make([]RecordResponse, len(records))
	for i := range records {
		items[i] = ToRecordResponse(&records[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// ListWithdrawals returns a page of a member's withdrawals
func (s *LedgerService) ListWithdrawals(ctx context.Context, memberID uuid.UUID, filter WithdrawalListFilter) (*shared.Paginated[WithdrawalResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	withdrawals, total, err := s.withdrawalRepo.FindByMember(ctx, memberID, f)
	if err != nil {
		return nil, err
	}
	items := make([]WithdrawalResponse, len(withdrawals))
	for i := range withdrawals {
		items[i] = ToWithdrawalResponse(&withdrawals[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// Reconcile recomputes the counters from the ledger rows. The report is
// always returned; a mismatch also returns an INCONSISTENT_LEDGER error.
func (s *LedgerService) Reconcile(ctx context.Context, memberID uuid.UUID) (*ReconciliationReport, error) {
	m, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	sums, err := s.recordRepo.SumByBeneficiary(ctx, memberID)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.withdrawalRepo.SumByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	pending := sumOrZero(sums, commission.StatusPending)
	paid := sumOrZero(sums, commission.StatusPaid)
	report := &ReconciliationReport{
		MemberID:          memberID,
		Counters:          toEarningsResponse(m),
		PendingRecords:    pending,
		PaidRecords:       paid,
		Withdrawals:       withdrawn,
		ExpectedTotal:     pending.Add(paid),
		ExpectedWithdrawn: paid.Add(withdrawn),
	}

	if err := m.Earnings.Validate(); err != nil {
		report.Issues = append(report.Issues, err.Error())
	}
	if !m.Earnings.TotalEarnings.Equal(report.ExpectedTotal) {
		report.Issues = append(report.Issues, fmt.Sprintf("total_earnings %s != pending+paid records %s",
			m.Earnings.TotalEarnings, report.ExpectedTotal))
	}
	if !m.Earnings.WithdrawnAmount.Equal(report.ExpectedWithdrawn) {
		report.Issues = append(report.Issues, fmt.Sprintf("withdrawn_amount %s != paid records + withdrawals %s",
			m.Earnings.WithdrawnAmount, report.ExpectedWithdrawn))
	}
	report.Consistent = len(report.Issues) == 0
	if report.Consistent {
		return report, nil
	}

	err = shared.NewDomainError(member.ErrInconsistentLedger.Code, "Earnings ledger invariant violated: "+report.Issues[0])
	return report, s.checkLedger(ctx, memberID, "reconcile", err)
}

// checkLedger raises the alarm for INCONSISTENT_LEDGER and passes every
// error through unchanged
func (s *LedgerService) checkLedger(ctx context.Context, memberID uuid.UUID, operation string, err error) error {
	if !errors.Is(err, member.ErrInconsistentLedger) {
		return err
	}
	s.logger.Error("earnings ledger inconsistent",
		zap.String("member_id", memberID.String()),
		zap.String("operation", operation),
		zap.Error(err),
	)
	s.publish(ctx, commission.NewInconsistentLedgerEvent(memberID, operation, err.Error()))
	return err
}

func (s *LedgerService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish ledger events", zap.Error(err))
	}
}

func toEarningsResponse(m *member.Member) EarningsResponse {
	return EarningsResponse{
		MemberID:          m.ID,
		TotalEarnings:     m.Earnings.TotalEarnings,
		PendingWithdrawal: m.Earnings.PendingWithdrawal,
		WithdrawnAmount:   m.Earnings.WithdrawnAmount,
		TotalPoints:       m.TotalPoints,
	}
}

func sumOrZero(sums map[commission.Status]decimal.Decimal, status commission.Status) decimal.Decimal {
	if v, ok := sums[status]; ok {
		return v
	}
	return decimal.Zero
}
