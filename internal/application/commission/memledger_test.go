package commission

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// memLedger keeps members, records, distributions and withdrawals in memory
// with the same guarded-update semantics as the gorm repositories
type memLedger struct {
	mu            sync.Mutex
	members       map[uuid.UUID]*member.Member
	records       []*commission.Record
	distributions map[uuid.UUID]*commission.Distribution
	withdrawals   []*commission.Withdrawal
}

func newMemLedger() *memLedger {
	return &memLedger{
		members:       make(map[uuid.UUID]*member.Member),
		distributions: make(map[uuid.UUID]*commission.Distribution),
	}
}

func (l *memLedger) scope() txn.TransactionScope {
	return txn.NewNoOpTransactionScope(txn.Repositories{
		Members:       l,
		Earnings:      l,
		Records:       (*memRecords)(l),
		Distributions: (*memDistributions)(l),
		Withdrawals:   (*memWithdrawals)(l),
	})
}

func (l *memLedger) add(m *member.Member) *member.Member {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members[m.ID] = m
	return m
}

func (l *memLedger) earnings(id uuid.UUID) member.Earnings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.members[id].Earnings
}

func (l *memLedger) recordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// MemberRepository

func (l *memLedger) FindByID(_ context.Context, id uuid.UUID) (*member.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.members[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (l *memLedger) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*member.Member, error) {
	out := make([]*member.Member, 0, len(ids))
	for _, id := range ids {
		if m, err := l.FindByID(ctx, id); err == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *memLedger) FindByReferralCode(context.Context, string) (*member.Member, error) {
	return nil, shared.ErrNotFound
}

func (l *memLedger) FindAll(context.Context, shared.Filter) ([]member.Member, int64, error) {
	return nil, 0, nil
}

func (l *memLedger) CountByAccount(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (l *memLedger) ExistsByReferralCode(context.Context, string) (bool, error) { return false, nil }

func (l *memLedger) Save(_ context.Context, m *member.Member) error {
	l.add(m)
	return nil
}

func (l *memLedger) SaveWithLock(_ context.Context, m *member.Member) error {
	l.add(m)
	return nil
}

// EarningsRepository

func (l *memLedger) apply(id uuid.UUID, fn func(member.Earnings) (member.Earnings, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.members[id]
	if !ok {
		return shared.ErrNotFound
	}
	next, err := fn(m.Earnings)
	if err != nil {
		return err
	}
	m.Earnings = next
	return nil
}

func (l *memLedger) CreditEarnings(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return l.apply(id, func(e member.Earnings) (member.Earnings, error) { return e.Credit(amount) })
}

func (l *memLedger) WithdrawPending(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return l.apply(id, func(e member.Earnings) (member.Earnings, error) { return e.Withdraw(amount) })
}

func (l *memLedger) ReverseEarnings(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return l.apply(id, func(e member.Earnings) (member.Earnings, error) { return e.Reverse(amount) })
}

func (l *memLedger) AddPoints(_ context.Context, id uuid.UUID, delta int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.members[id]
	if !ok {
		return shared.ErrNotFound
	}
	m.TotalPoints += delta
	if m.TotalPoints < 0 {
		m.TotalPoints = 0
	}
	return nil
}

type memRecords memLedger

func (r *memRecords) FindByID(_ context.Context, id uuid.UUID) (*commission.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRecords) FindByOrder(_ context.Context, orderID uuid.UUID) ([]commission.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []commission.Record
	for _, rec := range r.records {
		if rec.OrderID == orderID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memRecords) FindByBeneficiary(_ context.Context, id uuid.UUID, filter shared.Filter) ([]commission.Record, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []commission.Record
	for _, rec := range r.records {
		if rec.BeneficiaryID != id {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && rec.Status != status {
			continue
		}
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *memRecords) SaveBatch(_ context.Context, records []*commission.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		cp := *rec
		r.records = append(r.records, &cp)
	}
	return nil
}

func (r *memRecords) UpdateStatus(_ context.Context, rec *commission.Record, from commission.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.records {
		if stored.ID != rec.ID {
			continue
		}
		if stored.Status != from {
			return false, nil
		}
		*stored = *rec
		return true, nil
	}
	return false, nil
}

func (r *memRecords) SumByBeneficiary(_ context.Context, id uuid.UUID) (map[commission.Status]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[commission.Status]decimal.Decimal)
	for _, rec := range r.records {
		if rec.BeneficiaryID == id {
			sums[rec.Status] = sums[rec.Status].Add(rec.Amount)
		}
	}
	return sums, nil
}

type memDistributions memLedger

func (d *memDistributions) Insert(_ context.Context, dist *commission.Distribution) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.distributions[dist.OrderID]; ok {
		return false, nil
	}
	d.distributions[dist.OrderID] = dist
	return true, nil
}

func (d *memDistributions) FindByOrder(_ context.Context, orderID uuid.UUID) (*commission.Distribution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dist, ok := d.distributions[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return dist, nil
}

type memWithdrawals memLedger

func (w *memWithdrawals) Save(_ context.Context, wd *commission.Withdrawal) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.withdrawals = append(w.withdrawals, wd)
	return nil
}

func (w *memWithdrawals) FindByMember(_ context.Context, id uuid.UUID, _ shared.Filter) ([]commission.Withdrawal, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []commission.Withdrawal
	for _, wd := range w.withdrawals {
		if wd.MemberID == id {
			out = append(out, *wd)
		}
	}
	return out, int64(len(out)), nil
}

func (w *memWithdrawals) SumByMember(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sum := decimal.Zero
	for _, wd := range w.withdrawals {
		if wd.MemberID == id {
			sum = sum.Add(wd.Amount)
		}
	}
	return sum, nil
}
