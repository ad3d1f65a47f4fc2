package persistence

import (
	"context"

	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// MemberRepo returns the member repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MemberRepo() member.MemberRepository {
	return NewGormMemberRepository(r.tx)
}

// TreeRepo returns the tree repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TreeRepo() member.TreeRepository {
	return NewGormTreeRepository(r.tx)
}

// EarningsRepo returns the earnings repository scoped to the current transaction.
func (r *gormTransactionalRepositories) EarningsRepo() member.EarningsRepository {
	return NewGormEarningsRepository(r.tx)
}

// RecordRepo returns the commission record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecordRepo() commission.RecordRepository {
	return NewGormCommissionRecordRepository(r.tx)
}

// DistributionRepo returns the distribution guard repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DistributionRepo() commission.DistributionRepository {
	return NewGormDistributionRepository(r.tx)
}

// WithdrawalRepo returns the withdrawal repository scoped to the current transaction.
func (r *gormTransactionalRepositories) WithdrawalRepo() commission.WithdrawalRepository {
	return NewGormWithdrawalRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ txn.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ txn.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
