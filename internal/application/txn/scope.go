package txn

import (
	"context"

	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the tree and ledger repositories.
// All repository operations inside Execute are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	MemberRepo() member.MemberRepository
	// TreeRepo performs the compare-and-set slot claims
	TreeRepo() member.TreeRepository
	// EarningsRepo applies guarded counter updates
	EarningsRepo() member.EarningsRepository
	RecordRepo() commission.RecordRepository
	// DistributionRepo holds the per-order distribution guard
	DistributionRepo() commission.DistributionRepository
	WithdrawalRepo() commission.WithdrawalRepository
	OrderRepo() trade.OrderRepository
}

// Repositories is a plain set of repositories, used by NoOpTransactionScope
type Repositories struct {
	Members       member.MemberRepository
	Tree          member.TreeRepository
	Earnings      member.EarningsRepository
	Records       commission.RecordRepository
	Distributions commission.DistributionRepository
	Withdrawals   commission.WithdrawalRepository
	Orders        trade.OrderRepository
}

// NoOpTransactionScope runs the function against the given repositories
// without a real transaction. Useful for unit tests with mocks.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MemberRepo returns the member repository.
func (s *NoOpTransactionScope) MemberRepo() member.MemberRepository { return s.repos.Members }

// TreeRepo returns the tree repository.
func (s *NoOpTransactionScope) TreeRepo() member.TreeRepository { return s.repos.Tree }

// EarningsRepo returns the earnings repository.
func (s *NoOpTransactionScope) EarningsRepo() member.EarningsRepository { return s.repos.Earnings }

// RecordRepo returns the commission record repository.
func (s *NoOpTransactionScope) RecordRepo() commission.RecordRepository { return s.repos.Records }

// DistributionRepo returns the distribution guard repository.
func (s *NoOpTransactionScope) DistributionRepo() commission.DistributionRepository {
	return s.repos.Distributions
}

// WithdrawalRepo returns the withdrawal repository.
func (s *NoOpTransactionScope) WithdrawalRepo() commission.WithdrawalRepository {
	return s.repos.Withdrawals
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() trade.OrderRepository { return s.repos.Orders }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
