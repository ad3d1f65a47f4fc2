package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// processedOrderKeyPrefix namespaces order ids in the idempotency store
const processedOrderKeyPrefix = "commission:order:"

// DistributionService pays per-level commissions up the referral chain
// when an order completes
type DistributionService struct {
	productRepo      catalog.ProductRepository
	txScope          txn.TransactionScope
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	eventPublisher   shared.EventPublisher
	logger           *zap.Logger
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	productRepo catalog.ProductRepository,
	txScope txn.TransactionScope,
	logger *zap.Logger,
) *DistributionService {
	return &DistributionService{
		productRepo:    productRepo,
		txScope:        txScope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
		logger:         logger,
	}
}

// SetIdempotencyStore sets the processed-orders cache consulted before
// opening a transaction
func (s *DistributionService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// SetEventPublisher sets the publisher for commission events
func (s *DistributionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Distribute credits every ancestor that has a paying level in the product's
// commission table with amount * quantity. Either every record and counter
// update for the order is committed or none is. A second call for the same
// order changes nothing and reports Duplicate.
func (s *DistributionService) Distribute(ctx context.Context, req DistributeRequest) (*DistributionResult, error) {
	if req.OrderID == uuid.Nil || req.BuyerID == uuid.Nil || req.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order, buyer and product are required")
	}
	if req.Quantity < 1 {
		return nil, commission.ErrInvalidQuantity
	}

	key := processedOrderKeyPrefix + req.OrderID.String()
	if s.alreadyProcessed(ctx, key) {
		return s.duplicate(req.OrderID), nil
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	table := catalog.Resolve(product)

	var records []*commission.Record
	err = s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		buyer, err := repos.MemberRepo().FindByID(ctx, req.BuyerID)
		if err != nil {
			return err
		}
		if buyer.IsPending() {
			return member.ErrMemberPending
		}

		ancestors, err := member.WalkAncestors(ctx, repos.MemberRepo(), buyer, table.MaxLevel())
		if err != nil {
			return err
		}

		dist := commission.NewDistribution(req.OrderID, req.BuyerID, req.ProductID, req.Quantity)
		records = make([]*commission.Record, 0, len(ancestors))
		for i, ancestor := range ancestors {
			level := i + 1
			amount, ok := table.AmountAt(level)
			if !ok {
				continue
			}
			rec, err := commission.NewRecord(ancestor.ID, buyer.ID, req.OrderID, req.ProductID, level, amount, req.Quantity)
			if err != nil {
				return err
			}
			records = append(records, rec)
			dist.Add(rec)
		}

		// The guard row is the first write, so a duplicate touches nothing
		inserted, err := repos.DistributionRepo().Insert(ctx, dist)
		if err != nil {
			return err
		}
		if !inserted {
			return commission.ErrDuplicateOrderDistribution
		}

		if len(records) > 0 {
			if err := repos.RecordRepo().SaveBatch(ctx, records); err != nil {
				return err
			}
		}
		for _, rec := range records {
			if err := repos.EarningsRepo().CreditEarnings(ctx, rec.BeneficiaryID, rec.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, commission.ErrDuplicateOrderDistribution) {
		s.markProcessed(ctx, key)
		return s.duplicate(req.OrderID), nil
	}
	if err != nil {
		if errors.Is(err, member.ErrInconsistentLedger) {
			s.logger.Error("commission distribution aborted on inconsistent ledger",
				zap.String("order_id", req.OrderID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.markProcessed(ctx, key)

	result := &DistributionResult{
		OrderID:     req.OrderID,
		Records:     make([]RecordResponse, len(records)),
		TotalAmount: decimal.Zero,
	}
	events := make([]shared.DomainEvent, 0, len(records))
	for i, rec := range records {
		result.Records[i] = ToRecordResponse(rec)
		result.TotalAmount = result.TotalAmount.Add(rec.Amount)
		events = append(events, commission.NewCommissionCreditedEvent(rec))
	}
	s.publish(ctx, events)

	s.logger.Info("commission distributed",
		zap.String("order_id", req.OrderID.String()),
		zap.String("buyer_id", req.BuyerID.String()),
		zap.Int("records", len(records)),
		zap.String("total_amount", result.TotalAmount.String()),
	)
	return result, nil
}

func (s *DistributionService) duplicate(orderID uuid.UUID) *DistributionResult {
	s.logger.Warn("duplicate order distribution ignored",
		zap.String("order_id", orderID.String()),
	)
	return &DistributionResult{
		OrderID:     orderID,
		Duplicate:   true,
		Records:     []RecordResponse{},
		TotalAmount: decimal.Zero,
	}
}

// alreadyProcessed consults the cache only. A cache failure falls through
// to the transactional guard.
func (s *DistributionService) alreadyProcessed(ctx context.Context, key string) bool {
	if s.idempotencyStore == nil || !s.idempotencyCfg.Enabled {
		return false
	}
	processed, err := s.idempotencyStore.IsProcessed(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency store lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return processed
}

func (s *DistributionService) markProcessed(ctx context.Context, key string) {
	if s.idempotencyStore == nil || !s.idempotencyCfg.Enabled {
		return
	}
	ttl := s.idempotencyCfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if _, err := s.idempotencyStore.MarkProcessed(ctx, key, ttl); err != nil {
		s.logger.Warn("failed to mark order processed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DistributionService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish commission events", zap.Error(err))
	}
}
