package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/application/txn"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// CommissionDistributor pays commissions for a completed order
type CommissionDistributor interface {
	Distribute(ctx context.Context, req commissionapp.DistributeRequest) (*commissionapp.DistributionResult, error)
}

// CommissionCanceller reverses the commissions of a refunded order
type CommissionCanceller interface {
	CancelOrderCommissions(ctx context.Context, orderID uuid.UUID, reason string) (*commissionapp.CancelOrderResult, error)
}

// OrderService handles the order lifecycle. Completion is the trigger for
// reward points and commission distribution.
type OrderService struct {
	orderRepo      trade.OrderRepository
	productRepo    catalog.ProductRepository
	memberRepo     member.MemberRepository
	txScope        txn.TransactionScope
	distributor    CommissionDistributor
	canceller      CommissionCanceller
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	productRepo catalog.ProductRepository,
	memberRepo member.MemberRepository,
	txScope txn.TransactionScope,
	distributor CommissionDistributor,
	canceller CommissionCanceller,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		memberRepo:  memberRepo,
		txScope:     txScope,
		distributor: distributor,
		canceller:   canceller,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create places a pending order for one product
func (s *OrderService) Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	buyer, err := s.memberRepo.FindByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.IsPending() {
		return nil, member.ErrMemberPending
	}
	if !buyer.CanTransact() {
		return nil, shared.NewDomainError("FORBIDDEN", "Member cannot place orders")
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, catalog.ErrProductInactive
	}

	order, err := trade.NewOrder(buyer.ID, product.ID, product.Name, req.Quantity, product.Price)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("buyer_id", buyer.ID.String()),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListByBuyer returns a page of a member's orders
func (s *OrderService) ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := trade.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order status %q", filter.Status))
		}
		f.Filters["status"] = string(status)
	}

	orders, total, err := s.orderRepo.FindByBuyer(ctx, buyerID, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// MarkPaid records payment of a pending order
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, req PayOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.MarkPaid(req.PaymentRef); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	resp := ToOrderResponse(order)
	return &resp, nil
}

// Complete finishes a paid order: the buyer receives reward points and the
// upline receives commissions. Calling it again on a completed order only
// retries distribution, which is a no-op once the order was distributed.
func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*CompleteOrderResult, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsCompleted() {
		product, err := s.productRepo.FindByID(ctx, order.ProductID)
		if err != nil {
			return nil, err
		}
		if err := order.Complete(product.BuyerRewardPoints); err != nil {
			return nil, err
		}
		err = s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
				return err
			}
			if order.RewardPoints > 0 {
				return repos.EarningsRepo().AddPoints(ctx, order.BuyerID, order.RewardPoints)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.publish(ctx, order)
		s.logger.Info("order completed",
			zap.String("order_id", order.ID.String()),
			zap.Int64("reward_points", order.RewardPoints),
		)
	}

	dist, err := s.distributor.Distribute(ctx, commissionapp.DistributeRequest{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
	})
	if err != nil {
		s.logger.Warn("commission distribution failed for completed order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("distribute commission for order %s: %w", order.OrderNumber, err)
	}

	return &CompleteOrderResult{
		Order:        ToOrderResponse(order),
		Distribution: dist,
	}, nil
}

// Refund reverses a completed order. Pending commissions are cancelled
// before the order is marked refunded, so a failed cancellation leaves
// the order completed and the refund can be retried.
func (s *OrderService) Refund(ctx context.Context, orderID uuid.UUID, req RefundOrderRequest) (*RefundOrderResult, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Refund(req.Reason); err != nil {
		return nil, err
	}

	cancelled, err := s.canceller.CancelOrderCommissions(ctx, order.ID, "order refunded: "+order.RefundReason)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		if order.RewardPoints > 0 {
			return repos.EarningsRepo().AddPoints(ctx, order.BuyerID, -order.RewardPoints)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, order)

	s.logger.Info("order refunded",
		zap.String("order_id", order.ID.String()),
		zap.Int("commissions_cancelled", len(cancelled.Cancelled)),
		zap.Int("commissions_skipped", len(cancelled.Skipped)),
	)
	return &RefundOrderResult{
		Order:       ToOrderResponse(order),
		Commissions: cancelled,
	}, nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events", zap.Error(err))
	}
}
