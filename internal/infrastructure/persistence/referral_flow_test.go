package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/mlmshop/backend/internal/application/catalog"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/application/network"
	tradeapp "github.com/mlmshop/backend/internal/application/trade"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// referralFlow wires the application services over one sqlite database
type referralFlow struct {
	members      *GormMemberRepository
	products     *GormProductRepository
	records      *GormCommissionRecordRepository
	distros      *GormDistributionRepository
	registration *network.RegistrationService
	tree         *network.TreeQueryService
	catalog      *catalogapp.ProductService
	distribution *commissionapp.DistributionService
	ledger       *commissionapp.LedgerService
	orders       *tradeapp.OrderService
}

func newReferralFlow(t *testing.T) *referralFlow {
	t.Helper()
	db := setupTestDB(t)
	logger := zap.NewNop()
	scope := NewGormTransactionScope(db)

	f := &referralFlow{
		members:  NewGormMemberRepository(db),
		products: NewGormProductRepository(db),
		records:  NewGormCommissionRecordRepository(db),
		distros:  NewGormDistributionRepository(db),
	}
	placement := network.NewPlacementService(f.members, scope, network.PlacementConfig{MaxDepth: 20, MaxRetries: 5}, logger)
	f.registration = network.NewRegistrationService(f.members, placement, nil, 5, logger)
	f.tree = network.NewTreeQueryService(f.members, 6, logger)
	f.catalog = catalogapp.NewProductService(f.products, f.members, logger)
	f.distribution = commissionapp.NewDistributionService(f.products, scope, logger)
	f.ledger = commissionapp.NewLedgerService(f.members, f.records, NewGormWithdrawalRepository(db), scope, logger)
	f.orders = tradeapp.NewOrderService(NewGormOrderRepository(db), f.products, f.members, scope, f.distribution, f.ledger, logger)
	return f
}

func (f *referralFlow) register(t *testing.T, name, referralCode string) network.MemberResponse {
	t.Helper()
	res, err := f.registration.Register(context.Background(), network.RegisterRequest{
		AccountID:    uuid.New(),
		DisplayName:  name,
		Role:         string(member.RoleCustomer),
		ReferralCode: referralCode,
	})
	require.NoError(t, err)
	return res.Member
}

func (f *referralFlow) load(t *testing.T, id uuid.UUID) *member.Member {
	t.Helper()
	m, err := f.members.FindByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

// vitaminPack is priced 100 at cost 55 and pays 25 at level 1 and 20 at level 2
func (f *referralFlow) vitaminPack(t *testing.T) *catalogapp.ProductResponse {
	t.Helper()
	shop, err := member.NewMember(uuid.New(), "Corner Shop", member.RoleShopkeeper)
	require.NoError(t, err)
	require.NoError(t, f.members.Save(context.Background(), shop))

	p, err := f.catalog.Create(context.Background(), catalogapp.Actor{MemberID: shop.ID}, catalogapp.CreateProductRequest{
		Name:              "Vitamin Pack",
		Price:             dec("100"),
		Cost:              dec("55"),
		BuyerRewardPoints: 10,
		CommissionStructure: []catalogapp.CommissionEntryDTO{
			{Level: 1, Amount: dec("25")},
			{Level: 2, Amount: dec("20")},
		},
	})
	require.NoError(t, err)
	return p
}

// completedOrder runs an order from creation to completion
func (f *referralFlow) completedOrder(t *testing.T, buyerID, productID uuid.UUID, qty int) *tradeapp.CompleteOrderResult {
	t.Helper()
	ctx := context.Background()
	order, err := f.orders.Create(ctx, buyerID, tradeapp.CreateOrderRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	_, err = f.orders.MarkPaid(ctx, order.ID, tradeapp.PayOrderRequest{PaymentRef: "psp-" + order.OrderNumber})
	require.NoError(t, err)
	res, err := f.orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	return res
}

func TestReferralFlow_DirectPlacement(t *testing.T) {
	f := newReferralFlow(t)

	root := f.register(t, "Root", "")
	assert.Nil(t, root.ReferredBy)
	require.NotEmpty(t, root.ReferralCode)

	n := f.register(t, "Newcomer", root.ReferralCode)
	require.NotNil(t, n.ReferredBy)
	assert.Equal(t, root.ID, *n.ReferredBy)

	r := f.load(t, root.ID)
	require.NotNil(t, r.LeftChild)
	assert.Equal(t, n.ID, *r.LeftChild)
	assert.Nil(t, r.RightChild)
}

func TestReferralFlow_SpilloverFillsLevelsLeftFirst(t *testing.T) {
	f := newReferralFlow(t)

	root := f.register(t, "Root", "")
	a := f.register(t, "A", root.ReferralCode)
	b := f.register(t, "B", root.ReferralCode)

	r := f.load(t, root.ID)
	assert.Equal(t, a.ID, *r.LeftChild)
	assert.Equal(t, b.ID, *r.RightChild)

	expected := []struct {
		parent uuid.UUID
		slot   member.TreeSlot
	}{
		{a.ID, member.SlotLeft},
		{a.ID, member.SlotRight},
		{b.ID, member.SlotLeft},
		{b.ID, member.SlotRight},
	}
	for _, want := range expected {
		n := f.register(t, "Spill", root.ReferralCode)
		require.NotNil(t, n.ReferredBy)
		assert.Equal(t, want.parent, *n.ReferredBy)

		parent := f.load(t, want.parent)
		child := parent.ChildAt(want.slot)
		require.NotNil(t, child)
		assert.Equal(t, n.ID, *child)
	}

	t.Run("a referral into a subtree stays in that subtree", func(t *testing.T) {
		n := f.register(t, "Below B", b.ReferralCode)
		require.NotNil(t, n.ReferredBy)
		bNode := f.load(t, b.ID)
		left := f.load(t, *bNode.LeftChild)
		require.NotNil(t, left.LeftChild)
		assert.Equal(t, n.ID, *left.LeftChild)
	})
}

func TestReferralFlow_UnknownReferralCode(t *testing.T) {
	f := newReferralFlow(t)
	f.register(t, "Root", "")

	_, err := f.registration.Register(context.Background(), network.RegisterRequest{
		AccountID:    uuid.New(),
		DisplayName:  "Lost",
		Role:         string(member.RoleCustomer),
		ReferralCode: "NOSUCHCODE",
	})
	assert.ErrorIs(t, err, member.ErrInvalidReferralCode)

	_, total, err := f.members.FindAll(context.Background(), shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestReferralFlow_TreeQueries(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()

	root := f.register(t, "Root", "")
	l1 := f.register(t, "Level One", root.ReferralCode)
	buyer := f.register(t, "Buyer", l1.ReferralCode)

	chain, err := f.tree.GetAncestryChain(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{l1.ID, root.ID}, chain.Ancestors)

	chain, err = f.tree.GetAncestryChain(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, chain.Ancestors)

	snapshot, err := f.tree.GetDescendantTree(ctx, root.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, snapshot.Left)
	assert.Equal(t, l1.ID, snapshot.Left.ID)
	require.NotNil(t, snapshot.Left.Left)
	assert.Equal(t, buyer.ID, snapshot.Left.Left.ID)
	assert.Nil(t, snapshot.Right)

	shallow, err := f.tree.GetDescendantTree(ctx, root.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, shallow.Left)
	assert.Nil(t, shallow.Left.Left)
	assert.True(t, shallow.Left.Truncated)
}

func TestReferralFlow_TwoLevelCommission(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()

	root := f.register(t, "Root", "")
	l1 := f.register(t, "Level One", root.ReferralCode)
	buyer := f.register(t, "Buyer", l1.ReferralCode)
	product := f.vitaminPack(t)

	res := f.completedOrder(t, buyer.ID, product.ID, 2)
	require.NotNil(t, res.Distribution)
	assert.False(t, res.Distribution.Duplicate)
	require.Len(t, res.Distribution.Records, 2)
	assert.True(t, res.Distribution.TotalAmount.Equal(dec("90")))

	assertEarnings(t, f.load(t, l1.ID).Earnings, "50", "50", "0")
	assertEarnings(t, f.load(t, root.ID).Earnings, "40", "40", "0")
	assertEarnings(t, f.load(t, buyer.ID).Earnings, "0", "0", "0")
	assert.Equal(t, int64(20), f.load(t, buyer.ID).TotalPoints)

	records, err := f.records.FindByOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, l1.ID, records[0].BeneficiaryID)
	assert.Equal(t, root.ID, records[1].BeneficiaryID)

	for _, id := range []uuid.UUID{root.ID, l1.ID} {
		report, err := f.ledger.Reconcile(ctx, id)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
	}
}

func TestReferralFlow_StructureAboveMarginRejected(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()
	product := f.vitaminPack(t)

	_, err := f.catalog.SetCommissionStructure(ctx, catalogapp.Actor{MemberID: product.ShopkeeperID}, product.ID,
		catalogapp.SetCommissionStructureRequest{Entries: []catalogapp.CommissionEntryDTO{
			{Level: 1, Amount: dec("30")},
			{Level: 2, Amount: dec("20")},
		}})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCommissionExceedsProfit)

	var exceeds *catalog.CommissionExceedsProfitError
	require.True(t, errors.As(err, &exceeds))
	assert.True(t, exceeds.Total.Equal(dec("50")))
	assert.True(t, exceeds.Available.Equal(dec("45")))

	stored, err := f.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalCommissionPerUnit().Equal(dec("45")))
}

func TestReferralFlow_ChainShorterThanStructure(t *testing.T) {
	f := newReferralFlow(t)

	root := f.register(t, "Root", "")
	buyer := f.register(t, "Buyer", root.ReferralCode)
	product := f.vitaminPack(t)

	res := f.completedOrder(t, buyer.ID, product.ID, 3)
	require.Len(t, res.Distribution.Records, 1)
	assert.Equal(t, 1, res.Distribution.Records[0].Level)
	assertEarnings(t, f.load(t, root.ID).Earnings, "75", "75", "0")
}

func TestReferralFlow_RootBuyerPaysNobody(t *testing.T) {
	f := newReferralFlow(t)

	root := f.register(t, "Root", "")
	product := f.vitaminPack(t)

	res := f.completedOrder(t, root.ID, product.ID, 1)
	assert.Empty(t, res.Distribution.Records)
	assert.True(t, res.Distribution.TotalAmount.IsZero())
	assertEarnings(t, f.load(t, root.ID).Earnings, "0", "0", "0")
}

func TestReferralFlow_DistributionIsIdempotent(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()

	root := f.register(t, "Root", "")
	l1 := f.register(t, "Level One", root.ReferralCode)
	buyer := f.register(t, "Buyer", l1.ReferralCode)
	product := f.vitaminPack(t)

	res := f.completedOrder(t, buyer.ID, product.ID, 2)

	again, err := f.distribution.Distribute(ctx, commissionapp.DistributeRequest{
		OrderID:   res.Order.ID,
		BuyerID:   buyer.ID,
		ProductID: product.ID,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.True(t, again.Duplicate)

	completedAgain, err := f.orders.Complete(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, completedAgain.Distribution.Duplicate)

	assertEarnings(t, f.load(t, l1.ID).Earnings, "50", "50", "0")
	assertEarnings(t, f.load(t, root.ID).Earnings, "40", "40", "0")
	assert.Equal(t, int64(20), f.load(t, buyer.ID).TotalPoints)

	records, err := f.records.FindByOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReferralFlow_DistributionIsAllOrNothing(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()

	root := f.register(t, "Root", "")
	l1 := f.register(t, "Level One", root.ReferralCode)
	buyer := f.register(t, "Buyer", l1.ReferralCode)
	product := f.vitaminPack(t)

	// a stray level 2 row makes the batch insert fail after the level 1 credit was prepared
	orderID := uuid.New()
	stray, err := commission.NewRecord(uuid.New(), buyer.ID, orderID, product.ID, 2, dec("1"), 1)
	require.NoError(t, err)
	require.NoError(t, f.records.SaveBatch(ctx, []*commission.Record{stray}))

	_, err = f.distribution.Distribute(ctx, commissionapp.DistributeRequest{
		OrderID:   orderID,
		BuyerID:   buyer.ID,
		ProductID: product.ID,
		Quantity:  2,
	})
	require.Error(t, err)

	_, err = f.distros.FindByOrder(ctx, orderID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assertEarnings(t, f.load(t, l1.ID).Earnings, "0", "0", "0")
	assertEarnings(t, f.load(t, root.ID).Earnings, "0", "0", "0")

	records, err := f.records.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReferralFlow_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses pending commissions and points", func(t *testing.T) {
		f := newReferralFlow(t)
		root := f.register(t, "Root", "")
		l1 := f.register(t, "Level One", root.ReferralCode)
		buyer := f.register(t, "Buyer", l1.ReferralCode)
		product := f.vitaminPack(t)
		res := f.completedOrder(t, buyer.ID, product.ID, 2)

		refund, err := f.orders.Refund(ctx, res.Order.ID, tradeapp.RefundOrderRequest{Reason: "damaged"})
		require.NoError(t, err)
		assert.Len(t, refund.Commissions.Cancelled, 2)
		assert.Empty(t, refund.Commissions.Skipped)

		assertEarnings(t, f.load(t, l1.ID).Earnings, "0", "0", "0")
		assertEarnings(t, f.load(t, root.ID).Earnings, "0", "0", "0")
		assert.Equal(t, int64(0), f.load(t, buyer.ID).TotalPoints)

		records, err := f.records.FindByOrder(ctx, res.Order.ID)
		require.NoError(t, err)
		for _, rec := range records {
			assert.Equal(t, commission.StatusCancelled, rec.Status)
		}

		report, err := f.ledger.Reconcile(ctx, l1.ID)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
	})

	t.Run("fails closed once the earnings were withdrawn", func(t *testing.T) {
		f := newReferralFlow(t)
		root := f.register(t, "Root", "")
		l1 := f.register(t, "Level One", root.ReferralCode)
		buyer := f.register(t, "Buyer", l1.ReferralCode)
		product := f.vitaminPack(t)
		res := f.completedOrder(t, buyer.ID, product.ID, 2)

		_, err := f.ledger.Withdraw(ctx, l1.ID, commissionapp.WithdrawRequest{Amount: dec("30"), Reference: "bank"})
		require.NoError(t, err)

		_, err = f.orders.Refund(ctx, res.Order.ID, tradeapp.RefundOrderRequest{Reason: "late refund"})
		assert.ErrorIs(t, err, member.ErrInconsistentLedger)

		assertEarnings(t, f.load(t, l1.ID).Earnings, "50", "20", "30")
		assertEarnings(t, f.load(t, root.ID).Earnings, "40", "40", "0")

		records, err := f.records.FindByOrder(ctx, res.Order.ID)
		require.NoError(t, err)
		for _, rec := range records {
			assert.Equal(t, commission.StatusPending, rec.Status)
		}

		order, err := f.orders.GetByID(ctx, res.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, res.Order.Status, order.Status)
	})
}

func TestReferralFlow_WithdrawBeyondPending(t *testing.T) {
	f := newReferralFlow(t)
	ctx := context.Background()

	root := f.register(t, "Root", "")
	buyer := f.register(t, "Buyer", root.ReferralCode)
	product := f.vitaminPack(t)
	f.completedOrder(t, buyer.ID, product.ID, 1)

	_, err := f.ledger.Withdraw(ctx, root.ID, commissionapp.WithdrawRequest{Amount: dec("25.01")})
	assert.ErrorIs(t, err, member.ErrInsufficientPendingBalance)

	_, err = f.ledger.Withdraw(ctx, root.ID, commissionapp.WithdrawRequest{Amount: dec("25")})
	require.NoError(t, err)

	earnings, err := f.ledger.GetEarnings(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, earnings.PendingWithdrawal.IsZero())
	assert.True(t, earnings.WithdrawnAmount.Equal(dec("25")))

	report, err := f.ledger.Reconcile(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}
