package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindByShopkeeper(ctx context.Context, shopkeeperID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, shopkeeperID, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*member.Member, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*member.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByReferralCode(ctx context.Context, code string) (*member.Member, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *MockMemberRepository) FindAll(ctx context.Context, filter shared.Filter) ([]member.Member, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]member.Member), args.Get(1).(int64), args.Error(2)
}

func (m *MockMemberRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepository) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Save(ctx context.Context, mem *member.Member) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func (m *MockMemberRepository) SaveWithLock(ctx context.Context, mem *member.Member) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newShopkeeper(t *testing.T) *member.Member {
	t.Helper()
	m, err := member.NewMember(uuid.New(), "Shop", member.RoleShopkeeper)
	require.NoError(t, err)
	return m
}

func newTestProduct(t *testing.T, owner uuid.UUID) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(owner, "Widget", dec("100"), dec("60"))
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("shopkeeper creates product with valid structure", func(t *testing.T) {
		products := new(MockProductRepository)
		members := new(MockMemberRepository)
		svc := NewProductService(products, members, zap.NewNop())
		shop := newShopkeeper(t)

		members.On("FindByID", ctx, shop.ID).Return(shop, nil)
		products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := svc.Create(ctx, Actor{MemberID: shop.ID}, CreateProductRequest{
			Name:              "Widget",
			Price:             dec("100"),
			Cost:              dec("60"),
			BuyerRewardPoints: 5,
			CommissionStructure: []CommissionEntryDTO{
				{Level: 2, Amount: dec("15")},
				{Level: 1, Amount: dec("25")},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, shop.ID, resp.ShopkeeperID)
		assert.True(t, resp.Margin.Equal(dec("40")))
		assert.True(t, resp.TotalCommissionPerUnit.Equal(dec("40")))
		require.Len(t, resp.CommissionStructure, 2)
		assert.Equal(t, 1, resp.CommissionStructure[0].Level)
		products.AssertExpectations(t)
	})

	t.Run("structure above margin is rejected before save", func(t *testing.T) {
		products := new(MockProductRepository)
		members := new(MockMemberRepository)
		svc := NewProductService(products, members, zap.NewNop())
		shop := newShopkeeper(t)

		members.On("FindByID", ctx, shop.ID).Return(shop, nil)

		_, err := svc.Create(ctx, Actor{MemberID: shop.ID}, CreateProductRequest{
			Name:  "Widget",
			Price: dec("100"),
			Cost:  dec("60"),
			CommissionStructure: []CommissionEntryDTO{
				{Level: 1, Amount: dec("30")},
				{Level: 2, Amount: dec("20")},
			},
		})
		var exceeds *catalog.CommissionExceedsProfitError
		require.True(t, errors.As(err, &exceeds))
		assert.True(t, exceeds.Total.Equal(dec("50")))
		assert.True(t, exceeds.Available.Equal(dec("40")))
		products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("customers cannot create products", func(t *testing.T) {
		products := new(MockProductRepository)
		members := new(MockMemberRepository)
		svc := NewProductService(products, members, zap.NewNop())
		customer, err := member.NewMember(uuid.New(), "C", member.RoleCustomer)
		require.NoError(t, err)

		members.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err = svc.Create(ctx, Actor{MemberID: customer.ID}, CreateProductRequest{Name: "W", Price: dec("1"), Cost: dec("0")})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestProductService_SetCommissionStructure(t *testing.T) {
	ctx := context.Background()

	t.Run("valid structure is saved", func(t *testing.T) {
		products := new(MockProductRepository)
		svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
		owner := uuid.New()
		p := newTestProduct(t, owner)

		products.On("FindByID", ctx, p.ID).Return(p, nil)
		products.On("SaveWithLock", ctx, p).Return(nil)

		resp, err := svc.SetCommissionStructure(ctx, Actor{MemberID: owner}, p.ID, SetCommissionStructureRequest{
			Entries: []CommissionEntryDTO{{Level: 1, Amount: dec("25")}, {Level: 2, Amount: dec("15")}},
		})
		require.NoError(t, err)
		assert.Len(t, resp.CommissionStructure, 2)
		products.AssertExpectations(t)
	})

	t.Run("exceeding structure is not saved and stored one unchanged", func(t *testing.T) {
		products := new(MockProductRepository)
		svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
		owner := uuid.New()
		p := newTestProduct(t, owner)
		require.NoError(t, p.SetCommissionStructure([]catalog.CommissionEntry{{Level: 1, Amount: dec("10")}}))

		products.On("FindByID", ctx, p.ID).Return(p, nil)

		_, err := svc.SetCommissionStructure(ctx, Actor{MemberID: owner}, p.ID, SetCommissionStructureRequest{
			Entries: []CommissionEntryDTO{{Level: 1, Amount: dec("30")}, {Level: 2, Amount: dec("20")}},
		})
		assert.ErrorIs(t, err, catalog.ErrCommissionExceedsProfit)
		products.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		require.Len(t, p.CommissionStructure, 1)
		assert.True(t, p.CommissionStructure[0].Amount.Equal(dec("10")))
	})

	t.Run("other shopkeeper is forbidden, admin is allowed", func(t *testing.T) {
		products := new(MockProductRepository)
		svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
		p := newTestProduct(t, uuid.New())

		products.On("FindByID", ctx, p.ID).Return(p, nil)
		products.On("SaveWithLock", ctx, p).Return(nil)

		req := SetCommissionStructureRequest{Entries: []CommissionEntryDTO{{Level: 1, Amount: dec("5")}}}
		_, err := svc.SetCommissionStructure(ctx, Actor{MemberID: uuid.New()}, p.ID, req)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = svc.SetCommissionStructure(ctx, Actor{IsAdmin: true}, p.ID, req)
		assert.NoError(t, err)
	})
}

func TestProductService_UpdatePricing(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
	owner := uuid.New()
	p := newTestProduct(t, owner)
	require.NoError(t, p.SetCommissionStructure([]catalog.CommissionEntry{{Level: 1, Amount: dec("35")}}))

	products.On("FindByID", ctx, p.ID).Return(p, nil)
	products.On("SaveWithLock", ctx, p).Return(nil)

	_, err := svc.UpdatePricing(ctx, Actor{MemberID: owner}, p.ID, UpdatePricingRequest{Price: dec("90"), Cost: dec("60")})
	assert.ErrorIs(t, err, catalog.ErrCommissionExceedsProfit)

	resp, err := svc.UpdatePricing(ctx, Actor{MemberID: owner}, p.ID, UpdatePricingRequest{Price: dec("110"), Cost: dec("60")})
	require.NoError(t, err)
	assert.True(t, resp.Margin.Equal(dec("50")))
	products.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestProductService_ResolveCommissionTable(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
	p := newTestProduct(t, uuid.New())
	p.CommissionStructure = []catalog.CommissionEntry{
		{Level: 3, Amount: dec("5")},
		{Level: 1, Amount: dec("20")},
		{Level: 2, Amount: dec("0")},
	}

	products.On("FindByID", ctx, p.ID).Return(p, nil)

	table, err := svc.ResolveCommissionTable(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, table.Entries, 2)
	assert.Equal(t, 1, table.Entries[0].Level)
	assert.Equal(t, 3, table.Entries[1].Level)
	assert.Equal(t, 3, table.MaxLevel)
	assert.True(t, table.TotalPerUnit.Equal(dec("25")))
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	svc := NewProductService(products, new(MockMemberRepository), zap.NewNop())
	p := newTestProduct(t, uuid.New())

	products.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "active" && f.Page == 2
	})).Return([]catalog.Product{*p}, int64(21), nil)

	page, err := svc.List(ctx, ProductListFilter{Status: "active", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
}
