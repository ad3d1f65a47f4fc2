package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/catalog"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	memberRepo     member.MemberRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	memberRepo member.MemberRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		memberRepo:  memberRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher for product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a product owned by the calling shopkeeper. A commission
// structure supplied with the request is validated before anything is stored.
func (s *ProductService) Create(ctx context.Context, actor Actor, req CreateProductRequest) (*ProductResponse, error) {
	owner, err := s.memberRepo.FindByID(ctx, actor.MemberID)
	if err != nil {
		return nil, err
	}
	if owner.Role != member.RoleShopkeeper {
		return nil, shared.NewDomainError("FORBIDDEN", "Only shopkeepers can create products")
	}

	product, err := catalog.NewProduct(owner.ID, req.Name, req.Price, req.Cost)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if err := product.SetBuyerRewardPoints(req.BuyerRewardPoints); err != nil {
		return nil, err
	}
	if len(req.CommissionStructure) > 0 {
		if err := product.SetCommissionStructure(fromEntryDTOs(req.CommissionStructure)); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("shopkeeper_id", owner.ID.String()),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns a product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.ShopkeeperID != nil {
		f.Filters["shopkeeper_id"] = *filter.ShopkeeperID
	}

	products, total, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// Update changes descriptive fields, reward points and availability
func (s *ProductService) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name, description := product.Name, product.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := product.Update(name, description); err != nil {
		return nil, err
	}
	if req.BuyerRewardPoints != nil {
		if err := product.SetBuyerRewardPoints(*req.BuyerRewardPoints); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		if *req.Active {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	return s.save(ctx, product)
}

// UpdatePricing changes price and cost. The stored commission structure
// must still fit the new margin.
func (s *ProductService) UpdatePricing(ctx context.Context, actor Actor, id uuid.UUID, req UpdatePricingRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetPricing(req.Price, req.Cost); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

// SetCommissionStructure validates and replaces the commission table.
// On a validation error nothing is persisted.
func (s *ProductService) SetCommissionStructure(ctx context.Context, actor Actor, id uuid.UUID, req SetCommissionStructureRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetCommissionStructure(fromEntryDTOs(req.Entries)); err != nil {
		s.logger.Info("commission structure rejected",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return s.save(ctx, product)
}

// ResolveCommissionTable returns the product's paying levels in ascending order
func (s *ProductService) ResolveCommissionTable(ctx context.Context, id uuid.UUID) (*CommissionTableResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	table := catalog.Resolve(product)
	return &CommissionTableResponse{
		ProductID:    product.ID,
		Entries:      toEntryDTOs(table.Entries()),
		MaxLevel:     table.MaxLevel(),
		TotalPerUnit: table.TotalPerUnit(),
		Margin:       product.Margin(),
	}, nil
}

func (s *ProductService) loadOwned(ctx context.Context, actor Actor, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && product.ShopkeeperID != actor.MemberID {
		return nil, shared.NewDomainError("FORBIDDEN", "Product belongs to another shopkeeper")
	}
	return product, nil
}

func (s *ProductService) save(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events", zap.Error(err))
	}
}
