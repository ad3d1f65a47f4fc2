package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/mlmshop/backend/internal/application/catalog"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
)

// ProductHandler serves the product catalog and commission structures
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func actorFrom(c *gin.Context) catalogapp.Actor {
	return catalogapp.Actor{
		MemberID: middleware.GetMemberID(c),
		IsAdmin:  middleware.IsAdmin(c),
	}
}

// Create adds a product owned by the calling shopkeeper
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.products.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List pages through products
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one product
// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Update changes descriptive fields and the active flag
// PATCH /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.products.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdatePricing changes price and cost; the current structure must still fit
// PUT /products/:id/pricing
func (h *ProductHandler) UpdatePricing(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdatePricingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.products.UpdatePricing(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SetCommissionStructure replaces the per-level commission amounts
// PUT /products/:id/commission-structure
func (h *ProductHandler) SetCommissionStructure(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.SetCommissionStructureRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.products.SetCommissionStructure(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CommissionTable returns the resolved, level-ordered table
// GET /products/:id/commission-table
func (h *ProductHandler) CommissionTable(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.products.ResolveCommissionTable(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
