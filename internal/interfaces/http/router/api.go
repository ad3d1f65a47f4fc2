package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mlmshop/backend/internal/domain/member"
	"github.com/mlmshop/backend/internal/interfaces/http/handler"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted under the versioned API
type Handlers struct {
	Members     *handler.MemberHandler
	Products    *handler.ProductHandler
	Orders      *handler.OrderHandler
	Commissions *handler.CommissionHandler
	Health      *handler.HealthHandler
}

// RegisterAPI mounts every domain group. Authentication is expected to run
// on the API group already; the groups only add role and ownership guards.
func RegisterAPI(r *Router, h Handlers) {
	self := middleware.RequireSelfOrAdmin("id")
	admin := middleware.RequireAdmin()
	shopkeeper := middleware.RequireRole(string(member.RoleShopkeeper))

	health := NewDomainGroup("health", "/health")
	health.GET("", h.Health.Health)

	members := NewDomainGroup("members", "/members")
	members.POST("", h.Members.Register)
	members.GET("", admin, h.Members.List)
	members.GET("/:id", self, h.Members.Get)
	members.POST("/:id/place", self, h.Members.Place)
	members.POST("/:id/approve", admin, h.Members.Approve)
	members.GET("/:id/ancestry", self, h.Members.Ancestry)
	members.GET("/:id/tree", self, h.Members.Tree)
	members.GET("/:id/downline-stats", self, h.Members.DownlineStats)
	members.GET("/:id/earnings", self, h.Commissions.Earnings)
	members.GET("/:id/commissions", self, h.Commissions.Commissions)
	members.POST("/:id/withdrawals", self, h.Commissions.Withdraw)
	members.GET("/:id/withdrawals", self, h.Commissions.Withdrawals)
	members.GET("/:id/reconcile", admin, h.Commissions.Reconcile)

	invites := NewDomainGroup("invites", "/invites")
	invites.POST("", admin, h.Members.IssueInvite)

	products := NewDomainGroup("products", "/products")
	products.POST("", shopkeeper, h.Products.Create)
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.Get)
	products.PATCH("/:id", shopkeeper, h.Products.Update)
	products.PUT("/:id/pricing", shopkeeper, h.Products.UpdatePricing)
	products.PUT("/:id/commission-structure", shopkeeper, h.Products.SetCommissionStructure)
	products.GET("/:id/commission-table", h.Products.CommissionTable)

	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", h.Orders.Create)
	orders.GET("", h.Orders.ListMine)
	orders.GET("/:id", h.Orders.Get)
	orders.POST("/:id/pay", admin, h.Orders.Pay)
	orders.POST("/:id/complete", admin, h.Orders.Complete)
	orders.POST("/:id/refund", admin, h.Orders.Refund)

	commissions := NewDomainGroup("commissions", "/commissions")
	commissions.POST("/distribute", admin, h.Commissions.Distribute)
	commissions.POST("/:id/cancel", admin, h.Commissions.Cancel)
	commissions.POST("/:id/pay", admin, h.Commissions.MarkPaid)

	r.Register(health).
		Register(members).
		Register(invites).
		Register(products).
		Register(orders).
		Register(commissions)
}

// NewEngine builds a gin engine with the standard middleware chain in order:
// request id, request logging, recovery, then the extras.
func NewEngine(requestLogger, recovery gin.HandlerFunc, extra ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), requestLogger, recovery)
	engine.Use(extra...)
	engine.NoRoute(middleware.NotFound())
	return engine
}
