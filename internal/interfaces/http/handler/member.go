package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/application/network"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/auth"
	"github.com/mlmshop/backend/internal/interfaces/http/dto"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
)

// InviteIssuer signs shopkeeper invite tokens
type InviteIssuer interface {
	GenerateInviteToken(issuedBy uuid.UUID) (*auth.IssuedToken, error)
}

// MemberHandler serves registration, placement and tree queries
type MemberHandler struct {
	BaseHandler
	registration *network.RegistrationService
	placement    *network.PlacementService
	tree         *network.TreeQueryService
	invites      InviteIssuer
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(
	registration *network.RegistrationService,
	placement *network.PlacementService,
	tree *network.TreeQueryService,
	invites InviteIssuer,
) *MemberHandler {
	return &MemberHandler{
		registration: registration,
		placement:    placement,
		tree:         tree,
		invites:      invites,
	}
}

// RegisterMemberRequest is the registration body. The account comes from
// the caller's token, never from the body.
type RegisterMemberRequest struct {
	DisplayName  string `json:"display_name" binding:"required,min=1,max=100"`
	Role         string `json:"role" binding:"required,oneof=customer shopkeeper"`
	ReferralCode string `json:"referral_code" binding:"omitempty,max=32"`
	InviteToken  string `json:"invite_token"`
}

// MemberListQuery filters the admin member listing
type MemberListQuery struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=pending customer shopkeeper"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Register creates a member profile for the calling account
// POST /members
func (h *MemberHandler) Register(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	accountID, err := claims.AccountUUID()
	if err != nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Token carries no account")
		return
	}

	var req RegisterMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.registration.Register(c.Request.Context(), network.RegisterRequest{
		AccountID:    accountID,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		ReferralCode: req.ReferralCode,
		InviteToken:  req.InviteToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Place puts an unplaced customer into a referrer's subtree
// POST /members/:id/place
func (h *MemberHandler) Place(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req network.PlaceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.MemberID = id

	result, err := h.placement.Place(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Approve activates a pending member
// POST /members/:id/approve
func (h *MemberHandler) Approve(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req network.ApproveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.registration.Approve(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// IssueInvite signs a shopkeeper invite token
// POST /invites
func (h *MemberHandler) IssueInvite(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	issuer, _ := claims.AccountUUID()

	token, err := h.invites.GenerateInviteToken(issuer)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, token)
}

// Get returns one member
// GET /members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.registration.GetMember(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List pages through members
// GET /members
func (h *MemberHandler) List(c *gin.Context) {
	var q MemberListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	filter.Search = q.Search
	if q.Role != "" {
		filter.Filters["role"] = q.Role
	}

	result, err := h.registration.ListMembers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Ancestry returns the member's parents from nearest to root
// GET /members/:id/ancestry
func (h *MemberHandler) Ancestry(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.tree.GetAncestryChain(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Tree returns the member's downline to ?depth levels
// GET /members/:id/tree
func (h *MemberHandler) Tree(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	depth, err := queryInt(c, "depth", 0)
	if err != nil {
		h.BadRequest(c, "depth must be an integer")
		return
	}
	result, err := h.tree.GetDescendantTree(c.Request.Context(), id, depth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DownlineStats counts the member's downline per level
// GET /members/:id/downline-stats
func (h *MemberHandler) DownlineStats(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	depth, err := queryInt(c, "depth", 0)
	if err != nil {
		h.BadRequest(c, "depth must be an integer")
		return
	}
	result, err := h.tree.GetDownlineStats(c.Request.Context(), id, depth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
