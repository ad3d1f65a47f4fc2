package handler

import (
	"github.com/gin-gonic/gin"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
)

// CommissionHandler serves distribution, the member ledger and withdrawals
type CommissionHandler struct {
	BaseHandler
	distribution *commissionapp.DistributionService
	ledger       *commissionapp.LedgerService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(distribution *commissionapp.DistributionService, ledger *commissionapp.LedgerService) *CommissionHandler {
	return &CommissionHandler{distribution: distribution, ledger: ledger}
}

// Distribute pays out commissions for a completed order. Repeating the
// call for the same order is a success flagged as duplicate.
// POST /commissions/distribute
func (h *CommissionHandler) Distribute(c *gin.Context) {
	var req commissionapp.DistributeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.distribution.Distribute(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// Cancel cancels one pending commission record
// POST /commissions/:id/cancel
func (h *CommissionHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req commissionapp.CancelCommissionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.ledger.CancelCommission(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MarkPaid settles one pending commission record
// POST /commissions/:id/pay
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.ledger.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Earnings returns the member's earnings counters
// GET /members/:id/earnings
func (h *CommissionHandler) Earnings(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.ledger.GetEarnings(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Commissions pages through the member's commission records
// GET /members/:id/commissions
func (h *CommissionHandler) Commissions(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var filter commissionapp.CommissionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.ledger.ListCommissions(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Withdraw moves an amount out of the member's pending balance
// POST /members/:id/withdrawals
func (h *CommissionHandler) Withdraw(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req commissionapp.WithdrawRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.ledger.Withdraw(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Withdrawals pages through the member's withdrawals
// GET /members/:id/withdrawals
func (h *CommissionHandler) Withdrawals(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var filter commissionapp.WithdrawalListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.ledger.ListWithdrawals(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Reconcile checks the member's counters against the records
// GET /members/:id/reconcile
func (h *CommissionHandler) Reconcile(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.ledger.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
