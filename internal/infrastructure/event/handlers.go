package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerAlert is one inconsistent-ledger report kept for operators
type LedgerAlert struct {
	EventID   string `json:"event_id"`
	MemberID  string `json:"member_id"`
	Operation string `json:"operation"`
	Detail    string `json:"detail"`
}

// LedgerAlertHandler raises operator alerts for inconsistent ledgers.
// The most recent alerts are kept in memory for the admin API.
type LedgerAlertHandler struct {
	logger *zap.Logger
	limit  int

	mu     sync.Mutex
	alerts []LedgerAlert
}

// NewLedgerAlertHandler keeps up to limit alerts, 100 when limit is not positive
func NewLedgerAlertHandler(logger *zap.Logger, limit int) *LedgerAlertHandler {
	if limit <= 0 {
		limit = 100
	}
	return &LedgerAlertHandler{logger: logger, limit: limit}
}

// EventTypes returns the inconsistent ledger event type
func (h *LedgerAlertHandler) EventTypes() []string {
	return []string{commission.EventTypeInconsistentLedger}
}

// Handle logs the alert at error level and records it
func (h *LedgerAlertHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	e, ok := ev.(*commission.InconsistentLedgerEvent)
	if !ok {
		return fmt.Errorf("ledger alert handler: unexpected event %T", ev)
	}

	h.logger.Error("ALERT inconsistent earnings ledger",
		zap.String("event_id", e.EventID().String()),
		zap.String("member_id", e.MemberID.String()),
		zap.String("operation", e.Operation),
		zap.String("detail", e.Detail),
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts = append(h.alerts, LedgerAlert{
		EventID:   e.EventID().String(),
		MemberID:  e.MemberID.String(),
		Operation: e.Operation,
		Detail:    e.Detail,
	})
	if over := len(h.alerts) - h.limit; over > 0 {
		h.alerts = append(h.alerts[:0:0], h.alerts[over:]...)
	}
	return nil
}

// Alerts returns the retained alerts, oldest first
func (h *LedgerAlertHandler) Alerts() []LedgerAlert {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LedgerAlert, len(h.alerts))
	copy(out, h.alerts)
	return out
}

// ActivityLogHandler writes every domain event to the log
type ActivityLogHandler struct {
	logger *zap.Logger
}

// NewActivityLogHandler creates an ActivityLogHandler
func NewActivityLogHandler(logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{logger: logger}
}

// EventTypes is empty: the handler receives all events
func (h *ActivityLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event envelope
func (h *ActivityLogHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	)
	return nil
}

// RegisterHandlers subscribes the application's event handlers on bus.
// Alerts go through the idempotency store so a redelivered event alerts once.
func RegisterHandlers(bus shared.EventSubscriber, store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *LedgerAlertHandler {
	alerts := NewLedgerAlertHandler(logger, 0)
	bus.Subscribe(NewIdempotentHandler(alerts, store, cfg, logger))
	bus.Subscribe(NewActivityLogHandler(logger))
	return alerts
}
