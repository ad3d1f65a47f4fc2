package event

import (
	"context"
	"sync/atomic"

	"github.com/mlmshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// eventKeyPrefix namespaces event ids in the idempotency store
const eventKeyPrefix = "event:"

// DeliveryStats counts what an IdempotentHandler did
type DeliveryStats struct {
	Handled    int64 `json:"handled"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler delivers each event id to the wrapped handler once
type IdempotentHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	cfg    shared.IdempotencyConfig
	logger *zap.Logger

	handled    atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewIdempotentHandler wraps next. A zero cfg uses DefaultIdempotencyConfig.
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	if cfg == (shared.IdempotencyConfig{}) {
		cfg = shared.DefaultIdempotencyConfig()
	}
	return &IdempotentHandler{
		next:   next,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle skips events already marked in the store. A store failure is
// logged and the event is delivered anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if h.cfg.Enabled && h.store != nil {
		key := eventKeyPrefix + ev.EventID().String()
		fresh, err := h.store.MarkProcessed(ctx, key, h.cfg.TTL)
		switch {
		case err != nil:
			h.logger.Warn("idempotency check failed, delivering event",
				zap.String("event_id", ev.EventID().String()),
				zap.String("event_type", ev.EventType()),
				zap.Error(err),
			)
		case !fresh:
			h.duplicates.Add(1)
			h.logger.Debug("duplicate event skipped",
				zap.String("event_id", ev.EventID().String()),
				zap.String("event_type", ev.EventType()),
			)
			return nil
		}
	}

	// the key stays marked on failure and expires with the TTL
	if err := h.next.Handle(ctx, ev); err != nil {
		h.failed.Add(1)
		return err
	}
	h.handled.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Handled:    h.handled.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
