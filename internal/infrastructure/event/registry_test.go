package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed handlers come before wildcard handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		wildcard := newRecordingHandler()
		typed := newRecordingHandler()
		r.Register(wildcard)
		r.Register(typed, "OrderPaid", "OrderRefunded")

		hs := r.Handlers("OrderPaid")
		if assert.Len(t, hs, 2) {
			assert.Same(t, typed, hs[0])
			assert.Same(t, wildcard, hs[1])
		}
		assert.Len(t, r.Handlers("MemberPlaced"), 1)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("unregister removes every registration", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		other := newRecordingHandler()
		r.Register(h, "OrderPaid", "OrderRefunded")
		r.Register(h)
		r.Register(other, "OrderPaid")

		r.Unregister(h)

		assert.Len(t, r.Handlers("OrderRefunded"), 0)
		hs := r.Handlers("OrderPaid")
		if assert.Len(t, hs, 1) {
			assert.Same(t, other, hs[0])
		}
		assert.Equal(t, 1, r.Len())
	})
}
