package queue

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// KindCartReprice is the task kind for background cart repricing.
const KindCartReprice = "cart:reprice"

// CartRepricePayload is the body of a cart reprice task.
type CartRepricePayload struct {
	CartGUID uuid.UUID `json:"cartGuid"`
}

// CartRepriceEnqueuer schedules cart reprice tasks, deduplicated per cart so
// a burst of dish changes yields a single reprice.
type CartRepriceEnqueuer struct {
	E           Enqueuer
	MaxAttempts int
}

// EnqueueCartReprice queues a reprice task for the cart.
func (c CartRepriceEnqueuer) EnqueueCartReprice(ctx context.Context, guid uuid.UUID) error {
	payload, err := json.Marshal(CartRepricePayload{CartGUID: guid})
	if err != nil {
		return err
	}
	return c.E.Enqueue(ctx, Task{
		Kind:           KindCartReprice,
		Payload:        payload,
		IdempotencyKey: guid.String(),
		MaxAttempts:    c.MaxAttempts,
	})
}
