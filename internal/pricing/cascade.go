package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/store"
)

// CartIndex locates carts affected by a dish price change and lets the
// cascade flag them for lazy recomputation.
type CartIndex interface {
	ListCartGUIDsByDish(ctx context.Context, dishID uuid.UUID) ([]uuid.UUID, error)
	MarkCartStale(ctx context.Context, guid uuid.UUID) error
}

// Enqueuer schedules background repricing of a cart.
type Enqueuer interface {
	EnqueueCartReprice(ctx context.Context, guid uuid.UUID) error
}

// Recorder journals cascade outcomes to the domain event log.
type Recorder interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (store.DomainEvent, error)
}

// Cascade fans a dish effective-price change out to the carts that hold the
// dish. Cart items are price-locked at add time, so the fanout never rewrites
// them synchronously: with Reprice enabled each affected cart gets a
// background reprice task, otherwise carts change only on explicit refresh.
// Fanout failures are reported but never fail the triggering write.
type Cascade struct {
	Carts   CartIndex
	Queue   Enqueuer
	Events  Recorder
	Log     zerolog.Logger
	Reprice bool
}

// DishRepriced propagates a change of the dish's effective price. The
// returned error aggregates fanout failures for the caller to report; by the
// time it is non-nil every affected cart has been marked stale.
func (c *Cascade) DishRepriced(ctx context.Context, dishID uuid.UUID) error {
	if c == nil || c.Carts == nil {
		return errors.New("pricing: cascade not configured")
	}
	if !c.Reprice {
		return nil
	}
	guids, err := c.Carts.ListCartGUIDsByDish(ctx, dishID)
	if err != nil {
		obs.CascadeFanoutTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("pricing: list carts for dish: %w", err)
	}
	return c.fanout(ctx, guids)
}

// CartsChanged reprices carts whose membership changed, for example when a
// dish deletion cascades member items away. Unlike DishRepriced it ignores
// the Reprice toggle: a membership change always leaves the stored total
// wrong, so the carts must be recomputed or flagged regardless of policy.
func (c *Cascade) CartsChanged(ctx context.Context, guids []uuid.UUID) error {
	if c == nil || c.Carts == nil {
		return errors.New("pricing: cascade not configured")
	}
	return c.fanout(ctx, guids)
}

func (c *Cascade) fanout(ctx context.Context, guids []uuid.UUID) error {
	var joined error
	for _, guid := range guids {
		if c.Queue != nil {
			if err := c.Queue.EnqueueCartReprice(ctx, guid); err == nil {
				obs.CascadeFanoutTotal.WithLabelValues("enqueued").Inc()
				continue
			} else {
				c.Log.Error().Err(err).
					Str("cart_guid", guid.String()).
					Msg("enqueue cart reprice")
				joined = errors.Join(joined, err)
			}
		}
		if err := c.Carts.MarkCartStale(ctx, guid); err != nil {
			c.Log.Error().Err(err).
				Str("cart_guid", guid.String()).
				Msg("mark cart stale")
			joined = errors.Join(joined, err)
			obs.CascadeFanoutTotal.WithLabelValues("lost").Inc()
			continue
		}
		obs.StaleCartsTotal.Inc()
		obs.CascadeFanoutTotal.WithLabelValues("stale").Inc()
		if c.Events != nil {
			if _, err := c.Events.Emit(ctx, events.TopicCartStale, guid, map[string]string{"cartGuid": guid.String()}); err != nil {
				c.Log.Warn().Err(err).
					Str("cart_guid", guid.String()).
					Msg("emit cart stale event")
			}
		}
	}
	return joined
}
