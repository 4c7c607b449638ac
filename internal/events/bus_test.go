package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/store"
)

type stubStore struct {
	inserted []store.DomainEvent
	err      error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (store.DomainEvent, error) {
	if s.err != nil {
		return store.DomainEvent{}, s.err
	}
	ev := store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	s.inserted = append(s.inserted, ev)
	return ev, nil
}

type stubNotifier struct {
	seen []store.DomainEvent
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, ev store.DomainEvent) error {
	if n.err != nil {
		return n.err
	}
	n.seen = append(n.seen, ev)
	return nil
}

func TestBusEmit(t *testing.T) {
	ctx := context.Background()
	agg := uuid.New()

	t.Run("persists and notifies", func(t *testing.T) {
		st := &stubStore{}
		n := &stubNotifier{}
		bus := &events.Bus{Store: st, Notifiers: []events.Notifier{n}}

		ev, err := bus.Emit(ctx, events.TopicDishRepriced, agg, map[string]string{"dishId": agg.String()})
		require.NoError(t, err)
		require.Equal(t, events.TopicDishRepriced, ev.Topic)
		require.Len(t, st.inserted, 1)
		require.Len(t, n.seen, 1)
	})

	t.Run("rejects blank topic", func(t *testing.T) {
		bus := &events.Bus{Store: &stubStore{}}
		_, err := bus.Emit(ctx, "  ", agg, nil)
		require.Error(t, err)
	})

	t.Run("rejects nil aggregate", func(t *testing.T) {
		bus := &events.Bus{Store: &stubStore{}}
		_, err := bus.Emit(ctx, events.TopicCartRepriced, uuid.Nil, nil)
		require.Error(t, err)
	})

	t.Run("nil payload stores empty object", func(t *testing.T) {
		st := &stubStore{}
		bus := &events.Bus{Store: st}
		ev, err := bus.Emit(ctx, events.TopicCartStale, agg, nil)
		require.NoError(t, err)
		require.JSONEq(t, `{}`, string(ev.Payload))
	})

	t.Run("invalid raw payload is rejected", func(t *testing.T) {
		bus := &events.Bus{Store: &stubStore{}}
		_, err := bus.Emit(ctx, events.TopicCartStale, agg, []byte("{not json"))
		require.Error(t, err)
	})

	t.Run("store failure aborts emit", func(t *testing.T) {
		bus := &events.Bus{Store: &stubStore{err: errors.New("db down")}}
		_, err := bus.Emit(ctx, events.TopicCartStale, agg, nil)
		require.Error(t, err)
	})

	t.Run("notifier failure is reported after persistence", func(t *testing.T) {
		st := &stubStore{}
		bus := &events.Bus{Store: st, Notifiers: []events.Notifier{&stubNotifier{err: errors.New("boom")}}}
		ev, err := bus.Emit(ctx, events.TopicCartStale, agg, nil)
		require.Error(t, err)
		require.Equal(t, events.TopicCartStale, ev.Topic)
		require.Len(t, st.inserted, 1)
	})
}
