package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// DomainEvent mirrors a row of the domain_events journal.
type DomainEvent struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}

// InsertDomainEvent appends an event to the journal.
func (q *Queries) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO domain_events (id, topic, aggregate_id, payload)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, pgUUID(aggregateID), payload)
	var ev DomainEvent
	var id, aggID pgtype.UUID
	if err := row.Scan(&id, &ev.Topic, &aggID, &ev.Payload, &ev.OccurredAt); err != nil {
		return DomainEvent{}, err
	}
	ev.ID = fromPG(id)
	ev.AggregateID = fromPG(aggID)
	return ev, nil
}
