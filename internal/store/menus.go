package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Menu mirrors a row of the menus table.
type Menu struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func scanMenu(row pgx.Row) (Menu, error) {
	var m Menu
	var id, restaurantID pgtype.UUID
	if err := row.Scan(&id, &restaurantID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Menu{}, err
	}
	m.ID = fromPG(id)
	m.RestaurantID = fromPG(restaurantID)
	return m, nil
}

// CreateMenu inserts a menu for a restaurant.
func (q *Queries) CreateMenu(ctx context.Context, restaurantID uuid.UUID, name string) (Menu, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO menus (id, restaurant_id, name)
VALUES (gen_random_uuid(), $1, $2)
RETURNING id, restaurant_id, name, created_at, updated_at`, pgUUID(restaurantID), name)
	return scanMenu(row)
}

// GetMenu fetches one menu by id.
func (q *Queries) GetMenu(ctx context.Context, id uuid.UUID) (Menu, error) {
	row := q.db.QueryRow(ctx, `SELECT id, restaurant_id, name, created_at, updated_at FROM menus WHERE id = $1`, pgUUID(id))
	m, err := scanMenu(row)
	return m, notFound(err)
}

// ListMenus returns a page of menus, optionally scoped to a restaurant.
func (q *Queries) ListMenus(ctx context.Context, restaurantID *uuid.UUID, limit, offset int32) ([]Menu, error) {
	var scope pgtype.UUID
	if restaurantID != nil {
		scope = pgUUID(*restaurantID)
	}
	rows, err := q.db.Query(ctx, `
SELECT id, restaurant_id, name, created_at, updated_at FROM menus
WHERE ($1::uuid IS NULL OR restaurant_id = $1)
ORDER BY name LIMIT $2 OFFSET $3`, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMenu renames a menu.
func (q *Queries) UpdateMenu(ctx context.Context, id uuid.UUID, name string) (Menu, error) {
	row := q.db.QueryRow(ctx, `
UPDATE menus SET name = $2, updated_at = now() WHERE id = $1
RETURNING id, restaurant_id, name, created_at, updated_at`, pgUUID(id), name)
	m, err := scanMenu(row)
	return m, notFound(err)
}

// DeleteMenu removes a menu.
func (q *Queries) DeleteMenu(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM menus WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Parameter mirrors a row of the global parameters table.
type Parameter struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func scanParameter(row pgx.Row) (Parameter, error) {
	var p Parameter
	var id pgtype.UUID
	if err := row.Scan(&id, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Parameter{}, err
	}
	p.ID = fromPG(id)
	return p, nil
}

// CreateParameter inserts a named parameter key.
func (q *Queries) CreateParameter(ctx context.Context, name string) (Parameter, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO parameters (id, name) VALUES (gen_random_uuid(), $1)
RETURNING id, name, created_at, updated_at`, name)
	return scanParameter(row)
}

// GetParameter fetches one parameter by id.
func (q *Queries) GetParameter(ctx context.Context, id uuid.UUID) (Parameter, error) {
	row := q.db.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM parameters WHERE id = $1`, pgUUID(id))
	p, err := scanParameter(row)
	return p, notFound(err)
}

// ListParameters returns a page of parameters ordered by name.
func (q *Queries) ListParameters(ctx context.Context, limit, offset int32) ([]Parameter, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM parameters ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Parameter
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateParameter renames a parameter.
func (q *Queries) UpdateParameter(ctx context.Context, id uuid.UUID, name string) (Parameter, error) {
	row := q.db.QueryRow(ctx, `
UPDATE parameters SET name = $2, updated_at = now() WHERE id = $1
RETURNING id, name, created_at, updated_at`, pgUUID(id), name)
	p, err := scanParameter(row)
	return p, notFound(err)
}

// DeleteParameter removes a parameter.
func (q *Queries) DeleteParameter(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM parameters WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
