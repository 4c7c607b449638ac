package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/money"
)

// Dish mirrors a row of the dishes table. DiscountedPrice is derived and is
// written only by the pricing engine.
type Dish struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	MenuID          uuid.UUID
	Name            string
	Price           money.Money
	DiscountedPrice *money.Money
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DishParams carries writable dish fields.
type DishParams struct {
	RestaurantID uuid.UUID
	MenuID       uuid.UUID
	Name         string
	Price        money.Money
}

const dishColumns = `id, restaurant_id, menu_id, name, price, discounted_price, created_at, updated_at`

func scanDish(row pgx.Row) (Dish, error) {
	var d Dish
	var id, restaurantID, menuID pgtype.UUID
	err := row.Scan(&id, &restaurantID, &menuID, &d.Name, &d.Price, &d.DiscountedPrice, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Dish{}, err
	}
	d.ID = fromPG(id)
	d.RestaurantID = fromPG(restaurantID)
	d.MenuID = fromPG(menuID)
	return d, nil
}

// CreateDish inserts a dish.
func (q *Queries) CreateDish(ctx context.Context, arg DishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO dishes (id, restaurant_id, menu_id, name, price)
VALUES (gen_random_uuid(), $1, $2, $3, $4)
RETURNING `+dishColumns,
		pgUUID(arg.RestaurantID), pgUUID(arg.MenuID), arg.Name, arg.Price)
	return scanDish(row)
}

// GetDish fetches one dish by id.
func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	row := q.db.QueryRow(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = $1`, pgUUID(id))
	d, err := scanDish(row)
	return d, notFound(err)
}

// ListDishes returns a page of dishes, optionally scoped to a menu.
func (q *Queries) ListDishes(ctx context.Context, menuID *uuid.UUID, limit, offset int32) ([]Dish, error) {
	var scope pgtype.UUID
	if menuID != nil {
		scope = pgUUID(*menuID)
	}
	rows, err := q.db.Query(ctx, `
SELECT `+dishColumns+` FROM dishes
WHERE ($1::uuid IS NULL OR menu_id = $1)
ORDER BY name LIMIT $2 OFFSET $3`, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDish replaces the writable fields of a dish. The derived discounted
// price is untouched here; callers recompute it through the pricing engine.
func (q *Queries) UpdateDish(ctx context.Context, id uuid.UUID, arg DishParams) (Dish, error) {
	row := q.db.QueryRow(ctx, `
UPDATE dishes
SET restaurant_id = $2, menu_id = $3, name = $4, price = $5, updated_at = now()
WHERE id = $1
RETURNING `+dishColumns,
		pgUUID(id), pgUUID(arg.RestaurantID), pgUUID(arg.MenuID), arg.Name, arg.Price)
	d, err := scanDish(row)
	return d, notFound(err)
}

// SetDishDiscountedPrice persists the derived effective-price override. A
// single UPDATE keeps the write atomic for concurrent readers.
func (q *Queries) SetDishDiscountedPrice(ctx context.Context, id uuid.UUID, price *money.Money) error {
	tag, err := q.db.Exec(ctx, `UPDATE dishes SET discounted_price = $2, updated_at = now() WHERE id = $1`, pgUUID(id), price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDish removes a dish.
func (q *Queries) DeleteDish(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM dishes WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DishParameter mirrors a row of the dish_parameters table.
type DishParameter struct {
	ID          uuid.UUID
	DishID      uuid.UUID
	ParameterID uuid.UUID
	Value       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func scanDishParameter(row pgx.Row) (DishParameter, error) {
	var p DishParameter
	var id, dishID, parameterID pgtype.UUID
	if err := row.Scan(&id, &dishID, &parameterID, &p.Value, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return DishParameter{}, err
	}
	p.ID = fromPG(id)
	p.DishID = fromPG(dishID)
	p.ParameterID = fromPG(parameterID)
	return p, nil
}

// CreateDishParameter attaches a parameter value to a dish.
func (q *Queries) CreateDishParameter(ctx context.Context, dishID, parameterID uuid.UUID, value string) (DishParameter, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO dish_parameters (id, dish_id, parameter_id, value)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, dish_id, parameter_id, value, created_at, updated_at`,
		pgUUID(dishID), pgUUID(parameterID), value)
	return scanDishParameter(row)
}

// ListDishParameters returns all parameter values for a dish.
func (q *Queries) ListDishParameters(ctx context.Context, dishID uuid.UUID) ([]DishParameter, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, dish_id, parameter_id, value, created_at, updated_at
FROM dish_parameters WHERE dish_id = $1 ORDER BY created_at`, pgUUID(dishID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DishParameter
	for rows.Next() {
		p, err := scanDishParameter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteDishParameter detaches a parameter value from a dish.
func (q *Queries) DeleteDishParameter(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM dish_parameters WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
