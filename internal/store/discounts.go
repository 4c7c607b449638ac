package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/money"
)

// Discount mirrors a row of the discounts table. A dish carries at most one
// discount (unique dish_id). Price is the absolute discounted price.
type Discount struct {
	ID        uuid.UUID
	DishID    uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Price     money.Money
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiscountParams carries writable discount fields.
type DiscountParams struct {
	DishID   uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
	Price    money.Money
	IsActive bool
}

const discountColumns = `id, dish_id, starts_at, ends_at, price, is_active, created_at, updated_at`

func scanDiscount(row pgx.Row) (Discount, error) {
	var d Discount
	var id, dishID pgtype.UUID
	err := row.Scan(&id, &dishID, &d.StartsAt, &d.EndsAt, &d.Price, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Discount{}, err
	}
	d.ID = fromPG(id)
	d.DishID = fromPG(dishID)
	return d, nil
}

// CreateDiscount inserts a discount for a dish.
func (q *Queries) CreateDiscount(ctx context.Context, arg DiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO discounts (id, dish_id, starts_at, ends_at, price, is_active)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
RETURNING `+discountColumns,
		pgUUID(arg.DishID), arg.StartsAt, arg.EndsAt, arg.Price, arg.IsActive)
	return scanDiscount(row)
}

// GetDiscount fetches one discount by id.
func (q *Queries) GetDiscount(ctx context.Context, id uuid.UUID) (Discount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, pgUUID(id))
	d, err := scanDiscount(row)
	return d, notFound(err)
}

// GetDiscountByDish fetches the zero-or-one discount attached to a dish.
func (q *Queries) GetDiscountByDish(ctx context.Context, dishID uuid.UUID) (Discount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE dish_id = $1`, pgUUID(dishID))
	d, err := scanDiscount(row)
	return d, notFound(err)
}

// ListDiscounts returns a page of discounts ordered by start date.
func (q *Queries) ListDiscounts(ctx context.Context, limit, offset int32) ([]Discount, error) {
	rows, err := q.db.Query(ctx, `SELECT `+discountColumns+` FROM discounts ORDER BY starts_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDiscount replaces the writable fields of a discount.
func (q *Queries) UpdateDiscount(ctx context.Context, id uuid.UUID, arg DiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, `
UPDATE discounts
SET dish_id = $2, starts_at = $3, ends_at = $4, price = $5, is_active = $6, updated_at = now()
WHERE id = $1
RETURNING `+discountColumns,
		pgUUID(id), pgUUID(arg.DishID), arg.StartsAt, arg.EndsAt, arg.Price, arg.IsActive)
	d, err := scanDiscount(row)
	return d, notFound(err)
}

// DeleteDiscount removes a discount.
func (q *Queries) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM discounts WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
