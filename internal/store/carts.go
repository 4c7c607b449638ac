package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/money"
)

// Cart mirrors a row of the carts table, keyed by GUID.
type Cart struct {
	GUID      uuid.UUID
	TotalCost money.Money
	Stale     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem mirrors a row of the cart_items table. UnitPrice captures the
// effective price at the time the item was priced; TotalCost is derived.
type CartItem struct {
	ID        uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice money.Money
	TotalCost *money.Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

const cartItemColumns = `id, dish_id, quantity, unit_price, total_cost, created_at, updated_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	var guid pgtype.UUID
	if err := row.Scan(&guid, &c.TotalCost, &c.Stale, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Cart{}, err
	}
	c.GUID = fromPG(guid)
	return c, nil
}

func scanCartItem(row pgx.Row) (CartItem, error) {
	var it CartItem
	var id, dishID pgtype.UUID
	err := row.Scan(&id, &dishID, &it.Quantity, &it.UnitPrice, &it.TotalCost, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return CartItem{}, err
	}
	it.ID = fromPG(id)
	it.DishID = fromPG(dishID)
	return it, nil
}

// CreateCart inserts an empty cart with a generated GUID.
func (q *Queries) CreateCart(ctx context.Context) (Cart, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO carts (guid) VALUES (gen_random_uuid())
RETURNING guid, total_cost, stale, created_at, updated_at`)
	return scanCart(row)
}

// GetCart fetches one cart by GUID.
func (q *Queries) GetCart(ctx context.Context, guid uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT guid, total_cost, stale, created_at, updated_at FROM carts WHERE guid = $1`, pgUUID(guid))
	c, err := scanCart(row)
	return c, notFound(err)
}

// ListCarts returns a page of carts ordered by creation time.
func (q *Queries) ListCarts(ctx context.Context, limit, offset int32) ([]Cart, error) {
	rows, err := q.db.Query(ctx, `SELECT guid, total_cost, stale, created_at, updated_at FROM carts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetCartTotal persists the derived cart total and clears the stale flag.
func (q *Queries) SetCartTotal(ctx context.Context, guid uuid.UUID, total money.Money) error {
	tag, err := q.db.Exec(ctx, `UPDATE carts SET total_cost = $2, stale = false, updated_at = now() WHERE guid = $1`, pgUUID(guid), total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCartStale flags a cart for lazy recomputation.
func (q *Queries) MarkCartStale(ctx context.Context, guid uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE carts SET stale = true, updated_at = now() WHERE guid = $1`, pgUUID(guid))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCart removes a cart and its membership rows.
func (q *Queries) DeleteCart(ctx context.Context, guid uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM carts WHERE guid = $1`, pgUUID(guid))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCartItem inserts a cart item with its captured pricing.
func (q *Queries) CreateCartItem(ctx context.Context, dishID uuid.UUID, quantity int32, unitPrice, totalCost money.Money) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO cart_items (id, dish_id, quantity, unit_price, total_cost)
VALUES (gen_random_uuid(), $1, $2, $3, $4)
RETURNING `+cartItemColumns,
		pgUUID(dishID), quantity, unitPrice, totalCost)
	return scanCartItem(row)
}

// GetCartItem fetches one cart item by id.
func (q *Queries) GetCartItem(ctx context.Context, id uuid.UUID) (CartItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, pgUUID(id))
	it, err := scanCartItem(row)
	return it, notFound(err)
}

// ListCartItems returns a page of cart items.
func (q *Queries) ListCartItems(ctx context.Context, limit, offset int32) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+cartItemColumns+` FROM cart_items ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCartItems(rows)
}

// UpdateCartItem replaces the quantity and pricing capture of an item.
func (q *Queries) UpdateCartItem(ctx context.Context, id uuid.UUID, dishID uuid.UUID, quantity int32, unitPrice, totalCost money.Money) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
UPDATE cart_items
SET dish_id = $2, quantity = $3, unit_price = $4, total_cost = $5, updated_at = now()
WHERE id = $1
RETURNING `+cartItemColumns,
		pgUUID(id), pgUUID(dishID), quantity, unitPrice, totalCost)
	it, err := scanCartItem(row)
	return it, notFound(err)
}

// DeleteCartItem removes a cart item and its membership rows.
func (q *Queries) DeleteCartItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCartMember links an item into a cart. Duplicate links are ignored.
func (q *Queries) AddCartMember(ctx context.Context, cartGUID, itemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
INSERT INTO cart_members (cart_guid, item_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, pgUUID(cartGUID), pgUUID(itemID))
	return err
}

// RemoveCartMember unlinks an item from a cart.
func (q *Queries) RemoveCartMember(ctx context.Context, cartGUID, itemID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_members WHERE cart_guid = $1 AND item_id = $2`, pgUUID(cartGUID), pgUUID(itemID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCartMemberItems returns the items belonging to a cart.
func (q *Queries) ListCartMemberItems(ctx context.Context, cartGUID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, `
SELECT i.id, i.dish_id, i.quantity, i.unit_price, i.total_cost, i.created_at, i.updated_at
FROM cart_items i
JOIN cart_members m ON m.item_id = i.id
WHERE m.cart_guid = $1
ORDER BY i.created_at`, pgUUID(cartGUID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCartItems(rows)
}

// ListCartGUIDsByItem returns carts containing the given item.
func (q *Queries) ListCartGUIDsByItem(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `SELECT cart_guid FROM cart_members WHERE item_id = $1`, pgUUID(itemID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGUIDs(rows)
}

// ListCartGUIDsByDish returns carts holding any item that references the dish.
func (q *Queries) ListCartGUIDsByDish(ctx context.Context, dishID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
SELECT DISTINCT m.cart_guid
FROM cart_members m
JOIN cart_items i ON i.id = m.item_id
WHERE i.dish_id = $1`, pgUUID(dishID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGUIDs(rows)
}

func collectCartItems(rows pgx.Rows) ([]CartItem, error) {
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func collectGUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, fromPG(id))
	}
	return out, rows.Err()
}
