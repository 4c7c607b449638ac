package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Restaurant mirrors a row of the restaurants table.
type Restaurant struct {
	ID          uuid.UUID
	Name        string
	Address     string
	Phone       string
	Description string
	IsVerified  bool
	Latitude    float64
	Longitude   float64
	WorkingTime *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RestaurantParams carries writable restaurant fields.
type RestaurantParams struct {
	Name        string
	Address     string
	Phone       string
	Description string
	IsVerified  bool
	Latitude    float64
	Longitude   float64
	WorkingTime *string
}

const restaurantColumns = `id, name, address, phone, description, is_verified, latitude, longitude, working_time, created_at, updated_at`

func scanRestaurant(row pgx.Row) (Restaurant, error) {
	var r Restaurant
	var id pgtype.UUID
	err := row.Scan(&id, &r.Name, &r.Address, &r.Phone, &r.Description, &r.IsVerified,
		&r.Latitude, &r.Longitude, &r.WorkingTime, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Restaurant{}, err
	}
	r.ID = fromPG(id)
	return r, nil
}

// CreateRestaurant inserts a restaurant and returns the stored row.
func (q *Queries) CreateRestaurant(ctx context.Context, arg RestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO restaurants (id, name, address, phone, description, is_verified, latitude, longitude, working_time)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+restaurantColumns,
		arg.Name, arg.Address, arg.Phone, arg.Description, arg.IsVerified,
		arg.Latitude, arg.Longitude, arg.WorkingTime)
	return scanRestaurant(row)
}

// GetRestaurant fetches one restaurant by id.
func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, pgUUID(id))
	r, err := scanRestaurant(row)
	return r, notFound(err)
}

// ListRestaurants returns a page of restaurants ordered by name.
func (q *Queries) ListRestaurants(ctx context.Context, limit, offset int32) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRestaurant replaces the writable fields of a restaurant.
func (q *Queries) UpdateRestaurant(ctx context.Context, id uuid.UUID, arg RestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
UPDATE restaurants
SET name = $2, address = $3, phone = $4, description = $5, is_verified = $6,
    latitude = $7, longitude = $8, working_time = $9, updated_at = now()
WHERE id = $1
RETURNING `+restaurantColumns,
		pgUUID(id), arg.Name, arg.Address, arg.Phone, arg.Description, arg.IsVerified,
		arg.Latitude, arg.Longitude, arg.WorkingTime)
	r, err := scanRestaurant(row)
	return r, notFound(err)
}

// DeleteRestaurant removes a restaurant. It reports ErrNotFound for unknown ids.
func (q *Queries) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
