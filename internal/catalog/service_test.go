package catalog_test

import (
	"context"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

func init() {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
}

// fakeStore is an in-memory Querier covering the catalog surface.
type fakeStore struct {
	restaurants map[uuid.UUID]store.Restaurant
	menus       map[uuid.UUID]store.Menu
	parameters  map[uuid.UUID]store.Parameter
	dishes      map[uuid.UUID]store.Dish
	dishParams  map[uuid.UUID]store.DishParameter
	discounts   map[uuid.UUID]store.Discount
	cartsByDish map[uuid.UUID][]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		restaurants: map[uuid.UUID]store.Restaurant{},
		menus:       map[uuid.UUID]store.Menu{},
		parameters:  map[uuid.UUID]store.Parameter{},
		dishes:      map[uuid.UUID]store.Dish{},
		dishParams:  map[uuid.UUID]store.DishParameter{},
		discounts:   map[uuid.UUID]store.Discount{},
		cartsByDish: map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeStore) CreateRestaurant(_ context.Context, arg store.RestaurantParams) (store.Restaurant, error) {
	r := store.Restaurant{
		ID:          uuid.New(),
		Name:        arg.Name,
		Address:     arg.Address,
		Phone:       arg.Phone,
		Description: arg.Description,
		IsVerified:  arg.IsVerified,
		Latitude:    arg.Latitude,
		Longitude:   arg.Longitude,
		WorkingTime: arg.WorkingTime,
	}
	f.restaurants[r.ID] = r
	return r, nil
}

func (f *fakeStore) GetRestaurant(_ context.Context, id uuid.UUID) (store.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return store.Restaurant{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListRestaurants(context.Context, int32, int32) ([]store.Restaurant, error) {
	var out []store.Restaurant
	for _, r := range f.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) UpdateRestaurant(_ context.Context, id uuid.UUID, arg store.RestaurantParams) (store.Restaurant, error) {
	if _, ok := f.restaurants[id]; !ok {
		return store.Restaurant{}, store.ErrNotFound
	}
	r := store.Restaurant{
		ID:          id,
		Name:        arg.Name,
		Address:     arg.Address,
		Phone:       arg.Phone,
		Description: arg.Description,
		IsVerified:  arg.IsVerified,
		Latitude:    arg.Latitude,
		Longitude:   arg.Longitude,
		WorkingTime: arg.WorkingTime,
	}
	f.restaurants[id] = r
	return r, nil
}

func (f *fakeStore) DeleteRestaurant(_ context.Context, id uuid.UUID) error {
	if _, ok := f.restaurants[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.restaurants, id)
	return nil
}

func (f *fakeStore) CreateMenu(_ context.Context, restaurantID uuid.UUID, name string) (store.Menu, error) {
	m := store.Menu{ID: uuid.New(), RestaurantID: restaurantID, Name: name}
	f.menus[m.ID] = m
	return m, nil
}

func (f *fakeStore) GetMenu(_ context.Context, id uuid.UUID) (store.Menu, error) {
	m, ok := f.menus[id]
	if !ok {
		return store.Menu{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ListMenus(_ context.Context, restaurantID *uuid.UUID, _, _ int32) ([]store.Menu, error) {
	var out []store.Menu
	for _, m := range f.menus {
		if restaurantID == nil || m.RestaurantID == *restaurantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateMenu(_ context.Context, id uuid.UUID, name string) (store.Menu, error) {
	m, ok := f.menus[id]
	if !ok {
		return store.Menu{}, store.ErrNotFound
	}
	m.Name = name
	f.menus[id] = m
	return m, nil
}

func (f *fakeStore) DeleteMenu(_ context.Context, id uuid.UUID) error {
	if _, ok := f.menus[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.menus, id)
	return nil
}

func (f *fakeStore) CreateParameter(_ context.Context, name string) (store.Parameter, error) {
	p := store.Parameter{ID: uuid.New(), Name: name}
	f.parameters[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetParameter(_ context.Context, id uuid.UUID) (store.Parameter, error) {
	p, ok := f.parameters[id]
	if !ok {
		return store.Parameter{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListParameters(context.Context, int32, int32) ([]store.Parameter, error) {
	var out []store.Parameter
	for _, p := range f.parameters {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateParameter(_ context.Context, id uuid.UUID, name string) (store.Parameter, error) {
	p, ok := f.parameters[id]
	if !ok {
		return store.Parameter{}, store.ErrNotFound
	}
	p.Name = name
	f.parameters[id] = p
	return p, nil
}

func (f *fakeStore) DeleteParameter(_ context.Context, id uuid.UUID) error {
	if _, ok := f.parameters[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.parameters, id)
	return nil
}

func (f *fakeStore) CreateDish(_ context.Context, arg store.DishParams) (store.Dish, error) {
	d := store.Dish{ID: uuid.New(), RestaurantID: arg.RestaurantID, MenuID: arg.MenuID, Name: arg.Name, Price: arg.Price}
	f.dishes[d.ID] = d
	return d, nil
}

func (f *fakeStore) GetDish(_ context.Context, id uuid.UUID) (store.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return store.Dish{}, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) ListDishes(_ context.Context, menuID *uuid.UUID, _, _ int32) ([]store.Dish, error) {
	var out []store.Dish
	for _, d := range f.dishes {
		if menuID == nil || d.MenuID == *menuID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDish(_ context.Context, id uuid.UUID, arg store.DishParams) (store.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return store.Dish{}, store.ErrNotFound
	}
	d.RestaurantID = arg.RestaurantID
	d.MenuID = arg.MenuID
	d.Name = arg.Name
	d.Price = arg.Price
	f.dishes[id] = d
	return d, nil
}

func (f *fakeStore) SetDishDiscountedPrice(_ context.Context, id uuid.UUID, price *int64) error {
	d, ok := f.dishes[id]
	if !ok {
		return store.ErrNotFound
	}
	d.DiscountedPrice = price
	f.dishes[id] = d
	return nil
}

func (f *fakeStore) DeleteDish(_ context.Context, id uuid.UUID) error {
	if _, ok := f.dishes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.dishes, id)
	return nil
}

func (f *fakeStore) CreateDishParameter(_ context.Context, dishID, parameterID uuid.UUID, value string) (store.DishParameter, error) {
	p := store.DishParameter{ID: uuid.New(), DishID: dishID, ParameterID: parameterID, Value: value}
	f.dishParams[p.ID] = p
	return p, nil
}

func (f *fakeStore) ListDishParameters(_ context.Context, dishID uuid.UUID) ([]store.DishParameter, error) {
	var out []store.DishParameter
	for _, p := range f.dishParams {
		if p.DishID == dishID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteDishParameter(_ context.Context, id uuid.UUID) error {
	if _, ok := f.dishParams[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.dishParams, id)
	return nil
}

func (f *fakeStore) ListCartGUIDsByDish(_ context.Context, dishID uuid.UUID) ([]uuid.UUID, error) {
	return f.cartsByDish[dishID], nil
}

func (f *fakeStore) CreateDiscount(_ context.Context, arg store.DiscountParams) (store.Discount, error) {
	d := store.Discount{
		ID:       uuid.New(),
		DishID:   arg.DishID,
		StartsAt: arg.StartsAt,
		EndsAt:   arg.EndsAt,
		Price:    arg.Price,
		IsActive: arg.IsActive,
	}
	f.discounts[d.ID] = d
	return d, nil
}

func (f *fakeStore) GetDiscount(_ context.Context, id uuid.UUID) (store.Discount, error) {
	d, ok := f.discounts[id]
	if !ok {
		return store.Discount{}, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) GetDiscountByDish(_ context.Context, dishID uuid.UUID) (store.Discount, error) {
	for _, d := range f.discounts {
		if d.DishID == dishID {
			return d, nil
		}
	}
	return store.Discount{}, store.ErrNotFound
}

func (f *fakeStore) ListDiscounts(context.Context, int32, int32) ([]store.Discount, error) {
	var out []store.Discount
	for _, d := range f.discounts {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) UpdateDiscount(_ context.Context, id uuid.UUID, arg store.DiscountParams) (store.Discount, error) {
	d, ok := f.discounts[id]
	if !ok {
		return store.Discount{}, store.ErrNotFound
	}
	d.DishID = arg.DishID
	d.StartsAt = arg.StartsAt
	d.EndsAt = arg.EndsAt
	d.Price = arg.Price
	d.IsActive = arg.IsActive
	f.discounts[id] = d
	return d, nil
}

func (f *fakeStore) DeleteDiscount(_ context.Context, id uuid.UUID) error {
	if _, ok := f.discounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.discounts, id)
	return nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(f *fakeStore) *catalog.Service {
	return &catalog.Service{
		Q:        f,
		Validate: validator.New(),
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	}
}

func seedDish(t *testing.T, ctx context.Context, svc *catalog.Service, price string) catalog.DishDTO {
	t.Helper()
	r, err := svc.CreateRestaurant(ctx, catalog.RestaurantInput{
		Name: "Trattoria", Address: "Via Roma 1", Phone: "+390612345", Description: "Italian",
	})
	require.NoError(t, err)
	m, err := svc.CreateMenu(ctx, catalog.MenuInput{RestaurantID: r.ID, Name: "Lunch"})
	require.NoError(t, err)
	d, err := svc.CreateDish(ctx, catalog.DishInput{
		RestaurantID: r.ID, MenuID: m.ID, Name: "Carbonara", Price: price,
	})
	require.NoError(t, err)
	return d
}

func TestCreateDiscountRecomputesDishPrice(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	dish := seedDish(t, ctx, svc, "10.00")

	_, err := svc.CreateDiscount(ctx, catalog.DiscountInput{
		DishID:   dish.ID,
		StartsAt: testNow.Add(-time.Hour),
		EndsAt:   testNow.Add(time.Hour),
		Price:    "7.00",
		IsActive: true,
	})
	require.NoError(t, err)

	got, err := svc.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DiscountedPrice)
	require.Equal(t, "7.00", *got.DiscountedPrice)
}

func TestCreateDiscountValidation(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	dish := seedDish(t, ctx, svc, "10.00")

	cases := []struct {
		name string
		in   catalog.DiscountInput
	}{
		{"price at base", catalog.DiscountInput{
			DishID: dish.ID, StartsAt: testNow, EndsAt: testNow.Add(time.Hour), Price: "10.00", IsActive: true,
		}},
		{"price above base", catalog.DiscountInput{
			DishID: dish.ID, StartsAt: testNow, EndsAt: testNow.Add(time.Hour), Price: "12.00", IsActive: true,
		}},
		{"zero price", catalog.DiscountInput{
			DishID: dish.ID, StartsAt: testNow, EndsAt: testNow.Add(time.Hour), Price: "0.00", IsActive: true,
		}},
		{"inverted window", catalog.DiscountInput{
			DishID: dish.ID, StartsAt: testNow.Add(time.Hour), EndsAt: testNow, Price: "7.00", IsActive: true,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDiscount(ctx, tc.in)
			require.Error(t, err)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, "VALIDATION", appErr.Code)
		})
	}
}

func TestInactiveOrFutureDiscountLeavesBasePrice(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	dish := seedDish(t, ctx, svc, "10.00")

	_, err := svc.CreateDiscount(ctx, catalog.DiscountInput{
		DishID:   dish.ID,
		StartsAt: testNow.Add(24 * time.Hour),
		EndsAt:   testNow.Add(48 * time.Hour),
		Price:    "7.00",
		IsActive: true,
	})
	require.NoError(t, err)

	got, err := svc.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	require.Nil(t, got.DiscountedPrice)
}

func TestDeleteDiscountRestoresBasePrice(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	dish := seedDish(t, ctx, svc, "10.00")

	d, err := svc.CreateDiscount(ctx, catalog.DiscountInput{
		DishID:   dish.ID,
		StartsAt: testNow.Add(-time.Hour),
		EndsAt:   testNow.Add(time.Hour),
		Price:    "7.00",
		IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDiscount(ctx, d.ID))

	got, err := svc.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	require.Nil(t, got.DiscountedPrice)
}

func TestUpdateDishPriceRecomputesDiscountedPrice(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	dish := seedDish(t, ctx, svc, "10.00")

	_, err := svc.CreateDiscount(ctx, catalog.DiscountInput{
		DishID:   dish.ID,
		StartsAt: testNow.Add(-time.Hour),
		EndsAt:   testNow.Add(time.Hour),
		Price:    "7.00",
		IsActive: true,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateDish(ctx, dish.ID, catalog.DishInput{
		RestaurantID: dish.RestaurantID,
		MenuID:       dish.MenuID,
		Name:         "Carbonara",
		Price:        "12.00",
	})
	require.NoError(t, err)
	require.Equal(t, "12.00", updated.Price)
	require.NotNil(t, updated.DiscountedPrice)
	require.Equal(t, "7.00", *updated.DiscountedPrice)
}

type fakeCartIndex struct {
	stale []uuid.UUID
}

func (f *fakeCartIndex) ListCartGUIDsByDish(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeCartIndex) MarkCartStale(_ context.Context, guid uuid.UUID) error {
	f.stale = append(f.stale, guid)
	return nil
}

type fakeRepriceQueue struct {
	enqueued []uuid.UUID
}

func (f *fakeRepriceQueue) EnqueueCartReprice(_ context.Context, guid uuid.UUID) error {
	f.enqueued = append(f.enqueued, guid)
	return nil
}

func TestDeleteDishRecomputesAffectedCarts(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	q := &fakeRepriceQueue{}
	// Reprice disabled on purpose: membership loss must fan out regardless.
	svc.Cascade = &pricing.Cascade{Carts: &fakeCartIndex{}, Queue: q, Log: zerolog.Nop(), Reprice: false}

	dish := seedDish(t, ctx, svc, "10.00")
	dishID, err := uuid.Parse(dish.ID)
	require.NoError(t, err)
	g1, g2 := uuid.New(), uuid.New()
	f.cartsByDish[dishID] = []uuid.UUID{g1, g2}

	require.NoError(t, svc.DeleteDish(ctx, dish.ID))
	require.Equal(t, []uuid.UUID{g1, g2}, q.enqueued)

	_, err = svc.GetDish(ctx, dish.ID)
	require.Error(t, err)
}

func TestDishPriceParsing(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)

	r, err := svc.CreateRestaurant(ctx, catalog.RestaurantInput{
		Name: "Trattoria", Address: "Via Roma 1", Phone: "+390612345", Description: "Italian",
	})
	require.NoError(t, err)
	m, err := svc.CreateMenu(ctx, catalog.MenuInput{RestaurantID: r.ID, Name: "Lunch"})
	require.NoError(t, err)

	_, err = svc.CreateDish(ctx, catalog.DishInput{
		RestaurantID: r.ID, MenuID: m.ID, Name: "Carbonara", Price: "not-a-number",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = svc.CreateDish(ctx, catalog.DishInput{
		RestaurantID: r.ID, MenuID: m.ID, Name: "Carbonara", Price: "-1.00",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, pricing.ErrInvalidBasePrice)
}
