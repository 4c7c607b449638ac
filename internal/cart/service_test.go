package cart_test

import (
	"context"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/store"
)

func init() {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
}

// fakeStore is an in-memory Querier backed by maps.
type fakeStore struct {
	dishes    map[uuid.UUID]store.Dish
	discounts map[uuid.UUID]store.Discount
	carts     map[uuid.UUID]store.Cart
	items     map[uuid.UUID]store.CartItem
	members   map[uuid.UUID][]uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		dishes:    map[uuid.UUID]store.Dish{},
		discounts: map[uuid.UUID]store.Discount{},
		carts:     map[uuid.UUID]store.Cart{},
		items:     map[uuid.UUID]store.CartItem{},
		members:   map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeStore) GetDish(_ context.Context, id uuid.UUID) (store.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return store.Dish{}, store.ErrNotFound
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

func (f *fakeStore) CreateCart(context.Context) (store.Cart, error) {
	c := store.Cart{GUID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.carts[c.GUID] = c
	return c, nil
}

func (f *fakeStore) GetCart(_ context.Context, guid uuid.UUID) (store.Cart, error) {
	c, ok := f.carts[guid]
	if !ok {
		return store.Cart{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCarts(context.Context, int32, int32) ([]store.Cart, error) {
	var out []store.Cart
	for _, c := range f.carts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) SetCartTotal(_ context.Context, guid uuid.UUID, total int64) error {
	c, ok := f.carts[guid]
	if !ok {
		return store.ErrNotFound
	}
	c.TotalCost = total
	c.Stale = false
	f.carts[guid] = c
	return nil
}

func (f *fakeStore) DeleteCart(_ context.Context, guid uuid.UUID) error {
	if _, ok := f.carts[guid]; !ok {
		return store.ErrNotFound
	}
	delete(f.carts, guid)
	delete(f.members, guid)
	return nil
}

func (f *fakeStore) CreateCartItem(_ context.Context, dishID uuid.UUID, quantity int32, unitPrice, totalCost int64) (store.CartItem, error) {
	it := store.CartItem{ID: uuid.New(), DishID: dishID, Quantity: quantity, UnitPrice: unitPrice, TotalCost: &totalCost}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeStore) GetCartItem(_ context.Context, id uuid.UUID) (store.CartItem, error) {
	it, ok := f.items[id]
	if !ok {
		return store.CartItem{}, store.ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) ListCartItems(context.Context, int32, int32) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) UpdateCartItem(_ context.Context, id uuid.UUID, dishID uuid.UUID, quantity int32, unitPrice, totalCost int64) (store.CartItem, error) {
	if _, ok := f.items[id]; !ok {
		return store.CartItem{}, store.ErrNotFound
	}
	it := store.CartItem{ID: id, DishID: dishID, Quantity: quantity, UnitPrice: unitPrice, TotalCost: &totalCost}
	f.items[id] = it
	return it, nil
}

func (f *fakeStore) DeleteCartItem(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	for guid, ids := range f.members {
		var kept []uuid.UUID
		for _, i := range ids {
			if i != id {
				kept = append(kept, i)
			}
		}
		f.members[guid] = kept
	}
	return nil
}

func (f *fakeStore) AddCartMember(_ context.Context, cartGUID, itemID uuid.UUID) error {
	for _, id := range f.members[cartGUID] {
		if id == itemID {
			return nil
		}
	}
	f.members[cartGUID] = append(f.members[cartGUID], itemID)
	return nil
}

func (f *fakeStore) RemoveCartMember(_ context.Context, cartGUID, itemID uuid.UUID) error {
	ids := f.members[cartGUID]
	for i, id := range ids {
		if id == itemID {
			f.members[cartGUID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListCartMemberItems(_ context.Context, cartGUID uuid.UUID) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, id := range f.members[cartGUID] {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCartGUIDsByItem(_ context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for guid, ids := range f.members {
		for _, id := range ids {
			if id == itemID {
				out = append(out, guid)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) addDish(price money.Money) store.Dish {
	d := store.Dish{ID: uuid.New(), Name: "dish", Price: price}
	f.dishes[d.ID] = d
	return d
}

func (f *fakeStore) addDiscount(dishID uuid.UUID, price money.Money, starts, ends time.Time) store.Discount {
	disc := store.Discount{ID: uuid.New(), DishID: dishID, Price: price, StartsAt: starts, EndsAt: ends, IsActive: true}
	f.discounts[disc.ID] = disc
	d := f.dishes[dishID]
	if !cartTestNow.Before(starts) && !cartTestNow.After(ends) {
		p := price
		d.DiscountedPrice = &p
	}
	f.dishes[dishID] = d
	return disc
}

var cartTestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(f *fakeStore) *cart.Service {
	return &cart.Service{
		Q:        f,
		Validate: validator.New(),
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return cartTestNow },
	}
}

func TestCreateCartItemPricing(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)

	t.Run("discounted dish is charged at the discounted price", func(t *testing.T) {
		dish := f.addDish(1000)
		f.addDiscount(dish.ID, 700, cartTestNow.Add(-time.Hour), cartTestNow.Add(time.Hour))

		it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 3})
		require.NoError(t, err)
		require.Equal(t, "7.00", it.UnitPrice)
		require.NotNil(t, it.TotalCost)
		require.Equal(t, "21.00", *it.TotalCost)
	})

	t.Run("undiscounted dish is charged at base price", func(t *testing.T) {
		dish := f.addDish(1000)
		it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 2})
		require.NoError(t, err)
		require.Equal(t, "10.00", it.UnitPrice)
		require.Equal(t, "20.00", *it.TotalCost)
	})

	t.Run("lapsed discount window charges base price even without a catalog write", func(t *testing.T) {
		dish := f.addDish(1000)
		f.addDiscount(dish.ID, 700, cartTestNow.Add(-48*time.Hour), cartTestNow.Add(-24*time.Hour))
		// Stored override left behind by the last recompute before expiry.
		stale := money.Money(700)
		d := f.dishes[dish.ID]
		d.DiscountedPrice = &stale
		f.dishes[dish.ID] = d

		it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 3})
		require.NoError(t, err)
		require.Equal(t, "10.00", it.UnitPrice)
		require.Equal(t, "30.00", *it.TotalCost)
	})

	t.Run("future discount window charges base price", func(t *testing.T) {
		dish := f.addDish(1000)
		f.addDiscount(dish.ID, 700, cartTestNow.Add(24*time.Hour), cartTestNow.Add(48*time.Hour))
		it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 1})
		require.NoError(t, err)
		require.Equal(t, "10.00", it.UnitPrice)
	})

	t.Run("quantity below one is rejected", func(t *testing.T) {
		dish := f.addDish(1000)
		_, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 0})
		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, "VALIDATION", appErr.Code)
	})

	t.Run("missing dish is a not found error", func(t *testing.T) {
		_, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: uuid.NewString(), Quantity: 1})
		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestCartTotals(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)

	dish := f.addDish(1000)
	f.addDiscount(dish.ID, 700, cartTestNow.Add(-time.Hour), cartTestNow.Add(time.Hour))

	c, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	first, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 3})
	require.NoError(t, err)
	second, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 3})
	require.NoError(t, err)

	out, err := svc.AddItem(ctx, c.GUID, first.ID)
	require.NoError(t, err)
	require.Equal(t, "21.00", out.TotalCost)

	out, err = svc.AddItem(ctx, c.GUID, second.ID)
	require.NoError(t, err)
	require.Equal(t, "42.00", out.TotalCost)
	require.Len(t, out.Items, 2)

	out, err = svc.RemoveItem(ctx, c.GUID, first.ID)
	require.NoError(t, err)
	require.Equal(t, "21.00", out.TotalCost)

	t.Run("updating quantity recomputes member carts", func(t *testing.T) {
		updated, err := svc.UpdateCartItem(ctx, second.ID, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 5})
		require.NoError(t, err)
		require.Equal(t, "35.00", *updated.TotalCost)

		got, err := svc.GetCart(ctx, c.GUID)
		require.NoError(t, err)
		require.Equal(t, "35.00", got.TotalCost)
	})

	t.Run("deleting an item recomputes member carts", func(t *testing.T) {
		require.NoError(t, svc.DeleteCartItem(ctx, second.ID))
		got, err := svc.GetCart(ctx, c.GUID)
		require.NoError(t, err)
		require.Equal(t, "0.00", got.TotalCost)
		require.Empty(t, got.Items)
	})
}

func TestRefreshCartRepricesFromCurrentPrices(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)
	now := cartTestNow
	svc.Now = func() time.Time { return now }

	dish := f.addDish(1000)
	f.addDiscount(dish.ID, 700, cartTestNow.Add(-time.Hour), cartTestNow.Add(time.Hour))

	c, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 3})
	require.NoError(t, err)
	out, err := svc.AddItem(ctx, c.GUID, it.ID)
	require.NoError(t, err)
	require.Equal(t, "21.00", out.TotalCost)

	// Discount window lapses: the stored item keeps its captured price until
	// an explicit refresh.
	now = cartTestNow.Add(2 * time.Hour)

	got, err := svc.GetCart(ctx, c.GUID)
	require.NoError(t, err)
	require.Equal(t, "21.00", got.TotalCost)

	refreshed, err := svc.RefreshCart(ctx, c.GUID)
	require.NoError(t, err)
	require.Equal(t, "30.00", refreshed.TotalCost)
	require.Equal(t, "10.00", refreshed.Items[0].UnitPrice)
}

func TestAddItemValidatesExistence(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	svc := newService(f)

	c, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c.GUID, uuid.NewString())
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "NOT_FOUND", appErr.Code)

	dish := f.addDish(1000)
	it, err := svc.CreateCartItem(ctx, cart.CartItemInput{DishID: dish.ID.String(), Quantity: 1})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, uuid.NewString(), it.ID)
	appErr, ok = common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}
