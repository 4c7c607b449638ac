package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

func window(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestEffectivePrice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	starts, ends := window(now)

	t.Run("nil discount charges base price", func(t *testing.T) {
		require.Nil(t, pricing.EffectivePrice(1000, nil, now))
	})

	t.Run("active discount overrides", func(t *testing.T) {
		d := &pricing.Discount{Price: 700, StartsAt: starts, EndsAt: ends, Active: true}
		got := pricing.EffectivePrice(1000, d, now)
		require.NotNil(t, got)
		require.Equal(t, money.Money(700), *got)
	})

	t.Run("inactive flag wins over valid window", func(t *testing.T) {
		d := &pricing.Discount{Price: 700, StartsAt: starts, EndsAt: ends, Active: false}
		require.Nil(t, pricing.EffectivePrice(1000, d, now))
	})

	t.Run("expired window wins over active flag", func(t *testing.T) {
		d := &pricing.Discount{Price: 700, StartsAt: now.Add(-3 * time.Hour), EndsAt: now.Add(-2 * time.Hour), Active: true}
		require.Nil(t, pricing.EffectivePrice(1000, d, now))
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		d := &pricing.Discount{Price: 700, StartsAt: now, EndsAt: now, Active: true}
		got := pricing.EffectivePrice(1000, d, now)
		require.NotNil(t, got)
	})
}

func TestUnitPrice(t *testing.T) {
	require.Equal(t, money.Money(1000), pricing.UnitPrice(1000, nil))
	discounted := money.Money(700)
	require.Equal(t, money.Money(700), pricing.UnitPrice(1000, &discounted))
}

func TestLineTotal(t *testing.T) {
	require.Equal(t, money.Money(2100), pricing.LineTotal(3, 700))
	require.Equal(t, money.Money(0), pricing.LineTotal(0, 700))
	require.Equal(t, money.Money(0), pricing.LineTotal(-1, 700))
}

func TestCartTotal(t *testing.T) {
	a := money.Money(2100)
	b := money.Money(2100)
	require.Equal(t, money.Money(4200), pricing.CartTotal([]*money.Money{&a, &b}))
	require.Equal(t, money.Money(2100), pricing.CartTotal([]*money.Money{&a, nil}))
	require.Equal(t, money.Money(0), pricing.CartTotal(nil))
}

func TestValidateQuantity(t *testing.T) {
	require.NoError(t, pricing.ValidateQuantity(1))
	require.ErrorIs(t, pricing.ValidateQuantity(0), pricing.ErrInvalidQuantity)
	require.ErrorIs(t, pricing.ValidateQuantity(-5), pricing.ErrInvalidQuantity)
}

func TestValidateDiscount(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	starts, ends := window(now)

	valid := pricing.Discount{Price: 700, StartsAt: starts, EndsAt: ends, Active: true}
	require.NoError(t, pricing.ValidateDiscount(1000, valid))

	cases := []struct {
		name string
		base money.Money
		d    pricing.Discount
		want error
	}{
		{"zero base", 0, valid, pricing.ErrInvalidBasePrice},
		{"window inverted", 1000, pricing.Discount{Price: 700, StartsAt: ends, EndsAt: starts}, pricing.ErrInvalidWindow},
		{"window empty", 1000, pricing.Discount{Price: 700, StartsAt: starts, EndsAt: starts}, pricing.ErrInvalidWindow},
		{"zero price", 1000, pricing.Discount{Price: 0, StartsAt: starts, EndsAt: ends}, pricing.ErrInvalidDiscountPrice},
		{"negative price", 1000, pricing.Discount{Price: -1, StartsAt: starts, EndsAt: ends}, pricing.ErrInvalidDiscountPrice},
		{"price equals base", 1000, pricing.Discount{Price: 1000, StartsAt: starts, EndsAt: ends}, pricing.ErrDiscountNotBelowBase},
		{"price above base", 1000, pricing.Discount{Price: 1200, StartsAt: starts, EndsAt: ends}, pricing.ErrDiscountNotBelowBase},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, pricing.ValidateDiscount(tc.base, tc.d), tc.want)
		})
	}
}
