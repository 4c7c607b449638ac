package pricing

import (
	"errors"
	"time"

	"github.com/noah-isme/backend-resto/internal/money"
)

var (
	// ErrInvalidQuantity is returned when a cart item quantity is below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidWindow is returned when a discount window ends before it starts.
	ErrInvalidWindow = errors.New("discount end date must be after start date")
	// ErrInvalidDiscountPrice is returned when a discounted price is not positive.
	ErrInvalidDiscountPrice = errors.New("discounted price must be positive")
	// ErrDiscountNotBelowBase is returned when a discounted price does not undercut the base price.
	ErrDiscountNotBelowBase = errors.New("discounted price must be below the dish price")
	// ErrInvalidBasePrice is returned when a dish price is not positive.
	ErrInvalidBasePrice = errors.New("dish price must be positive")
)

// Discount is the pricing view of a discount record. Price is the absolute
// discounted price, not a deduction.
type Discount struct {
	Price    money.Money
	StartsAt time.Time
	EndsAt   time.Time
	Active   bool
}

// ActiveAt reports whether the discount applies at the given instant. The
// flag and the date window are independent; both must hold.
func (d Discount) ActiveAt(now time.Time) bool {
	return d.Active && !now.Before(d.StartsAt) && !now.After(d.EndsAt)
}

// EffectivePrice computes the discounted price override for a dish. It
// returns nil when no discount applies, meaning the dish charges its base
// price.
func EffectivePrice(base money.Money, d *Discount, now time.Time) *money.Money {
	if d == nil || !d.ActiveAt(now) {
		return nil
	}
	price := d.Price
	return &price
}

// UnitPrice resolves the price actually charged per unit of a dish.
func UnitPrice(base money.Money, discounted *money.Money) money.Money {
	if discounted != nil {
		return *discounted
	}
	return base
}

// LineTotal computes quantity times unit price. Minor-unit arithmetic keeps
// the product exact; quantities below one contribute nothing.
func LineTotal(quantity int32, unit money.Money) money.Money {
	if quantity <= 0 {
		return 0
	}
	return money.Money(quantity) * unit
}

// CartTotal sums member line totals, treating missing totals as zero.
func CartTotal(totals []*money.Money) money.Money {
	var sum money.Money
	for _, t := range totals {
		if t == nil {
			continue
		}
		sum += *t
	}
	return sum
}

// ValidateQuantity rejects zero or negative cart item quantities.
func ValidateQuantity(quantity int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateDiscount rejects invalid discount configuration at the write
// boundary. Prices are never clamped.
func ValidateDiscount(base money.Money, d Discount) error {
	if base <= 0 {
		return ErrInvalidBasePrice
	}
	if !d.EndsAt.After(d.StartsAt) {
		return ErrInvalidWindow
	}
	if d.Price <= 0 {
		return ErrInvalidDiscountPrice
	}
	if d.Price >= base {
		return ErrDiscountNotBelowBase
	}
	return nil
}
