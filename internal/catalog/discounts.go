package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// DiscountInput captures a discount create/update payload. Price is the
// absolute discounted price as a decimal string.
type DiscountInput struct {
	DishID   string    `json:"dishId" validate:"required,uuid"`
	StartsAt time.Time `json:"startsAt" validate:"required"`
	EndsAt   time.Time `json:"endsAt" validate:"required"`
	Price    string    `json:"price" validate:"required"`
	IsActive bool      `json:"isActive"`
}

// DiscountDTO is the public discount payload.
type DiscountDTO struct {
	ID       string    `json:"id"`
	DishID   string    `json:"dishId"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Price    string    `json:"price"`
	IsActive bool      `json:"isActive"`
}

func toDiscountDTO(d store.Discount) DiscountDTO {
	return DiscountDTO{
		ID:       d.ID.String(),
		DishID:   d.DishID.String(),
		StartsAt: d.StartsAt,
		EndsAt:   d.EndsAt,
		Price:    money.Format(d.Price),
		IsActive: d.IsActive,
	}
}

func (s *Service) discountParams(ctx context.Context, in DiscountInput) (store.DiscountParams, store.Dish, error) {
	did, err := parseID(in.DishID)
	if err != nil {
		return store.DiscountParams{}, store.Dish{}, err
	}
	price, err := money.ParseDecimal(in.Price)
	if err != nil {
		return store.DiscountParams{}, store.Dish{}, common.NewAppError("VALIDATION", "price must be a decimal amount", http.StatusUnprocessableEntity, err)
	}
	dish, err := s.Q.GetDish(ctx, did)
	if err != nil {
		return store.DiscountParams{}, store.Dish{}, mapStoreErr(err, "dish")
	}
	candidate := pricing.Discount{
		Price:    price,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
		Active:   in.IsActive,
	}
	if err := pricing.ValidateDiscount(dish.Price, candidate); err != nil {
		return store.DiscountParams{}, store.Dish{}, common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
	}
	return store.DiscountParams{
		DishID:   did,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
		Price:    price,
		IsActive: in.IsActive,
	}, dish, nil
}

// CreateDiscount validates and stores a discount, then recomputes the dish's
// derived price and fans the change out to affected carts.
func (s *Service) CreateDiscount(ctx context.Context, in DiscountInput) (DiscountDTO, error) {
	if err := s.validate(in); err != nil {
		return DiscountDTO{}, err
	}
	params, dish, err := s.discountParams(ctx, in)
	if err != nil {
		return DiscountDTO{}, err
	}
	d, err := s.Q.CreateDiscount(ctx, params)
	if err != nil {
		return DiscountDTO{}, err
	}
	if _, err := s.recomputeDish(ctx, dish); err != nil {
		return DiscountDTO{}, err
	}
	s.emit(ctx, events.TopicDiscountCreated, d.ID, toDiscountDTO(d))
	return toDiscountDTO(d), nil
}

// GetDiscount returns one discount.
func (s *Service) GetDiscount(ctx context.Context, id string) (DiscountDTO, error) {
	did, err := parseID(id)
	if err != nil {
		return DiscountDTO{}, err
	}
	d, err := s.Q.GetDiscount(ctx, did)
	if err != nil {
		return DiscountDTO{}, mapStoreErr(err, "discount")
	}
	return toDiscountDTO(d), nil
}

// ListDiscounts returns a page of discounts.
func (s *Service) ListDiscounts(ctx context.Context, limit, offset int32) ([]DiscountDTO, error) {
	rows, err := s.Q.ListDiscounts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DiscountDTO, 0, len(rows))
	for _, d := range rows {
		out = append(out, toDiscountDTO(d))
	}
	return out, nil
}

// UpdateDiscount replaces a discount and recomputes the affected dish prices.
// Moving a discount between dishes reprices both the old and the new dish.
func (s *Service) UpdateDiscount(ctx context.Context, id string, in DiscountInput) (DiscountDTO, error) {
	did, err := parseID(id)
	if err != nil {
		return DiscountDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return DiscountDTO{}, err
	}
	before, err := s.Q.GetDiscount(ctx, did)
	if err != nil {
		return DiscountDTO{}, mapStoreErr(err, "discount")
	}
	params, dish, err := s.discountParams(ctx, in)
	if err != nil {
		return DiscountDTO{}, err
	}
	d, err := s.Q.UpdateDiscount(ctx, did, params)
	if err != nil {
		return DiscountDTO{}, mapStoreErr(err, "discount")
	}
	if before.DishID != d.DishID {
		if prev, err := s.Q.GetDish(ctx, before.DishID); err == nil {
			if _, err := s.recomputeDish(ctx, prev); err != nil {
				return DiscountDTO{}, err
			}
		}
	}
	if _, err := s.recomputeDish(ctx, dish); err != nil {
		return DiscountDTO{}, err
	}
	s.emit(ctx, events.TopicDiscountUpdated, d.ID, toDiscountDTO(d))
	return toDiscountDTO(d), nil
}

// DeleteDiscount removes a discount and restores the dish to its base price.
func (s *Service) DeleteDiscount(ctx context.Context, id string) error {
	did, err := parseID(id)
	if err != nil {
		return err
	}
	d, err := s.Q.GetDiscount(ctx, did)
	if err != nil {
		return mapStoreErr(err, "discount")
	}
	if err := s.Q.DeleteDiscount(ctx, did); err != nil {
		return mapStoreErr(err, "discount")
	}
	dish, err := s.Q.GetDish(ctx, d.DishID)
	if err == nil {
		if _, err := s.recomputeDish(ctx, dish); err != nil {
			return err
		}
	}
	s.emit(ctx, events.TopicDiscountDeleted, d.ID, toDiscountDTO(d))
	return nil
}
