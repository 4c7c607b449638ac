package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// DishInput captures a dish create/update payload. Price is a decimal string.
type DishInput struct {
	RestaurantID string `json:"restaurantId" validate:"required,uuid"`
	MenuID       string `json:"menuId" validate:"required,uuid"`
	Name         string `json:"name" validate:"required"`
	Price        string `json:"price" validate:"required"`
}

// DishDTO is the public dish payload. DiscountedPrice is present only while a
// discount is in effect.
type DishDTO struct {
	ID              string  `json:"id"`
	RestaurantID    string  `json:"restaurantId"`
	MenuID          string  `json:"menuId"`
	Name            string  `json:"name"`
	Price           string  `json:"price"`
	DiscountedPrice *string `json:"discountedPrice,omitempty"`
}

func toDishDTO(d store.Dish) DishDTO {
	return DishDTO{
		ID:              d.ID.String(),
		RestaurantID:    d.RestaurantID.String(),
		MenuID:          d.MenuID.String(),
		Name:            d.Name,
		Price:           money.Format(d.Price),
		DiscountedPrice: money.FormatPtr(d.DiscountedPrice),
	}
}

func parsePrice(value string) (money.Money, error) {
	price, err := money.ParseDecimal(value)
	if err != nil {
		return 0, common.NewAppError("VALIDATION", "price must be a decimal amount", http.StatusUnprocessableEntity, err)
	}
	if price <= 0 {
		return 0, common.NewAppError("VALIDATION", "price must be positive", http.StatusUnprocessableEntity, pricing.ErrInvalidBasePrice)
	}
	return price, nil
}

// CreateDish validates and stores a dish under an existing menu.
func (s *Service) CreateDish(ctx context.Context, in DishInput) (DishDTO, error) {
	if err := s.validate(in); err != nil {
		return DishDTO{}, err
	}
	rid, err := parseID(in.RestaurantID)
	if err != nil {
		return DishDTO{}, err
	}
	mid, err := parseID(in.MenuID)
	if err != nil {
		return DishDTO{}, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return DishDTO{}, err
	}
	if _, err := s.Q.GetMenu(ctx, mid); err != nil {
		return DishDTO{}, mapStoreErr(err, "menu")
	}
	d, err := s.Q.CreateDish(ctx, store.DishParams{
		RestaurantID: rid,
		MenuID:       mid,
		Name:         in.Name,
		Price:        price,
	})
	if err != nil {
		return DishDTO{}, err
	}
	s.Cache.Invalidate(ctx, dishListCacheKey)
	return toDishDTO(d), nil
}

// GetDish returns one dish.
func (s *Service) GetDish(ctx context.Context, id string) (DishDTO, error) {
	did, err := parseID(id)
	if err != nil {
		return DishDTO{}, err
	}
	d, err := s.Q.GetDish(ctx, did)
	if err != nil {
		return DishDTO{}, mapStoreErr(err, "dish")
	}
	return toDishDTO(d), nil
}

// ListDishes returns a page of dishes, optionally scoped by menu. The
// unscoped first page is served from cache when available.
func (s *Service) ListDishes(ctx context.Context, menuID string, limit, offset int32) ([]DishDTO, error) {
	var scope *uuid.UUID
	if menuID != "" {
		mid, err := parseID(menuID)
		if err != nil {
			return nil, err
		}
		scope = &mid
	}

	cacheable := scope == nil && offset == 0
	if cacheable {
		var cached []DishDTO
		if hit, err := s.Cache.GetJSON(ctx, dishListCacheKey, &cached); err == nil && hit {
			if int32(len(cached)) >= limit {
				return cached[:limit], nil
			}
		}
	}

	rows, err := s.Q.ListDishes(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DishDTO, 0, len(rows))
	for _, d := range rows {
		out = append(out, toDishDTO(d))
	}
	if cacheable {
		if err := s.Cache.SetJSON(ctx, dishListCacheKey, out); err != nil {
			s.Log.Warn().Err(err).Msg("cache dish list")
		}
	}
	return out, nil
}

// UpdateDish updates a dish and, when the base price changed, recomputes the
// derived discounted price and fans the change out to affected carts.
func (s *Service) UpdateDish(ctx context.Context, id string, in DishInput) (DishDTO, error) {
	did, err := parseID(id)
	if err != nil {
		return DishDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return DishDTO{}, err
	}
	rid, err := parseID(in.RestaurantID)
	if err != nil {
		return DishDTO{}, err
	}
	mid, err := parseID(in.MenuID)
	if err != nil {
		return DishDTO{}, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return DishDTO{}, err
	}

	before, err := s.Q.GetDish(ctx, did)
	if err != nil {
		return DishDTO{}, mapStoreErr(err, "dish")
	}

	d, err := s.Q.UpdateDish(ctx, did, store.DishParams{
		RestaurantID: rid,
		MenuID:       mid,
		Name:         in.Name,
		Price:        price,
	})
	if err != nil {
		return DishDTO{}, mapStoreErr(err, "dish")
	}

	if before.Price != d.Price {
		d, err = s.recomputeDish(ctx, d)
		if err != nil {
			return DishDTO{}, err
		}
	}
	s.Cache.Invalidate(ctx, dishListCacheKey)
	return toDishDTO(d), nil
}

// DeleteDish removes a dish. Deleting the dish cascades its cart items and
// membership rows away, so the carts that held it are collected up front and
// flagged for recomputation afterwards.
func (s *Service) DeleteDish(ctx context.Context, id string) error {
	did, err := parseID(id)
	if err != nil {
		return err
	}
	guids, err := s.Q.ListCartGUIDsByDish(ctx, did)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteDish(ctx, did); err != nil {
		return mapStoreErr(err, "dish")
	}
	if s.Cascade != nil && len(guids) > 0 {
		if err := s.Cascade.CartsChanged(ctx, guids); err != nil {
			s.Log.Error().Err(err).Str("dish_id", did.String()).Msg("cart fanout after dish delete")
		}
	}
	s.Cache.Invalidate(ctx, dishListCacheKey)
	return nil
}

// recomputeDish re-derives the dish's discounted price from its current
// discount, persists the result, and triggers the cart fanout. Fanout and
// event failures are logged but never fail the triggering write.
func (s *Service) recomputeDish(ctx context.Context, d store.Dish) (store.Dish, error) {
	var active *pricing.Discount
	disc, err := s.Q.GetDiscountByDish(ctx, d.ID)
	switch {
	case err == nil:
		active = &pricing.Discount{
			Price:    disc.Price,
			StartsAt: disc.StartsAt,
			EndsAt:   disc.EndsAt,
			Active:   disc.IsActive,
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		obs.PricingRecomputeTotal.WithLabelValues("dish", "error").Inc()
		return store.Dish{}, err
	}

	effective := pricing.EffectivePrice(d.Price, active, s.now())
	if err := s.Q.SetDishDiscountedPrice(ctx, d.ID, effective); err != nil {
		obs.PricingRecomputeTotal.WithLabelValues("dish", "error").Inc()
		return store.Dish{}, mapStoreErr(err, "dish")
	}
	d.DiscountedPrice = effective
	obs.PricingRecomputeTotal.WithLabelValues("dish", "ok").Inc()

	s.emit(ctx, events.TopicDishRepriced, d.ID, map[string]any{
		"dishId":          d.ID.String(),
		"price":           money.Format(d.Price),
		"discountedPrice": money.FormatPtr(d.DiscountedPrice),
	})
	if s.Cascade != nil {
		if err := s.Cascade.DishRepriced(ctx, d.ID); err != nil {
			s.Log.Error().Err(err).Str("dish_id", d.ID.String()).Msg("cart fanout after dish reprice")
		}
	}
	return d, nil
}

func (s *Service) emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}

// DishParameterInput attaches a parameter value to a dish.
type DishParameterInput struct {
	ParameterID string `json:"parameterId" validate:"required,uuid"`
	Value       string `json:"value" validate:"required"`
}

// DishParameterDTO is the public dish parameter payload.
type DishParameterDTO struct {
	ID          string `json:"id"`
	DishID      string `json:"dishId"`
	ParameterID string `json:"parameterId"`
	Value       string `json:"value"`
}

// CreateDishParameter attaches a parameter value to a dish.
func (s *Service) CreateDishParameter(ctx context.Context, dishID string, in DishParameterInput) (DishParameterDTO, error) {
	did, err := parseID(dishID)
	if err != nil {
		return DishParameterDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return DishParameterDTO{}, err
	}
	pid, err := parseID(in.ParameterID)
	if err != nil {
		return DishParameterDTO{}, err
	}
	if _, err := s.Q.GetDish(ctx, did); err != nil {
		return DishParameterDTO{}, mapStoreErr(err, "dish")
	}
	if _, err := s.Q.GetParameter(ctx, pid); err != nil {
		return DishParameterDTO{}, mapStoreErr(err, "parameter")
	}
	p, err := s.Q.CreateDishParameter(ctx, did, pid, in.Value)
	if err != nil {
		return DishParameterDTO{}, err
	}
	return DishParameterDTO{
		ID:          p.ID.String(),
		DishID:      p.DishID.String(),
		ParameterID: p.ParameterID.String(),
		Value:       p.Value,
	}, nil
}

// ListDishParameters returns all parameter values attached to a dish.
func (s *Service) ListDishParameters(ctx context.Context, dishID string) ([]DishParameterDTO, error) {
	did, err := parseID(dishID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListDishParameters(ctx, did)
	if err != nil {
		return nil, err
	}
	out := make([]DishParameterDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, DishParameterDTO{
			ID:          p.ID.String(),
			DishID:      p.DishID.String(),
			ParameterID: p.ParameterID.String(),
			Value:       p.Value,
		})
	}
	return out, nil
}

// DeleteDishParameter detaches a parameter value from a dish.
func (s *Service) DeleteDishParameter(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteDishParameter(ctx, pid); err != nil {
		return mapStoreErr(err, "dish parameter")
	}
	return nil
}
