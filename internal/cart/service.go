package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

// Querier defines the storage operations the cart service depends on.
type Querier interface {
	GetDish(ctx context.Context, id uuid.UUID) (store.Dish, error)
	GetDiscountByDish(ctx context.Context, dishID uuid.UUID) (store.Discount, error)

	CreateCart(ctx context.Context) (store.Cart, error)
	GetCart(ctx context.Context, guid uuid.UUID) (store.Cart, error)
	ListCarts(ctx context.Context, limit, offset int32) ([]store.Cart, error)
	SetCartTotal(ctx context.Context, guid uuid.UUID, total int64) error
	DeleteCart(ctx context.Context, guid uuid.UUID) error

	CreateCartItem(ctx context.Context, dishID uuid.UUID, quantity int32, unitPrice, totalCost int64) (store.CartItem, error)
	GetCartItem(ctx context.Context, id uuid.UUID) (store.CartItem, error)
	ListCartItems(ctx context.Context, limit, offset int32) ([]store.CartItem, error)
	UpdateCartItem(ctx context.Context, id uuid.UUID, dishID uuid.UUID, quantity int32, unitPrice, totalCost int64) (store.CartItem, error)
	DeleteCartItem(ctx context.Context, id uuid.UUID) error

	AddCartMember(ctx context.Context, cartGUID, itemID uuid.UUID) error
	RemoveCartMember(ctx context.Context, cartGUID, itemID uuid.UUID) error
	ListCartMemberItems(ctx context.Context, cartGUID uuid.UUID) ([]store.CartItem, error)
	ListCartGUIDsByItem(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error)
}

// Service manages carts and cart items. Item prices are captured when the
// item is priced; carts are recomputed from those captures on every
// membership change and re-captured from current dish prices on refresh.
type Service struct {
	Q        Querier
	Bus      *events.Bus
	Validate *validator.Validate
	Log      zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) validate(v any) error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate.Struct(v); err != nil {
		return common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
	}
	return nil
}

func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, common.NewAppError("BAD_REQUEST", "invalid identifier", http.StatusBadRequest, err)
	}
	return id, nil
}

func mapStoreErr(err error, entity string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NewAppError("NOT_FOUND", entity+" not found", http.StatusNotFound, err)
	}
	return err
}

// CartDTO is the public cart payload.
type CartDTO struct {
	GUID      string        `json:"guid"`
	TotalCost string        `json:"totalCost"`
	Stale     bool          `json:"stale"`
	Items     []CartItemDTO `json:"items,omitempty"`
}

// CartItemDTO is the public cart item payload.
type CartItemDTO struct {
	ID        string  `json:"id"`
	DishID    string  `json:"dishId"`
	Quantity  int32   `json:"quantity"`
	UnitPrice string  `json:"unitPrice"`
	TotalCost *string `json:"totalCost,omitempty"`
}

func toCartDTO(c store.Cart, items []store.CartItem) CartDTO {
	dto := CartDTO{
		GUID:      c.GUID.String(),
		TotalCost: money.Format(c.TotalCost),
		Stale:     c.Stale,
	}
	for _, it := range items {
		dto.Items = append(dto.Items, toCartItemDTO(it))
	}
	return dto
}

func toCartItemDTO(it store.CartItem) CartItemDTO {
	return CartItemDTO{
		ID:        it.ID.String(),
		DishID:    it.DishID.String(),
		Quantity:  it.Quantity,
		UnitPrice: money.Format(it.UnitPrice),
		TotalCost: money.FormatPtr(it.TotalCost),
	}
}

// CreateCart creates an empty cart.
func (s *Service) CreateCart(ctx context.Context) (CartDTO, error) {
	c, err := s.Q.CreateCart(ctx)
	if err != nil {
		return CartDTO{}, err
	}
	return toCartDTO(c, nil), nil
}

// GetCart returns a cart with its member items.
func (s *Service) GetCart(ctx context.Context, guid string) (CartDTO, error) {
	g, err := parseID(guid)
	if err != nil {
		return CartDTO{}, err
	}
	c, err := s.Q.GetCart(ctx, g)
	if err != nil {
		return CartDTO{}, mapStoreErr(err, "cart")
	}
	items, err := s.Q.ListCartMemberItems(ctx, g)
	if err != nil {
		return CartDTO{}, err
	}
	return toCartDTO(c, items), nil
}

// ListCarts returns a page of carts without their items.
func (s *Service) ListCarts(ctx context.Context, limit, offset int32) ([]CartDTO, error) {
	rows, err := s.Q.ListCarts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]CartDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, toCartDTO(c, nil))
	}
	return out, nil
}

// DeleteCart removes a cart.
func (s *Service) DeleteCart(ctx context.Context, guid string) error {
	g, err := parseID(guid)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteCart(ctx, g); err != nil {
		return mapStoreErr(err, "cart")
	}
	return nil
}

// CartItemInput captures a cart item create/update payload.
type CartItemInput struct {
	DishID   string `json:"dishId" validate:"required,uuid"`
	Quantity int32  `json:"quantity" validate:"required"`
}

// priceDish resolves the price currently charged per unit of a dish. The
// discount window is evaluated against the clock here rather than trusting
// the stored override, so a lapsed window prices new items at base price even
// when no catalog write has refreshed the dish yet.
func (s *Service) priceDish(ctx context.Context, dishID uuid.UUID) (money.Money, error) {
	d, err := s.Q.GetDish(ctx, dishID)
	if err != nil {
		return 0, mapStoreErr(err, "dish")
	}
	var active *pricing.Discount
	disc, err := s.Q.GetDiscountByDish(ctx, dishID)
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
		return 0, err
	}
	return pricing.UnitPrice(d.Price, pricing.EffectivePrice(d.Price, active, s.now())), nil
}

// CreateCartItem prices and stores a standalone cart item. The unit price is
// captured at creation time and does not follow later dish price changes.
func (s *Service) CreateCartItem(ctx context.Context, in CartItemInput) (CartItemDTO, error) {
	if err := s.validate(in); err != nil {
		return CartItemDTO{}, err
	}
	if err := pricing.ValidateQuantity(in.Quantity); err != nil {
		return CartItemDTO{}, common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
	}
	did, err := parseID(in.DishID)
	if err != nil {
		return CartItemDTO{}, err
	}
	unit, err := s.priceDish(ctx, did)
	if err != nil {
		return CartItemDTO{}, err
	}
	it, err := s.Q.CreateCartItem(ctx, did, in.Quantity, unit, pricing.LineTotal(in.Quantity, unit))
	if err != nil {
		return CartItemDTO{}, err
	}
	obs.PricingRecomputeTotal.WithLabelValues("cart_item", "ok").Inc()
	return toCartItemDTO(it), nil
}

// GetCartItem returns one cart item.
func (s *Service) GetCartItem(ctx context.Context, id string) (CartItemDTO, error) {
	iid, err := parseID(id)
	if err != nil {
		return CartItemDTO{}, err
	}
	it, err := s.Q.GetCartItem(ctx, iid)
	if err != nil {
		return CartItemDTO{}, mapStoreErr(err, "cart item")
	}
	return toCartItemDTO(it), nil
}

// ListCartItems returns a page of cart items.
func (s *Service) ListCartItems(ctx context.Context, limit, offset int32) ([]CartItemDTO, error) {
	rows, err := s.Q.ListCartItems(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]CartItemDTO, 0, len(rows))
	for _, it := range rows {
		out = append(out, toCartItemDTO(it))
	}
	return out, nil
}

// UpdateCartItem re-prices an item from current dish prices with the new
// quantity, then recomputes every cart that holds it.
func (s *Service) UpdateCartItem(ctx context.Context, id string, in CartItemInput) (CartItemDTO, error) {
	iid, err := parseID(id)
	if err != nil {
		return CartItemDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return CartItemDTO{}, err
	}
	if err := pricing.ValidateQuantity(in.Quantity); err != nil {
		return CartItemDTO{}, common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
	}
	did, err := parseID(in.DishID)
	if err != nil {
		return CartItemDTO{}, err
	}
	unit, err := s.priceDish(ctx, did)
	if err != nil {
		return CartItemDTO{}, err
	}
	it, err := s.Q.UpdateCartItem(ctx, iid, did, in.Quantity, unit, pricing.LineTotal(in.Quantity, unit))
	if err != nil {
		return CartItemDTO{}, mapStoreErr(err, "cart item")
	}
	obs.PricingRecomputeTotal.WithLabelValues("cart_item", "ok").Inc()
	s.recomputeCartsHolding(ctx, iid)
	return toCartItemDTO(it), nil
}

// DeleteCartItem removes an item and recomputes every cart that held it.
func (s *Service) DeleteCartItem(ctx context.Context, id string) error {
	iid, err := parseID(id)
	if err != nil {
		return err
	}
	guids, err := s.Q.ListCartGUIDsByItem(ctx, iid)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteCartItem(ctx, iid); err != nil {
		return mapStoreErr(err, "cart item")
	}
	for _, g := range guids {
		if err := s.recomputeCart(ctx, g); err != nil {
			s.Log.Error().Err(err).Str("cart_guid", g.String()).Msg("recompute cart after item delete")
		}
	}
	return nil
}

// AddItem links an item into a cart and recomputes the cart total.
func (s *Service) AddItem(ctx context.Context, guid, itemID string) (CartDTO, error) {
	g, err := parseID(guid)
	if err != nil {
		return CartDTO{}, err
	}
	iid, err := parseID(itemID)
	if err != nil {
		return CartDTO{}, err
	}
	if _, err := s.Q.GetCart(ctx, g); err != nil {
		return CartDTO{}, mapStoreErr(err, "cart")
	}
	if _, err := s.Q.GetCartItem(ctx, iid); err != nil {
		return CartDTO{}, mapStoreErr(err, "cart item")
	}
	if err := s.Q.AddCartMember(ctx, g, iid); err != nil {
		return CartDTO{}, err
	}
	if err := s.recomputeCart(ctx, g); err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, guid)
}

// RemoveItem unlinks an item from a cart and recomputes the cart total.
func (s *Service) RemoveItem(ctx context.Context, guid, itemID string) (CartDTO, error) {
	g, err := parseID(guid)
	if err != nil {
		return CartDTO{}, err
	}
	iid, err := parseID(itemID)
	if err != nil {
		return CartDTO{}, err
	}
	if err := s.Q.RemoveCartMember(ctx, g, iid); err != nil {
		return CartDTO{}, mapStoreErr(err, "cart member")
	}
	if err := s.recomputeCart(ctx, g); err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, guid)
}

// RefreshCart re-prices every member item from current dish prices and
// recomputes the cart total. This is the explicit path for picking up dish
// price changes after the price-at-add capture.
func (s *Service) RefreshCart(ctx context.Context, guid string) (CartDTO, error) {
	g, err := parseID(guid)
	if err != nil {
		return CartDTO{}, err
	}
	if _, err := s.Q.GetCart(ctx, g); err != nil {
		return CartDTO{}, mapStoreErr(err, "cart")
	}

	started := s.now()
	items, err := s.Q.ListCartMemberItems(ctx, g)
	if err != nil {
		return CartDTO{}, err
	}
	for _, it := range items {
		unit, err := s.priceDish(ctx, it.DishID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return CartDTO{}, err
		}
		if _, err := s.Q.UpdateCartItem(ctx, it.ID, it.DishID, it.Quantity, unit, pricing.LineTotal(it.Quantity, unit)); err != nil {
			return CartDTO{}, mapStoreErr(err, "cart item")
		}
	}
	if err := s.recomputeCart(ctx, g); err != nil {
		return CartDTO{}, err
	}
	obs.CartRefreshDuration.Observe(float64(time.Since(started).Milliseconds()))

	s.emit(ctx, events.TopicCartRepriced, g, map[string]any{"cartGuid": g.String()})
	return s.GetCart(ctx, guid)
}

// recomputeCart sums the cart's member line totals and persists the result,
// clearing the stale flag.
func (s *Service) recomputeCart(ctx context.Context, guid uuid.UUID) error {
	items, err := s.Q.ListCartMemberItems(ctx, guid)
	if err != nil {
		obs.PricingRecomputeTotal.WithLabelValues("cart", "error").Inc()
		return err
	}
	totals := make([]*money.Money, 0, len(items))
	for _, it := range items {
		totals = append(totals, it.TotalCost)
	}
	if err := s.Q.SetCartTotal(ctx, guid, pricing.CartTotal(totals)); err != nil {
		obs.PricingRecomputeTotal.WithLabelValues("cart", "error").Inc()
		return mapStoreErr(err, "cart")
	}
	obs.PricingRecomputeTotal.WithLabelValues("cart", "ok").Inc()
	return nil
}

func (s *Service) recomputeCartsHolding(ctx context.Context, itemID uuid.UUID) {
	guids, err := s.Q.ListCartGUIDsByItem(ctx, itemID)
	if err != nil {
		s.Log.Error().Err(err).Str("item_id", itemID.String()).Msg("list carts for item")
		return
	}
	for _, g := range guids {
		if err := s.recomputeCart(ctx, g); err != nil {
			s.Log.Error().Err(err).Str("cart_guid", g.String()).Msg("recompute cart after item update")
		}
	}
}

func (s *Service) emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}
