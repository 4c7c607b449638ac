package catalog

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
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/store"
)

const dishListCacheKey = "catalog:dishes"

// Querier defines the storage operations the catalog service depends on.
type Querier interface {
	CreateRestaurant(ctx context.Context, arg store.RestaurantParams) (store.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (store.Restaurant, error)
	ListRestaurants(ctx context.Context, limit, offset int32) ([]store.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id uuid.UUID, arg store.RestaurantParams) (store.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id uuid.UUID) error

	CreateMenu(ctx context.Context, restaurantID uuid.UUID, name string) (store.Menu, error)
	GetMenu(ctx context.Context, id uuid.UUID) (store.Menu, error)
	ListMenus(ctx context.Context, restaurantID *uuid.UUID, limit, offset int32) ([]store.Menu, error)
	UpdateMenu(ctx context.Context, id uuid.UUID, name string) (store.Menu, error)
	DeleteMenu(ctx context.Context, id uuid.UUID) error

	CreateParameter(ctx context.Context, name string) (store.Parameter, error)
	GetParameter(ctx context.Context, id uuid.UUID) (store.Parameter, error)
	ListParameters(ctx context.Context, limit, offset int32) ([]store.Parameter, error)
	UpdateParameter(ctx context.Context, id uuid.UUID, name string) (store.Parameter, error)
	DeleteParameter(ctx context.Context, id uuid.UUID) error

	CreateDish(ctx context.Context, arg store.DishParams) (store.Dish, error)
	GetDish(ctx context.Context, id uuid.UUID) (store.Dish, error)
	ListDishes(ctx context.Context, menuID *uuid.UUID, limit, offset int32) ([]store.Dish, error)
	UpdateDish(ctx context.Context, id uuid.UUID, arg store.DishParams) (store.Dish, error)
	SetDishDiscountedPrice(ctx context.Context, id uuid.UUID, price *int64) error
	DeleteDish(ctx context.Context, id uuid.UUID) error

	CreateDishParameter(ctx context.Context, dishID, parameterID uuid.UUID, value string) (store.DishParameter, error)
	ListDishParameters(ctx context.Context, dishID uuid.UUID) ([]store.DishParameter, error)
	DeleteDishParameter(ctx context.Context, id uuid.UUID) error

	ListCartGUIDsByDish(ctx context.Context, dishID uuid.UUID) ([]uuid.UUID, error)

	CreateDiscount(ctx context.Context, arg store.DiscountParams) (store.Discount, error)
	GetDiscount(ctx context.Context, id uuid.UUID) (store.Discount, error)
	GetDiscountByDish(ctx context.Context, dishID uuid.UUID) (store.Discount, error)
	ListDiscounts(ctx context.Context, limit, offset int32) ([]store.Discount, error)
	UpdateDiscount(ctx context.Context, id uuid.UUID, arg store.DiscountParams) (store.Discount, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates catalog writes and the pricing recomputation they trigger.
type Service struct {
	Q        Querier
	Cache    *Cache
	Cascade  *pricing.Cascade
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

// RestaurantInput captures a restaurant create/update payload.
type RestaurantInput struct {
	Name        string  `json:"name" validate:"required"`
	Address     string  `json:"address" validate:"required"`
	Phone       string  `json:"phoneNumber" validate:"required"`
	Description string  `json:"description" validate:"required"`
	IsVerified  bool    `json:"isVerified"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	WorkingTime *string `json:"workingTime,omitempty"`
}

// RestaurantDTO is the public restaurant payload.
type RestaurantDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Phone       string  `json:"phoneNumber"`
	Description string  `json:"description"`
	IsVerified  bool    `json:"isVerified"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	WorkingTime *string `json:"workingTime,omitempty"`
}

func toRestaurantDTO(r store.Restaurant) RestaurantDTO {
	return RestaurantDTO{
		ID:          r.ID.String(),
		Name:        r.Name,
		Address:     r.Address,
		Phone:       r.Phone,
		Description: r.Description,
		IsVerified:  r.IsVerified,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		WorkingTime: r.WorkingTime,
	}
}

func (in RestaurantInput) params() store.RestaurantParams {
	return store.RestaurantParams{
		Name:        in.Name,
		Address:     in.Address,
		Phone:       in.Phone,
		Description: in.Description,
		IsVerified:  in.IsVerified,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		WorkingTime: in.WorkingTime,
	}
}

// CreateRestaurant validates and stores a restaurant.
func (s *Service) CreateRestaurant(ctx context.Context, in RestaurantInput) (RestaurantDTO, error) {
	if err := s.validate(in); err != nil {
		return RestaurantDTO{}, err
	}
	r, err := s.Q.CreateRestaurant(ctx, in.params())
	if err != nil {
		return RestaurantDTO{}, err
	}
	return toRestaurantDTO(r), nil
}

// GetRestaurant returns one restaurant.
func (s *Service) GetRestaurant(ctx context.Context, id string) (RestaurantDTO, error) {
	rid, err := parseID(id)
	if err != nil {
		return RestaurantDTO{}, err
	}
	r, err := s.Q.GetRestaurant(ctx, rid)
	if err != nil {
		return RestaurantDTO{}, mapStoreErr(err, "restaurant")
	}
	return toRestaurantDTO(r), nil
}

// ListRestaurants returns a page of restaurants.
func (s *Service) ListRestaurants(ctx context.Context, limit, offset int32) ([]RestaurantDTO, error) {
	rows, err := s.Q.ListRestaurants(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]RestaurantDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRestaurantDTO(r))
	}
	return out, nil
}

// UpdateRestaurant validates and updates a restaurant.
func (s *Service) UpdateRestaurant(ctx context.Context, id string, in RestaurantInput) (RestaurantDTO, error) {
	rid, err := parseID(id)
	if err != nil {
		return RestaurantDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return RestaurantDTO{}, err
	}
	r, err := s.Q.UpdateRestaurant(ctx, rid, in.params())
	if err != nil {
		return RestaurantDTO{}, mapStoreErr(err, "restaurant")
	}
	return toRestaurantDTO(r), nil
}

// DeleteRestaurant removes a restaurant.
func (s *Service) DeleteRestaurant(ctx context.Context, id string) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteRestaurant(ctx, rid); err != nil {
		return mapStoreErr(err, "restaurant")
	}
	return nil
}

// MenuInput captures a menu create/update payload.
type MenuInput struct {
	RestaurantID string `json:"restaurantId" validate:"required,uuid"`
	Name         string `json:"name" validate:"required"`
}

// MenuDTO is the public menu payload.
type MenuDTO struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
}

func toMenuDTO(m store.Menu) MenuDTO {
	return MenuDTO{ID: m.ID.String(), RestaurantID: m.RestaurantID.String(), Name: m.Name}
}

// CreateMenu validates and stores a menu.
func (s *Service) CreateMenu(ctx context.Context, in MenuInput) (MenuDTO, error) {
	if err := s.validate(in); err != nil {
		return MenuDTO{}, err
	}
	rid, err := parseID(in.RestaurantID)
	if err != nil {
		return MenuDTO{}, err
	}
	if _, err := s.Q.GetRestaurant(ctx, rid); err != nil {
		return MenuDTO{}, mapStoreErr(err, "restaurant")
	}
	m, err := s.Q.CreateMenu(ctx, rid, in.Name)
	if err != nil {
		return MenuDTO{}, err
	}
	return toMenuDTO(m), nil
}

// GetMenu returns one menu.
func (s *Service) GetMenu(ctx context.Context, id string) (MenuDTO, error) {
	mid, err := parseID(id)
	if err != nil {
		return MenuDTO{}, err
	}
	m, err := s.Q.GetMenu(ctx, mid)
	if err != nil {
		return MenuDTO{}, mapStoreErr(err, "menu")
	}
	return toMenuDTO(m), nil
}

// ListMenus returns a page of menus, optionally scoped by restaurant.
func (s *Service) ListMenus(ctx context.Context, restaurantID string, limit, offset int32) ([]MenuDTO, error) {
	var scope *uuid.UUID
	if restaurantID != "" {
		rid, err := parseID(restaurantID)
		if err != nil {
			return nil, err
		}
		scope = &rid
	}
	rows, err := s.Q.ListMenus(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]MenuDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMenuDTO(m))
	}
	return out, nil
}

// UpdateMenu renames a menu.
func (s *Service) UpdateMenu(ctx context.Context, id string, in MenuInput) (MenuDTO, error) {
	mid, err := parseID(id)
	if err != nil {
		return MenuDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return MenuDTO{}, err
	}
	m, err := s.Q.UpdateMenu(ctx, mid, in.Name)
	if err != nil {
		return MenuDTO{}, mapStoreErr(err, "menu")
	}
	return toMenuDTO(m), nil
}

// DeleteMenu removes a menu.
func (s *Service) DeleteMenu(ctx context.Context, id string) error {
	mid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteMenu(ctx, mid); err != nil {
		return mapStoreErr(err, "menu")
	}
	return nil
}

// ParameterInput captures a parameter create/update payload.
type ParameterInput struct {
	Name string `json:"name" validate:"required"`
}

// ParameterDTO is the public parameter payload.
type ParameterDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateParameter stores a parameter key.
func (s *Service) CreateParameter(ctx context.Context, in ParameterInput) (ParameterDTO, error) {
	if err := s.validate(in); err != nil {
		return ParameterDTO{}, err
	}
	p, err := s.Q.CreateParameter(ctx, in.Name)
	if err != nil {
		return ParameterDTO{}, err
	}
	return ParameterDTO{ID: p.ID.String(), Name: p.Name}, nil
}

// GetParameter returns one parameter.
func (s *Service) GetParameter(ctx context.Context, id string) (ParameterDTO, error) {
	pid, err := parseID(id)
	if err != nil {
		return ParameterDTO{}, err
	}
	p, err := s.Q.GetParameter(ctx, pid)
	if err != nil {
		return ParameterDTO{}, mapStoreErr(err, "parameter")
	}
	return ParameterDTO{ID: p.ID.String(), Name: p.Name}, nil
}

// ListParameters returns a page of parameters.
func (s *Service) ListParameters(ctx context.Context, limit, offset int32) ([]ParameterDTO, error) {
	rows, err := s.Q.ListParameters(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]ParameterDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, ParameterDTO{ID: p.ID.String(), Name: p.Name})
	}
	return out, nil
}

// UpdateParameter renames a parameter.
func (s *Service) UpdateParameter(ctx context.Context, id string, in ParameterInput) (ParameterDTO, error) {
	pid, err := parseID(id)
	if err != nil {
		return ParameterDTO{}, err
	}
	if err := s.validate(in); err != nil {
		return ParameterDTO{}, err
	}
	p, err := s.Q.UpdateParameter(ctx, pid, in.Name)
	if err != nil {
		return ParameterDTO{}, mapStoreErr(err, "parameter")
	}
	return ParameterDTO{ID: p.ID.String(), Name: p.Name}, nil
}

// DeleteParameter removes a parameter.
func (s *Service) DeleteParameter(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteParameter(ctx, pid); err != nil {
		return mapStoreErr(err, "parameter")
	}
	return nil
}
