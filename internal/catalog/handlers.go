package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the catalog service over HTTP.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

// RegisterRoutes mounts the catalog endpoints on the router.
func (h Handler) RegisterRoutes(r chi.Router) {
	r.Route("/restaurants", func(r chi.Router) {
		r.Post("/", h.createRestaurant)
		r.Get("/", h.listRestaurants)
		r.Get("/{id}", h.getRestaurant)
		r.Put("/{id}", h.updateRestaurant)
		r.Delete("/{id}", h.deleteRestaurant)
	})
	r.Route("/menus", func(r chi.Router) {
		r.Post("/", h.createMenu)
		r.Get("/", h.listMenus)
		r.Get("/{id}", h.getMenu)
		r.Put("/{id}", h.updateMenu)
		r.Delete("/{id}", h.deleteMenu)
	})
	r.Route("/parameters", func(r chi.Router) {
		r.Post("/", h.createParameter)
		r.Get("/", h.listParameters)
		r.Get("/{id}", h.getParameter)
		r.Put("/{id}", h.updateParameter)
		r.Delete("/{id}", h.deleteParameter)
	})
	r.Route("/dishes", func(r chi.Router) {
		r.Post("/", h.createDish)
		r.Get("/", h.listDishes)
		r.Get("/{id}", h.getDish)
		r.Put("/{id}", h.updateDish)
		r.Delete("/{id}", h.deleteDish)
		r.Post("/{id}/parameters", h.createDishParameter)
		r.Get("/{id}/parameters", h.listDishParameters)
	})
	r.Delete("/dish-parameters/{id}", h.deleteDishParameter)
	r.Route("/discounts", func(r chi.Router) {
		r.Post("/", h.createDiscount)
		r.Get("/", h.listDiscounts)
		r.Get("/{id}", h.getDiscount)
		r.Put("/{id}", h.updateDiscount)
		r.Delete("/{id}", h.deleteDiscount)
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return false
	}
	return true
}

func (h Handler) page(r *http.Request) common.Pagination {
	return common.ParsePagination(r, h.DefaultLimit, h.MaxLimit)
}

func (h Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var in RestaurantInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateRestaurant(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetRestaurant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListRestaurants(r.Context(), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in RestaurantInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateRestaurant(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteRestaurant(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) createMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateMenu(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetMenu(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listMenus(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListMenus(r.Context(), r.URL.Query().Get("restaurantId"), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateMenu(w http.ResponseWriter, r *http.Request) {
	var in MenuInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateMenu(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteMenu(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) createParameter(w http.ResponseWriter, r *http.Request) {
	var in ParameterInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateParameter(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getParameter(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetParameter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listParameters(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListParameters(r.Context(), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateParameter(w http.ResponseWriter, r *http.Request) {
	var in ParameterInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateParameter(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteParameter(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteParameter(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) createDish(w http.ResponseWriter, r *http.Request) {
	var in DishInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateDish(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getDish(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetDish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listDishes(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListDishes(r.Context(), r.URL.Query().Get("menuId"), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateDish(w http.ResponseWriter, r *http.Request) {
	var in DishInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateDish(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteDish(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteDish(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) createDishParameter(w http.ResponseWriter, r *http.Request) {
	var in DishParameterInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateDishParameter(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) listDishParameters(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.ListDishParameters(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteDishParameter(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteDishParameter(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var in DiscountInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateDiscount(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetDiscount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListDiscounts(r.Context(), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	var in DiscountInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateDiscount(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteDiscount(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
