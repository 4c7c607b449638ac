package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes the cart service over HTTP.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

// RegisterRoutes mounts the cart endpoints on the router.
func (h Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart-items", func(r chi.Router) {
		r.Post("/", h.createItem)
		r.Get("/", h.listItems)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
	})
	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.createCart)
		r.Get("/", h.listCarts)
		r.Get("/{guid}", h.getCart)
		r.Delete("/{guid}", h.deleteCart)
		r.Post("/{guid}/items/{itemId}", h.addItem)
		r.Delete("/{guid}/items/{itemId}", h.removeItem)
		r.Post("/{guid}/refresh", h.refreshCart)
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

func (h Handler) createCart(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.CreateCart(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getCart(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetCart(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listCarts(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListCarts(r.Context(), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteCart(r.Context(), chi.URLParam(r, "guid")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) addItem(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "guid"), chi.URLParam(r, "itemId"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "guid"), chi.URLParam(r, "itemId"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) refreshCart(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.RefreshCart(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in CartItemInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.CreateCartItem(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func (h Handler) getItem(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.GetCartItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) listItems(w http.ResponseWriter, r *http.Request) {
	p := h.page(r)
	out, err := h.Svc.ListCartItems(r.Context(), int32(p.Limit), p.Offset())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var in CartItemInput
	if !decode(w, r, &in) {
		return
	}
	out, err := h.Svc.UpdateCartItem(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteCartItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
