package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/catalog"
)

func newRouter(f *fakeStore) http.Handler {
	r := chi.NewRouter()
	catalog.Handler{Svc: newService(f), DefaultLimit: 20, MaxLimit: 100}.RegisterRoutes(r)
	return r
}

func TestRestaurantEndpoints(t *testing.T) {
	router := newRouter(newFakeStore())

	t.Run("create returns 201", func(t *testing.T) {
		body := `{"name":"Trattoria","address":"Via Roma 1","phoneNumber":"+390612345","description":"Italian","latitude":41.9,"longitude":12.5}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/restaurants", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), "Trattoria")
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/restaurants", strings.NewReader("{")))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "BAD_REQUEST")
	})

	t.Run("missing fields return 422", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/restaurants", strings.NewReader(`{"name":"x"}`)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "VALIDATION")
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants/"+uuid.NewString(), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "NOT_FOUND")
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants/not-a-uuid", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDiscountEndpointRejectsBadPrice(t *testing.T) {
	f := newFakeStore()
	router := newRouter(f)
	dish := seedDish(t, context.Background(), newService(f), "10.00")

	body := `{"dishId":"` + dish.ID + `","startsAt":"2025-06-01T00:00:00Z","endsAt":"2025-06-30T00:00:00Z","price":"12.00","isActive":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discounts", strings.NewReader(body)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}
