package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nhuertas/supermercat/markets"
	"github.com/nhuertas/supermercat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test helper: create a test API server over a fresh store
func setupTestServer(t *testing.T) (*gin.Engine, *storage.Store) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := markets.NewRegistry()
	require.NoError(t, registry.Register(markets.Descriptor{
		Name:               "carrefour",
		CitySupport:        true,
		Categories:         []string{"alimentacion"},
		MaxProductsPerCity: 40,
		Entry: markets.EntryPoint{
			Cities: func(ctx context.Context, cities []string, maxPerCity int) (int, error) { return 0, nil },
		},
	}))
	require.NoError(t, registry.Register(markets.Descriptor{
		Name:        "lidl",
		Categories:  []string{"alimentacion"},
		MaxProducts: 80,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) { return 0, nil },
		},
	}))

	return NewServer(store, registry).SetupRouter(), store
}

func insertProduct(t *testing.T, store *storage.Store, name, storeID string, city *string, price float64) uuid.UUID {
	id, _, err := store.UpsertProduct(storage.NewProduct{
		Name:     name,
		Price:    price,
		Category: "alimentacion",
		StoreID:  storeID,
		City:     city,
	})
	require.NoError(t, err)
	return id
}

func performRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListProducts_FiltersByStoreAndCity(t *testing.T) {
	router, store := setupTestServer(t)
	madrid := "Madrid"
	insertProduct(t, store, "Leche entera", "carrefour", &madrid, 0.89)
	insertProduct(t, store, "Pasta 500g", "lidl", nil, 1.05)

	w := performRequest(router, http.MethodGet, "/api/v1/products?store=carrefour&city=Madrid")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products []storage.Product `json:"products"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Leche entera", body.Products[0].Name)
}

func TestListProducts_RejectsBadLimit(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodGet, "/api/v1/products?limit=muchos")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestGetProduct_ByID(t *testing.T) {
	router, store := setupTestServer(t)
	id := insertProduct(t, store, "Leche entera", "carrefour", nil, 0.89)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/products/%s", id))
	require.Equal(t, http.StatusOK, w.Code)

	var product storage.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, id, product.ID)
}

func TestGetProduct_NotFound(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/products/%s", uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestGetProduct_InvalidID(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodGet, "/api/v1/products/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPriceHistory_TracksChanges(t *testing.T) {
	router, store := setupTestServer(t)
	id := insertProduct(t, store, "Leche entera", "carrefour", nil, 0.89)
	insertProduct(t, store, "Leche entera", "carrefour", nil, 0.95)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/history", id))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		History []storage.PricePoint `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.History, 2)
}

func TestPriceHistory_UnknownProduct(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/history", uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats_ByCityAndStore(t *testing.T) {
	router, store := setupTestServer(t)
	madrid := "Madrid"
	valencia := "Valencia"
	insertProduct(t, store, "Leche entera", "carrefour", &madrid, 0.89)
	insertProduct(t, store, "Aceite de oliva", "carrefour", &valencia, 7.95)
	insertProduct(t, store, "Pasta 500g", "lidl", nil, 1.05)

	w := performRequest(router, http.MethodGet, "/api/v1/stats/cities")
	require.Equal(t, http.StatusOK, w.Code)
	var cityBody struct {
		Cities map[string]int `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cityBody))
	assert.Equal(t, 1, cityBody.Cities["Madrid"])

	w = performRequest(router, http.MethodGet, "/api/v1/stats/stores")
	require.Equal(t, http.StatusOK, w.Code)
	var storeBody struct {
		Stores map[string]int `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &storeBody))
	assert.Equal(t, 2, storeBody.Stores["carrefour"])
}

func TestListMarkets_ReportsCapabilities(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodGet, "/api/v1/markets")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Markets []marketInfo `json:"markets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Markets, 2)
	assert.Equal(t, "carrefour", body.Markets[0].Name)
	assert.True(t, body.Markets[0].CitySupport)
	assert.Equal(t, 80, body.Markets[1].MaxProducts)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestServer(t)

	w := performRequest(router, http.MethodOptions, "/api/v1/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
