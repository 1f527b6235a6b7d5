// Package api exposes a read-only HTTP view of the product store and the
// market registry.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nhuertas/supermercat/markets"
	"github.com/nhuertas/supermercat/storage"
)

// Server represents the HTTP API server over the product store.
type Server struct {
	store    *storage.Store
	registry *markets.Registry
}

// NewServer creates a new API server.
func NewServer(store *storage.Store, registry *markets.Registry) *Server {
	return &Server{
		store:    store,
		registry: registry,
	}
}

// SetupRouter configures the Gin router with the API routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(ctx *gin.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if ctx.Request.Method == "OPTIONS" {
			ctx.AbortWithStatus(http.StatusOK)
			return
		}

		ctx.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/products", s.HandleListProducts)
	api.GET("/products/:id", s.HandleGetProduct)
	api.GET("/products/:id/history", s.HandlePriceHistory)
	api.GET("/stats/cities", s.HandleCityStats)
	api.GET("/stats/stores", s.HandleStoreStats)
	api.GET("/markets", s.HandleListMarkets)

	return router
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleListProducts handles GET /api/v1/products.
func (s *Server) HandleListProducts(ctx *gin.Context) {
	var filter storage.ProductFilter

	if v := ctx.Query("store"); v != "" {
		filter.StoreID = &v
	}
	if v := ctx.Query("city"); v != "" {
		filter.City = &v
	}
	if v := ctx.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := ctx.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse("bad_request", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if v := ctx.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse("bad_request", "offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	products, err := s.store.ListProducts(filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to list products"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// HandleGetProduct handles GET /api/v1/products/:id.
func (s *Server) HandleGetProduct(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid product id"))
		return
	}

	product, err := s.store.GetProductByID(id)
	if errors.Is(err, storage.ErrProductNotFound) {
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "Product not found"))
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve product"))
		return
	}

	ctx.JSON(http.StatusOK, product)
}

// HandlePriceHistory handles GET /api/v1/products/:id/history.
func (s *Server) HandlePriceHistory(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid product id"))
		return
	}

	if _, err := s.store.GetProductByID(id); errors.Is(err, storage.ErrProductNotFound) {
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "Product not found"))
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve product"))
		return
	}

	history, err := s.store.PriceHistory(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve price history"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"product_id": id,
		"history":    history,
	})
}

// HandleCityStats handles GET /api/v1/stats/cities.
func (s *Server) HandleCityStats(ctx *gin.Context) {
	stats, err := s.store.CityStats()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to compute city stats"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cities": stats})
}

// HandleStoreStats handles GET /api/v1/stats/stores.
func (s *Server) HandleStoreStats(ctx *gin.Context) {
	stats, err := s.store.StoreStats()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to compute store stats"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stores": stats})
}

// marketInfo is the capability summary exposed for one market.
type marketInfo struct {
	Name               string   `json:"name"`
	CitySupport        bool     `json:"city_support"`
	Categories         []string `json:"categories"`
	MaxProductsPerCity int      `json:"max_products_per_city,omitempty"`
	MaxProducts        int      `json:"max_products,omitempty"`
}

// HandleListMarkets handles GET /api/v1/markets.
func (s *Server) HandleListMarkets(ctx *gin.Context) {
	names := s.registry.Names()
	infos := make([]marketInfo, 0, len(names))
	for _, name := range names {
		descriptor, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, marketInfo{
			Name:               descriptor.Name,
			CitySupport:        descriptor.CitySupport,
			Categories:         descriptor.Categories,
			MaxProductsPerCity: descriptor.MaxProductsPerCity,
			MaxProducts:        descriptor.MaxProducts,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"markets": infos})
}
