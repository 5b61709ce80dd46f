package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Catalog is the read-only data the stub serves.
type Catalog interface {
	Carts() []json.RawMessage
	ProductsInCategory(category string) []products.Product
	Categories() []string
}

type cartsPage struct {
	Carts []json.RawMessage `json:"carts"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Limit int               `json:"limit"`
}

type productsPage struct {
	Products []products.Product `json:"products"`
	Total    int                `json:"total"`
	Skip     int                `json:"skip"`
	Limit    int                `json:"limit"`
}

// ListCarts serves GET /carts.
func ListCarts(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pagination.FromQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all := catalog.Carts()
		carts := pagination.Page(all, page)
		responses.WriteJSON(w, http.StatusOK, cartsPage{
			Carts: carts,
			Total: len(all),
			Skip:  page.Skip,
			Limit: len(carts),
		})
	}
}

// ProductsByCategory serves GET /products/category/{category}.
func ProductsByCategory(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(chi.URLParam(r, "category"))
		if category == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
			return
		}

		page, err := pagination.FromQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all := catalog.ProductsInCategory(category)
		items := pagination.Page(all, page)
		ctx := logg.WithFields(r.Context(), map[string]any{"category": category, "count": len(items)})
		logg.Debug(ctx, "catalog.category.served")

		responses.WriteJSON(w, http.StatusOK, productsPage{
			Products: items,
			Total:    len(all),
			Skip:     page.Skip,
			Limit:    len(items),
		})
	}
}

// ListCategories serves GET /products/categories.
func ListCategories(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, catalog.Categories())
	}
}
