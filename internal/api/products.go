package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
)

// ListProductsHandler handles GET /api/products/all
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	f := services.ProductFilter{
		Q:        r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}

	products, p, err := a.Products.ListAll(r.Context(), auth.CallerFrom(r.Context()), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, products, &p)
}

// GetProductHandler handles GET /api/products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	product, err := a.Products.GetProduct(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

// CreateProductHandler handles POST /api/products
func (a *App) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	product, err := a.Products.CreateProduct(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, product)
}

// UpdateProductHandler handles PATCH /api/products/{id}
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	product, err := a.Products.UpdateProduct(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

// DeleteProductHandler handles DELETE /api/products/{id}
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.Products.DeleteProduct(r.Context(), auth.CallerFrom(r.Context()), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
