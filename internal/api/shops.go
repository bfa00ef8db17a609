package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
)

func shopFilter(r *http.Request) (services.ShopFilter, error) {
	q := r.URL.Query()
	approved, err := queryBool(r, "approved")
	if err != nil {
		return services.ShopFilter{}, err
	}
	return services.ShopFilter{
		Q:        q.Get("q"),
		Category: q.Get("category"),
		Approved: approved,
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}, nil
}

// ListShopsHandler handles GET /api/shops
func (a *App) ListShopsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := shopFilter(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	shops, p, err := a.Shops.ListShops(r.Context(), auth.CallerFrom(r.Context()), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, shops, &p)
}

// GetShopHandler handles GET /api/shops/{id}
func (a *App) GetShopHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.GetShop(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, shop)
}

// CreateShopHandler handles POST /api/shops
func (a *App) CreateShopHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.CreateShop(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, shop)
}

// ApplySellerHandler handles POST /api/seller/apply
func (a *App) ApplySellerHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.ApplyAsSeller(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, shop)
}

// UpdateShopHandler handles PATCH /api/shops/{id}
func (a *App) UpdateShopHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.UpdateShopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.UpdateShop(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, shop)
}

// DeleteShopHandler handles DELETE /api/shops/{id}
func (a *App) DeleteShopHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.Shops.DeleteShop(r.Context(), auth.CallerFrom(r.Context()), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveShopHandler handles PATCH /api/shops/{id}/approve and /unapprove
func (a *App) ApproveShopHandler(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		shop, err := a.Shops.Approve(r.Context(), auth.CallerFrom(r.Context()), id, approved)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, shop)
	}
}

// VerifyShopHandler handles PATCH /api/shops/{id}/verify
func (a *App) VerifyShopHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.VerifyShopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.Verify(r.Context(), auth.CallerFrom(r.Context()), id, req.OwnerID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, shop)
}

// PartnerShopHandler handles GET /api/partner/shop/{ownerId}
func (a *App) PartnerShopHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "ownerId")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	shop, err := a.Shops.GetShopByOwner(r.Context(), auth.CallerFrom(r.Context()), ownerID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, shop)
}

// ListShopProductsHandler handles GET /api/shops/{id}/products
func (a *App) ListShopProductsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	products, err := a.Products.ListByShop(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, products, nil)
}
