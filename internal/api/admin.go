package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
)

// AdminShopsHandler handles GET /api/admin/shops
func (a *App) AdminShopsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := shopFilter(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	shops, p, err := a.Shops.ListAllShops(r.Context(), auth.CallerFrom(r.Context()), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, shops, &p)
}
