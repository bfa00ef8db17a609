package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

// ListOffersHandler handles GET /api/offers (active only)
func (a *App) ListOffersHandler(w http.ResponseWriter, r *http.Request) {
	offers, err := a.Offers.ListActive(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, offers, nil)
}

// AdminOffersHandler handles GET /api/admin/offers
func (a *App) AdminOffersHandler(w http.ResponseWriter, r *http.Request) {
	offers, err := a.Offers.ListAll(r.Context(), auth.CallerFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, offers, nil)
}

// CreateOfferHandler handles POST /api/offers
func (a *App) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	offer, err := a.Offers.Create(r.Context(), auth.CallerFrom(r.Context()), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, offer)
}

// UpdateOfferHandler handles PATCH /api/offers/{id}
func (a *App) UpdateOfferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.OfferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	offer, err := a.Offers.Update(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, offer)
}

// DeleteOfferHandler handles DELETE /api/offers/{id}
func (a *App) DeleteOfferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.Offers.Delete(r.Context(), auth.CallerFrom(r.Context()), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
