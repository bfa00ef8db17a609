package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

var uploadFolders = map[string]bool{"products": true, "shops": true}

// saveUpload stores the "image" form file and returns its public URL.
func (a *App) saveUpload(w http.ResponseWriter, r *http.Request, folder string) (string, error) {
	const op = "api.upload"

	// multipart overhead on top of the image itself
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(a.config.MaxUploadBytes); err != nil {
		return "", apperr.Validation(op, map[string]string{"image": "upload is too large or malformed"})
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		return "", apperr.Validation(op, map[string]string{"image": "is required"})
	}
	defer file.Close()

	return a.Images.Save(r.Context(), file, header.Filename, folder)
}

// UploadImageHandler handles POST /api/uploads
func (a *App) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	if err := policy.RequireCaller("api.upload", auth.CallerFrom(r.Context())); err != nil {
		a.writeError(w, r, err)
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "products"
	}
	if !uploadFolders[folder] {
		a.writeError(w, r, apperr.Validation("api.upload", map[string]string{"folder": "must be products or shops"}))
		return
	}

	url, err := a.saveUpload(w, r, folder)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"url": url})
}

// UploadShopImageHandler handles POST /api/shops/{id}/image
func (a *App) UploadShopImageHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.shopImage"
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	caller := auth.CallerFrom(r.Context())

	shop, err := a.Shops.GetShop(r.Context(), caller, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := policy.CanMutate(op, caller, shop.OwnerID); err != nil {
		a.writeError(w, r, err)
		return
	}

	url, err := a.saveUpload(w, r, "shops")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	updated, err := a.Shops.UpdateShop(r.Context(), caller, id, models.UpdateShopRequest{Image: &url})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}
