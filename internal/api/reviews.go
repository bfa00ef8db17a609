package api

import (
	"net/http"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

// ListShopReviewsHandler handles GET /api/shops/{id}/reviews
func (a *App) ListShopReviewsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	reviews, err := a.Reviews.ListApproved(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, reviews, nil)
}

// CreateReviewHandler handles POST /api/shops/{id}/reviews
func (a *App) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	review, err := a.Reviews.AddReview(r.Context(), auth.CallerFrom(r.Context()), id, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, review)
}

// AdminReviewsHandler handles GET /api/admin/reviews?approved=false
func (a *App) AdminReviewsHandler(w http.ResponseWriter, r *http.Request) {
	approved, err := queryBool(r, "approved")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status := false
	if approved != nil {
		status = *approved
	}

	reviews, err := a.Reviews.ListByStatus(r.Context(), auth.CallerFrom(r.Context()), status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeList(w, reviews, nil)
}

// ApproveReviewHandler handles PATCH /api/admin/reviews/{id}/approve
func (a *App) ApproveReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	review, err := a.Reviews.Approve(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, review)
}

// DeleteReviewHandler handles DELETE /api/admin/reviews/{id}
func (a *App) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.Reviews.Delete(r.Context(), auth.CallerFrom(r.Context()), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
