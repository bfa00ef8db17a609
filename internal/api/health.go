package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

// HealthHandler handles GET /api/health
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Warn("health check: database unreachable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CategoriesHandler handles GET /api/categories
func (a *App) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeList(w, models.Categories, nil)
}
