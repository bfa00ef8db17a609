package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

var offerColumns = []string{"id", "content", "is_active", "created_at"}

// OfferService handles the market news ticker
type OfferService struct {
	store
}

// NewOfferService creates a new offer service
func NewOfferService(database *db.DB, m *metrics.AppMetrics, logger *zap.Logger) *OfferService {
	return &OfferService{store: newStore(database, m, logger)}
}

func (s *OfferService) list(ctx context.Context, activeOnly bool) ([]models.Offer, error) {
	b := QB.Select(offerColumns...).From("offers").OrderBy("created_at DESC", "id DESC")
	if activeOnly {
		b = b.Where(squirrel.Eq{"is_active": true})
	}
	offers := []models.Offer{}
	if err := s.selectAll(ctx, s.db, &offers, "offers", b); err != nil {
		return nil, apperr.Wrapf("offers.List", err, "failed to list offers")
	}
	return offers, nil
}

// ListActive returns active offers, newest first
func (s *OfferService) ListActive(ctx context.Context) ([]models.Offer, error) {
	offers, err := s.list(ctx, true)
	if err != nil {
		return nil, err
	}
	s.metrics.ActiveOffers.Record(ctx, int64(len(offers)), metric.WithAttributes(s.metrics.WithServiceName(nil)...))
	return offers, nil
}

// ListAll returns every offer for the admin screen
func (s *OfferService) ListAll(ctx context.Context, caller *policy.Caller) ([]models.Offer, error) {
	if err := policy.RequireAdmin("offers.ListAll", caller); err != nil {
		return nil, err
	}
	return s.list(ctx, false)
}

func (s *OfferService) load(ctx context.Context, op string, id int64) (*models.Offer, error) {
	var o models.Offer
	err := s.get(ctx, s.db, &o, "offers", QB.Select(offerColumns...).From("offers").Where(squirrel.Eq{"id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "offer")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get offer")
	}
	return &o, nil
}

// Create adds an offer; it is active unless stated otherwise
func (s *OfferService) Create(ctx context.Context, caller *policy.Caller, req models.OfferRequest) (*models.Offer, error) {
	const op = "offers.Create"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}
	if req.Content == nil || blank(*req.Content) {
		return nil, apperr.Validation(op, map[string]string{"content": "is required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	id, err := s.insert(ctx, s.db, "offers", QB.Insert("offers").
		Columns("content", "is_active").
		Values(strings.TrimSpace(*req.Content), active))
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to create offer")
	}
	return s.load(ctx, op, id)
}

// Update changes content and/or the active flag
func (s *OfferService) Update(ctx context.Context, caller *policy.Caller, id int64, req models.OfferRequest) (*models.Offer, error) {
	const op = "offers.Update"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}
	offer, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	set := map[string]any{}
	if req.Content != nil {
		if blank(*req.Content) {
			return nil, apperr.Validation(op, map[string]string{"content": "cannot be empty"})
		}
		set["content"] = strings.TrimSpace(*req.Content)
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}
	if len(set) == 0 {
		return offer, nil
	}

	if _, err := s.exec(ctx, s.db, "UPDATE", "offers", QB.Update("offers").SetMap(set).Where(squirrel.Eq{"id": id})); err != nil {
		return nil, apperr.Wrapf(op, err, "failed to update offer")
	}
	return s.load(ctx, op, id)
}

// Delete removes an offer
func (s *OfferService) Delete(ctx context.Context, caller *policy.Caller, id int64) error {
	const op = "offers.Delete"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return err
	}
	if _, err := s.load(ctx, op, id); err != nil {
		return err
	}
	if _, err := s.exec(ctx, s.db, "DELETE", "offers", QB.Delete("offers").Where(squirrel.Eq{"id": id})); err != nil {
		return apperr.Wrapf(op, err, "failed to delete offer")
	}
	return nil
}
