package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

var reviewColumns = []string{"id", "shop_id", "name", "rating", "comment", "approved", "created_at"}

// ReviewService handles shop reviews. Reviews stay hidden until an admin approves them.
type ReviewService struct {
	store
	shops *ShopService
}

// NewReviewService creates a new review service
func NewReviewService(database *db.DB, m *metrics.AppMetrics, shops *ShopService, logger *zap.Logger) *ReviewService {
	return &ReviewService{store: newStore(database, m, logger), shops: shops}
}

// AddReview records a pending review for a shop the caller can see.
func (s *ReviewService) AddReview(ctx context.Context, caller *policy.Caller, shopID int64, req models.CreateReviewRequest) (*models.Review, error) {
	const op = "reviews.Add"
	if _, err := s.shops.GetShop(ctx, caller, shopID); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if blank(req.Name) {
		fields["name"] = "is required"
	}
	if req.Rating < 1 || req.Rating > 5 {
		fields["rating"] = "must be between 1 and 5"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(op, fields)
	}

	id, err := s.insert(ctx, s.db, "reviews", QB.Insert("reviews").
		Columns("shop_id", "name", "rating", "comment", "approved").
		Values(shopID, strings.TrimSpace(req.Name), req.Rating, strings.TrimSpace(req.Comment), false))
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to add review")
	}
	return s.load(ctx, s.db, op, id)
}

func (s *ReviewService) load(ctx context.Context, q queryer, op string, id int64) (*models.Review, error) {
	var r models.Review
	err := s.get(ctx, q, &r, "reviews", QB.Select(reviewColumns...).From("reviews").Where(squirrel.Eq{"id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "review")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get review")
	}
	return &r, nil
}

// ListApproved returns a shop's published reviews, newest first.
func (s *ReviewService) ListApproved(ctx context.Context, caller *policy.Caller, shopID int64) ([]models.Review, error) {
	if _, err := s.shops.GetShop(ctx, caller, shopID); err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	if err := s.selectAll(ctx, s.db, &reviews, "reviews", QB.Select(reviewColumns...).From("reviews").
		Where(squirrel.Eq{"shop_id": shopID, "approved": true}).
		OrderBy("created_at DESC", "id DESC")); err != nil {
		return nil, apperr.Wrapf("reviews.ListApproved", err, "failed to list reviews")
	}
	return reviews, nil
}

// ListByStatus is the admin moderation queue.
func (s *ReviewService) ListByStatus(ctx context.Context, caller *policy.Caller, approved bool) ([]models.Review, error) {
	const op = "reviews.ListByStatus"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	if err := s.selectAll(ctx, s.db, &reviews, "reviews", QB.Select(reviewColumns...).From("reviews").
		Where(squirrel.Eq{"approved": approved}).
		OrderBy("created_at DESC", "id DESC")); err != nil {
		return nil, apperr.Wrapf(op, err, "failed to list reviews")
	}
	return reviews, nil
}

// Approve publishes a review and refreshes the shop's rating.
func (s *ReviewService) Approve(ctx context.Context, caller *policy.Caller, id int64) (*models.Review, error) {
	const op = "reviews.Approve"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		r, err := s.load(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, "UPDATE", "reviews", QB.Update("reviews").
			Set("approved", true).Where(squirrel.Eq{"id": id})); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, r.ShopID); err != nil {
			return err
		}
		review, err = s.load(ctx, tx, op, id)
		return err
	})
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to approve review")
	}
	return review, nil
}

// Delete removes a review and refreshes the shop's rating.
func (s *ReviewService) Delete(ctx context.Context, caller *policy.Caller, id int64) error {
	const op = "reviews.Delete"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return err
	}

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		r, err := s.load(ctx, tx, op, id)
		if err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, "DELETE", "reviews", QB.Delete("reviews").Where(squirrel.Eq{"id": id})); err != nil {
			return err
		}
		return s.recompute(ctx, tx, r.ShopID)
	})
	return apperr.Wrapf(op, err, "failed to delete review")
}

// recompute derives review_count, avg_rating and rating from approved reviews.
func (s *ReviewService) recompute(ctx context.Context, tx *sqlx.Tx, shopID int64) error {
	var stats struct {
		Count int     `db:"review_count"`
		Avg   float64 `db:"avg_rating"`
	}
	if err := s.get(ctx, tx, &stats, "reviews", QB.
		Select("COUNT(*) AS review_count", "COALESCE(AVG(rating), 0) AS avg_rating").
		From("reviews").
		Where(squirrel.Eq{"shop_id": shopID, "approved": true})); err != nil {
		return err
	}

	avg := math.Round(stats.Avg*10) / 10
	_, err := s.exec(ctx, tx, "UPDATE", "shops", QB.Update("shops").
		Set("review_count", stats.Count).
		Set("avg_rating", avg).
		Set("rating", avg).
		Where(squirrel.Eq{"id": shopID}))
	return err
}
