package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/query"
)

var reviewTable = Table{
	Name:   "reviews",
	Fields: []string{"id", "review", "rating", "tour", "user", "createdAt"},
	Columns: map[string]string{
		"id":        "id",
		"review":    "review",
		"rating":    "rating",
		"tour":      "tour_id",
		"user":      "user_id",
		"createdAt": "created_at",
	},
}

// Only the text and the rating may change after a review exists; it can
// never be moved to another tour or user.
var reviewUpdatable = map[string]string{
	"review": "review",
	"rating": "rating",
}

// ReviewStore persists reviews. The UNIQUE(tour_id, user_id) key in the
// schema is what enforces one review per user per tour; the store only
// translates the violation into ErrDuplicateReview.
type ReviewStore struct{ DB *sql.DB }

func NewReviewStore(db *sql.DB) *ReviewStore { return &ReviewStore{DB: db} }

func scanReview(rows *sql.Rows) (model.Review, error) {
	var r model.Review
	err := rows.Scan(&r.ID, &r.Review, &r.Rating, &r.TourID, &r.UserID, &r.CreatedAt)
	return r, err
}

func (s *ReviewStore) FindByID(ctx context.Context, id uint64) (model.Review, error) {
	var r model.Review
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, review, rating, tour_id, user_id, created_at
		 FROM reviews WHERE id = ? LIMIT 1`, id).
		Scan(&r.ID, &r.Review, &r.Rating, &r.TourID, &r.UserID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return r, err
}

func (s *ReviewStore) Create(ctx context.Context, r model.Review) (model.Review, error) {
	if err := r.Validate(); err != nil {
		return model.Review{}, validationFailed(err)
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO reviews (review, rating, tour_id, user_id) VALUES (?,?,?,?)",
		r.Review, r.Rating, r.TourID, r.UserID)
	if err != nil {
		if isDuplicate(err) {
			return model.Review{}, ErrDuplicateReview
		}
		// the FK constraint rejected the insert: the tour does not exist
		// (the user is the authenticated principal and always does)
		if isForeignKey(err) {
			return model.Review{}, fmt.Errorf("%w: no tour with that id", ErrNotFound)
		}
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return s.FindByID(ctx, uint64(id))
}

func (s *ReviewStore) UpdateByID(ctx context.Context, id uint64, patch map[string]any) (model.Review, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	merged, err := mergePatch(current, patch, reviewUpdatable)
	if err != nil {
		return model.Review{}, err
	}
	if err := merged.Validate(); err != nil {
		return model.Review{}, validationFailed(err)
	}
	_, err = s.DB.ExecContext(ctx,
		"UPDATE reviews SET review = ?, rating = ? WHERE id = ?",
		merged.Review, merged.Rating, id)
	if err != nil {
		return model.Review{}, err
	}
	return s.FindByID(ctx, id)
}

func (s *ReviewStore) DeleteByID(ctx context.Context, id uint64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewStore) FindAll(ctx context.Context, spec query.Spec, scope ...query.Filter) ([]model.Review, int64, error) {
	return findAll(ctx, s.DB, reviewTable, spec, scope, scanReview)
}
