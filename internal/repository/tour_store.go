package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/query"
)

// tourTable maps the exposed tour fields onto the `tours` table.
var tourTable = Table{
	Name: "tours",
	Fields: []string{
		"id", "name", "slug", "duration", "maxGroupSize", "difficulty",
		"price", "priceDiscount", "ratingsAverage", "ratingsQuantity",
		"summary", "description", "imageCover", "createdAt",
	},
	Columns: map[string]string{
		"id":              "id",
		"name":            "name",
		"slug":            "slug",
		"duration":        "duration",
		"maxGroupSize":    "max_group_size",
		"difficulty":      "difficulty",
		"price":           "price",
		"priceDiscount":   "price_discount",
		"ratingsAverage":  "ratings_average",
		"ratingsQuantity": "ratings_quantity",
		"summary":         "summary",
		"description":     "description",
		"imageCover":      "image_cover",
		"createdAt":       "created_at",
	},
}

// tourUpdatable lists the fields a PATCH may touch. The rating aggregates
// and the slug are derived and never written directly.
var tourUpdatable = map[string]string{
	"name":          "name",
	"duration":      "duration",
	"maxGroupSize":  "max_group_size",
	"difficulty":    "difficulty",
	"price":         "price",
	"priceDiscount": "price_discount",
	"summary":       "summary",
	"description":   "description",
	"imageCover":    "image_cover",
}

// TourStore persists touring packages.
type TourStore struct{ DB *sql.DB }

func NewTourStore(db *sql.DB) *TourStore { return &TourStore{DB: db} }

func scanTour(rows *sql.Rows) (model.Tour, error) {
	var t model.Tour
	var discount sql.NullFloat64
	var descr, cover sql.NullString
	err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize,
		&t.Difficulty, &t.Price, &discount, &t.RatingsAverage,
		&t.RatingsQuantity, &t.Summary, &descr, &cover, &t.CreatedAt)
	if err != nil {
		return model.Tour{}, err
	}
	t.PriceDiscount = discount.Float64
	t.Description = descr.String
	t.ImageCover = cover.String
	return t, nil
}

// FindByID fetches one tour.
func (s *TourStore) FindByID(ctx context.Context, id uint64) (model.Tour, error) {
	var t model.Tour
	var discount sql.NullFloat64
	var descr, cover sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, slug, duration, max_group_size, difficulty, price,
			price_discount, ratings_average, ratings_quantity, summary,
			description, image_cover, created_at
		 FROM tours WHERE id = ? LIMIT 1`, id).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize,
			&t.Difficulty, &t.Price, &discount, &t.RatingsAverage,
			&t.RatingsQuantity, &t.Summary, &descr, &cover, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tour{}, ErrNotFound
	}
	if err != nil {
		return model.Tour{}, err
	}
	t.PriceDiscount = discount.Float64
	t.Description = descr.String
	t.ImageCover = cover.String
	return t, nil
}

// Create validates and inserts a tour, returning the stored document.
func (s *TourStore) Create(ctx context.Context, t model.Tour) (model.Tour, error) {
	if err := t.Validate(); err != nil {
		return model.Tour{}, validationFailed(err)
	}
	t.Slug = model.Slugify(t.Name)
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO tours
			(name, slug, duration, max_group_size, difficulty, price,
			 price_discount, summary, description, image_cover)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty, t.Price,
		nullFloat(t.PriceDiscount), t.Summary, nullStr(t.Description), nullStr(t.ImageCover))
	if err != nil {
		if isDuplicate(err) {
			return model.Tour{}, ErrConflict
		}
		return model.Tour{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tour{}, err
	}
	return s.FindByID(ctx, uint64(id))
}

// UpdateByID applies a partial update. The patch is merged onto the current
// document and the merged document is validated as a whole before the write.
func (s *TourStore) UpdateByID(ctx context.Context, id uint64, patch map[string]any) (model.Tour, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return model.Tour{}, err
	}
	merged, err := mergePatch(current, patch, tourUpdatable)
	if err != nil {
		return model.Tour{}, err
	}
	merged.Slug = model.Slugify(merged.Name)
	if err := merged.Validate(); err != nil {
		return model.Tour{}, validationFailed(err)
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE tours SET name=?, slug=?, duration=?, max_group_size=?,
			difficulty=?, price=?, price_discount=?, summary=?,
			description=?, image_cover=?
		 WHERE id=?`,
		merged.Name, merged.Slug, merged.Duration, merged.MaxGroupSize,
		merged.Difficulty, merged.Price, nullFloat(merged.PriceDiscount),
		merged.Summary, nullStr(merged.Description), nullStr(merged.ImageCover), id)
	if err != nil {
		if isDuplicate(err) {
			return model.Tour{}, ErrConflict
		}
		return model.Tour{}, err
	}
	return s.FindByID(ctx, id)
}

// DeleteByID removes a tour and its reviews (cascade in the schema).
func (s *TourStore) DeleteByID(ctx context.Context, id uint64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAll executes a query spec against the tours table.
func (s *TourStore) FindAll(ctx context.Context, spec query.Spec, scope ...query.Filter) ([]model.Tour, int64, error) {
	return findAll(ctx, s.DB, tourTable, spec, scope, scanTour)
}

// DifficultyStats is one row of the tour aggregate endpoint: counts and
// price/rating figures grouped per difficulty.
type DifficultyStats struct {
	Difficulty   string  `json:"difficulty"`
	TotalTours   int64   `json:"totalTours"`
	TotalRatings int64   `json:"totalRatings"`
	AvgPrice     float64 `json:"avgPrice"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`
	AvgRating    float64 `json:"avgRating"`
}

// Stats aggregates the whole catalogue grouped by difficulty.
func (s *TourStore) Stats(ctx context.Context) ([]DifficultyStats, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT UPPER(difficulty), COUNT(*), COALESCE(SUM(ratings_quantity),0),
			COALESCE(AVG(price),0), COALESCE(MIN(price),0),
			COALESCE(MAX(price),0), COALESCE(AVG(ratings_average),0)
		 FROM tours GROUP BY difficulty ORDER BY AVG(price)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DifficultyStats
	for rows.Next() {
		var st DifficultyStats
		if err := rows.Scan(&st.Difficulty, &st.TotalTours, &st.TotalRatings,
			&st.AvgPrice, &st.MinPrice, &st.MaxPrice, &st.AvgRating); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RecalcRatings recomputes the denormalized rating aggregates of one tour
// from its reviews. Called by the queue consumer after review writes; a tour
// with no reviews falls back to the catalogue defaults.
func (s *TourStore) RecalcRatings(ctx context.Context, tourID uint64) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE tours t
		 LEFT JOIN (SELECT tour_id, COUNT(*) AS qty, AVG(rating) AS avg_rating
			FROM reviews GROUP BY tour_id) r ON r.tour_id = t.id
		 SET t.ratings_quantity = COALESCE(r.qty, 0),
			 t.ratings_average  = COALESCE(ROUND(r.avg_rating, 1), 4.5)
		 WHERE t.id = ?`, tourID)
	return err
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
