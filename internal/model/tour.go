package model

import (
	"errors"
	"strings"
	"time"
)

// Difficulty levels a tour can advertise.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour represents a touring package as stored in the `tours` table.
// RatingsAverage and RatingsQuantity are derived values: they are recomputed
// asynchronously from the reviews table whenever a review is written, so
// writes to them never come through the public API.
type Tour struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Duration        int       `json:"duration"`
	MaxGroupSize    int       `json:"maxGroupSize"`
	Difficulty      string    `json:"difficulty"`
	Price           float64   `json:"price"`
	PriceDiscount   float64   `json:"priceDiscount,omitempty"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	Summary         string    `json:"summary"`
	Description     string    `json:"description,omitempty"`
	ImageCover      string    `json:"imageCover,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate checks the field constraints that must hold before a tour is
// persisted. All violations are collected so the caller can surface a single
// aggregated message.
func (t Tour) Validate() error {
	var problems []string
	name := strings.TrimSpace(t.Name)
	if name == "" {
		problems = append(problems, "a tour must have a name")
	}
	if t.Duration <= 0 {
		problems = append(problems, "a tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		problems = append(problems, "a tour must have a group size")
	}
	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
	default:
		problems = append(problems, "difficulty should be either: easy, medium, difficult")
	}
	if t.Price <= 0 {
		problems = append(problems, "a tour must have a price")
	}
	if t.PriceDiscount != 0 && t.PriceDiscount >= t.Price {
		problems = append(problems, "discount price should be less than the regular price")
	}
	if strings.TrimSpace(t.Summary) == "" {
		problems = append(problems, "a tour must have a summary")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ". "))
	}
	return nil
}

// Slugify derives the URL slug from a tour name: lower case, spaces
// collapsed to single hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}
