package model

import (
	"errors"
	"strings"
	"time"
)

// Review is an opinion left by one user on one tour. The pair
// (TourID, UserID) is unique at the database level, which is what enforces
// the one-review-per-user-per-tour rule; the application never pre-checks.
type Review struct {
	ID        uint64    `json:"id"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	TourID    uint64    `json:"tour"`
	UserID    uint64    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks review constraints before persistence.
func (r Review) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Review) == "" {
		problems = append(problems, "a review must contain your opinions")
	}
	if r.Rating < 1 || r.Rating > 5 {
		problems = append(problems, "rating must be between 1 and 5")
	}
	if r.TourID == 0 {
		problems = append(problems, "review must belong to a tour")
	}
	if r.UserID == 0 {
		problems = append(problems, "review must belong to a user")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ". "))
	}
	return nil
}
