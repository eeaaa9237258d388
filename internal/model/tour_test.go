package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTour() Tour {
	return Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
	}
}

func TestTourValidate(t *testing.T) {
	assert.NoError(t, validTour().Validate())
}

func TestTourValidateCollectsAllProblems(t *testing.T) {
	err := Tour{}.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "a tour must have a name")
	assert.Contains(t, msg, "a tour must have a duration")
	assert.Contains(t, msg, "a tour must have a group size")
	assert.Contains(t, msg, "difficulty should be either: easy, medium, difficult")
	assert.Contains(t, msg, "a tour must have a price")
	assert.Contains(t, msg, "a tour must have a summary")
}

func TestTourValidateDiscountBelowPrice(t *testing.T) {
	tr := validTour()
	tr.PriceDiscount = tr.Price
	err := tr.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount price should be less than the regular price")

	tr.PriceDiscount = tr.Price - 1
	assert.NoError(t, tr.Validate())
}

func TestTourValidateDifficulty(t *testing.T) {
	tr := validTour()
	for _, d := range []string{DifficultyEasy, DifficultyMedium, DifficultyDifficult} {
		tr.Difficulty = d
		assert.NoError(t, tr.Validate(), d)
	}
	tr.Difficulty = "extreme"
	assert.Error(t, tr.Validate())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-forest-hiker", Slugify("The Forest Hiker"))
	assert.Equal(t, "the-forest-hiker", Slugify("  The   Forest  Hiker "))
	assert.Equal(t, "", Slugify("   "))
}

func TestReviewValidate(t *testing.T) {
	r := Review{Review: "Loved it", Rating: 5, TourID: 1, UserID: 2}
	assert.NoError(t, r.Validate())
}

func TestReviewValidateRatingBounds(t *testing.T) {
	r := Review{Review: "ok", TourID: 1, UserID: 2}
	for _, rating := range []int{0, 6, -1} {
		r.Rating = rating
		err := r.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rating must be between 1 and 5")
	}
	for rating := 1; rating <= 5; rating++ {
		r.Rating = rating
		assert.NoError(t, r.Validate())
	}
}

func TestReviewValidateOwnership(t *testing.T) {
	err := Review{Review: "ok", Rating: 3}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review must belong to a tour")
	assert.Contains(t, err.Error(), "review must belong to a user")
}
