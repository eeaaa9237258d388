// Package queue defines message payloads exchanged over the message broker
// and the background consumer that applies them.
package queue

// ReviewWrittenEvent is published whenever a review is created, updated or
// deleted. The consumer only needs the tour id to recompute that tour's
// rating aggregates; the rest is context for logging and analytics.
type ReviewWrittenEvent struct {
	TourID     uint64 `json:"tour_id"`
	ReviewID   uint64 `json:"review_id"`
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"` // created | updated | deleted
	OccurredAt string `json:"occurred_at"`
}
