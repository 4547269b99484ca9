package domain

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "Pending"
	ReviewApproved ReviewStatus = "Approved"
	ReviewRejected ReviewStatus = "Rejected"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ParseReviewStatus accepts the exact status names.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch st := ReviewStatus(s); st {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return st, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("status must be one of: %s, %s, %s", ReviewPending, ReviewApproved, ReviewRejected))
}

// CanTransitionTo reports whether moderation may move a review from s to next.
// Pending moves to either decision. A decision may be repeated: approving an
// approved review recomputes the tool rating and rejecting a rejected review
// is a no-op. Flipping one decision into the other is refused.
func (s ReviewStatus) CanTransitionTo(next ReviewStatus) bool {
	switch next {
	case ReviewApproved:
		return s == ReviewPending || s == ReviewApproved
	case ReviewRejected:
		return s == ReviewPending || s == ReviewRejected
	default:
		return false
	}
}

// Review is a user rating of a tool.
type Review struct {
	ID        int64        `json:"id"`
	ToolID    int64        `json:"tool_id"`
	Rating    int          `json:"rating"`
	Comment   *string      `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ValidateRating checks the 1..5 range.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	return nil
}

// Moderation is the outcome of approving or rejecting a review.
type Moderation struct {
	Review   Review
	Previous ReviewStatus
	// ToolAvgRating is the recomputed rating after an approval, nil otherwise.
	ToolAvgRating *float64
}

// Changed reports whether the review status actually moved.
func (m *Moderation) Changed() bool {
	return m.Previous != m.Review.Status
}

// AverageRating returns sum/count rounded to two decimals, or 0 for no ratings.
func AverageRating(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return RoundRating(float64(sum) / float64(count))
}

// RoundRating rounds half away from zero to two decimals.
func RoundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToolNotFound is returned when a review references a missing tool.
func ToolNotFound(id int64) *apperrors.AppError {
	return apperrors.NotFound("tool", fmt.Sprint(id))
}

// ReviewNotFound is returned when moderating a missing review.
func ReviewNotFound(id int64) *apperrors.AppError {
	return apperrors.NotFound("review", fmt.Sprint(id))
}

// InvalidTransition is returned when moderation would flip a decision.
func InvalidTransition(id int64, from, to ReviewStatus) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("review %d is %s and cannot become %s", id, from, to))
}
