package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/event"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/repository"
	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

var reviewsModerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_moderated_total",
		Help: "Review moderation decisions, by decision and whether the status changed.",
	},
	[]string{"decision", "changed"},
)

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	ToolID  int64
	Rating  int
	Comment *string
}

// ReviewService implements review submission and moderation.
type ReviewService struct {
	repo     repository.ReviewRepository
	cache    ToolCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service. cache may be nil; when set,
// approvals invalidate cached tool listings.
func NewReviewService(repo repository.ReviewRepository, cache ToolCache, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// Submit stores a Pending review for an existing tool.
func (s *ReviewService) Submit(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	if input.ToolID <= 0 {
		return nil, apperrors.InvalidInput("tool_id must be a positive integer")
	}
	if err := domain.ValidateRating(input.Rating); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ToolID:  input.ToolID,
		Rating:  input.Rating,
		Comment: normalizeComment(input.Comment),
		Status:  domain.ReviewPending,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.Int64("review_id", review.ID),
		slog.Int64("tool_id", review.ToolID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// List returns all reviews, or only those in status when it is set.
func (s *ReviewService) List(ctx context.Context, status *domain.ReviewStatus) ([]domain.Review, error) {
	reviews, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Approve marks a review Approved and recomputes its tool's average rating.
func (s *ReviewService) Approve(ctx context.Context, id int64) (*domain.Moderation, error) {
	return s.moderate(ctx, id, domain.ReviewApproved)
}

// Reject marks a review Rejected. The tool rating is not touched.
func (s *ReviewService) Reject(ctx context.Context, id int64) (*domain.Moderation, error) {
	return s.moderate(ctx, id, domain.ReviewRejected)
}

func (s *ReviewService) moderate(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Moderation, error) {
	m, err := s.repo.Moderate(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	decision := strings.ToLower(string(status))
	reviewsModerated.WithLabelValues(decision, fmt.Sprint(m.Changed())).Inc()

	if status == domain.ReviewApproved {
		invalidateToolLists(ctx, s.cache, s.logger)
	}

	if m.Changed() {
		if err := s.producer.PublishReviewModerated(ctx, m); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review moderation event",
				slog.Int64("review_id", id),
				slog.String("status", string(status)),
				slog.String("error", err.Error()),
			)
		}
	}

	attrs := []any{
		slog.Int64("review_id", id),
		slog.Int64("tool_id", m.Review.ToolID),
		slog.String("previous_status", string(m.Previous)),
	}
	if m.ToolAvgRating != nil {
		attrs = append(attrs, slog.Float64("tool_avg_rating", *m.ToolAvgRating))
	}
	s.logger.InfoContext(ctx, "review "+decision, attrs...)

	return m, nil
}

func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
