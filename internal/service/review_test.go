package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/event"
	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

// ============================================================================
// Submit
// ============================================================================

func TestReviewService_Submit_Success(t *testing.T) {
	repo := new(mockReviewRepository)
	producer, pub := newTestProducer()
	svc := NewReviewService(repo, nil, producer, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ToolID == 1 && r.Rating == 5 && r.Status == domain.ReviewPending && *r.Comment == "Great"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Review).ID = 10
	}).Return(nil)

	review, err := svc.Submit(ctx, SubmitReviewInput{ToolID: 1, Rating: 5, Comment: strPtr("  Great ")})
	require.NoError(t, err)
	assert.Equal(t, int64(10), review.ID)
	assert.Equal(t, domain.ReviewPending, review.Status)
	assert.Equal(t, []string{event.TopicReviewSubmitted}, pub.Topics())
	repo.AssertExpectations(t)
}

func TestReviewService_Submit_BlankCommentBecomesNil(t *testing.T) {
	repo := new(mockReviewRepository)
	producer, _ := newTestProducer()
	svc := NewReviewService(repo, nil, producer, newTestLogger())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Comment == nil
	})).Return(nil)

	_, err := svc.Submit(context.Background(), SubmitReviewInput{ToolID: 1, Rating: 3, Comment: strPtr("   ")})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReviewService_Submit_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input SubmitReviewInput
	}{
		{"rating zero", SubmitReviewInput{ToolID: 1, Rating: 0}},
		{"rating six", SubmitReviewInput{ToolID: 1, Rating: 6}},
		{"tool id zero", SubmitReviewInput{ToolID: 0, Rating: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockReviewRepository)
			producer, pub := newTestProducer()
			svc := NewReviewService(repo, nil, producer, newTestLogger())

			_, err := svc.Submit(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, pub.Topics())
		})
	}
}

func TestReviewService_Submit_UnknownTool(t *testing.T) {
	repo := new(mockReviewRepository)
	producer, pub := newTestProducer()
	svc := NewReviewService(repo, nil, producer, newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ToolNotFound(404))

	_, err := svc.Submit(context.Background(), SubmitReviewInput{ToolID: 404, Rating: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
	assert.Empty(t, pub.Topics())
}

// ============================================================================
// List
// ============================================================================

func TestReviewService_List(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, nil, event.NewProducer(nil, newTestLogger()), newTestLogger())

	pending := domain.ReviewPending
	repo.On("List", mock.Anything, &pending).Return([]domain.Review{{ID: 1, Status: pending}}, nil)
	repo.On("List", mock.Anything, (*domain.ReviewStatus)(nil)).Return(nil, errors.New("connection refused"))

	reviews, err := svc.List(context.Background(), &pending)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	_, err = svc.List(context.Background(), nil)
	assert.Error(t, err)
}

// ============================================================================
// Moderation
// ============================================================================

func TestReviewService_Approve(t *testing.T) {
	repo := new(mockReviewRepository)
	cache := new(mockToolCache)
	producer, pub := newTestProducer()
	svc := NewReviewService(repo, cache, producer, newTestLogger())
	ctx := context.Background()

	avg := 4.0
	repo.On("Moderate", ctx, int64(10), domain.ReviewApproved).Return(&domain.Moderation{
		Review:        domain.Review{ID: 10, ToolID: 1, Rating: 4, Status: domain.ReviewApproved},
		Previous:      domain.ReviewPending,
		ToolAvgRating: &avg,
	}, nil)
	cache.On("Invalidate", ctx).Return(nil)

	before := testutil.ToFloat64(reviewsModerated.WithLabelValues("approved", "true"))

	m, err := svc.Approve(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 4.0, *m.ToolAvgRating)
	assert.Equal(t, []string{event.TopicReviewApproved}, pub.Topics())
	assert.Equal(t, before+1, testutil.ToFloat64(reviewsModerated.WithLabelValues("approved", "true")))
	cache.AssertExpectations(t)
}

func TestReviewService_Reapprove_NoEventButInvalidates(t *testing.T) {
	repo := new(mockReviewRepository)
	cache := new(mockToolCache)
	producer, pub := newTestProducer()
	svc := NewReviewService(repo, cache, producer, newTestLogger())

	avg := 4.0
	repo.On("Moderate", mock.Anything, int64(10), domain.ReviewApproved).Return(&domain.Moderation{
		Review:        domain.Review{ID: 10, ToolID: 1, Status: domain.ReviewApproved},
		Previous:      domain.ReviewApproved,
		ToolAvgRating: &avg,
	}, nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	_, err := svc.Approve(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pub.Topics())
	cache.AssertExpectations(t)
}

func TestReviewService_Reject_DoesNotInvalidate(t *testing.T) {
	repo := new(mockReviewRepository)
	cache := new(mockToolCache)
	producer, pub := newTestProducer()
	svc := NewReviewService(repo, cache, producer, newTestLogger())

	repo.On("Moderate", mock.Anything, int64(11), domain.ReviewRejected).Return(&domain.Moderation{
		Review:   domain.Review{ID: 11, ToolID: 1, Status: domain.ReviewRejected},
		Previous: domain.ReviewPending,
	}, nil)

	before := testutil.ToFloat64(reviewsModerated.WithLabelValues("rejected", "true"))

	m, err := svc.Reject(context.Background(), 11)
	require.NoError(t, err)
	assert.Nil(t, m.ToolAvgRating)
	assert.Equal(t, []string{event.TopicReviewRejected}, pub.Topics())
	assert.Equal(t, before+1, testutil.ToFloat64(reviewsModerated.WithLabelValues("rejected", "true")))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestReviewService_Moderate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"not found", domain.ReviewNotFound(404), apperrors.ErrNotFound},
		{"cross transition", domain.InvalidTransition(5, domain.ReviewRejected, domain.ReviewApproved), apperrors.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockReviewRepository)
			producer, pub := newTestProducer()
			svc := NewReviewService(repo, nil, producer, newTestLogger())

			repo.On("Moderate", mock.Anything, mock.Anything, domain.ReviewApproved).Return(nil, tt.err)

			_, err := svc.Approve(context.Background(), 5)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, pub.Topics())
		})
	}
}

// ============================================================================
// Rating aggregation against an in-memory store
// ============================================================================

// memReviewRepository applies moderation under one lock, standing in for the
// row locks the PostgreSQL repository takes.
type memReviewRepository struct {
	mu      sync.Mutex
	reviews map[int64]*domain.Review
	ratings map[int64]float64
	nextID  int64
}

func newMemReviewRepository(toolIDs ...int64) *memReviewRepository {
	r := &memReviewRepository{
		reviews: map[int64]*domain.Review{},
		ratings: map[int64]float64{},
	}
	for _, id := range toolIDs {
		r.ratings[id] = 0
	}
	return r
}

func (r *memReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ratings[review.ToolID]; !ok {
		return domain.ToolNotFound(review.ToolID)
	}
	r.nextID++
	review.ID = r.nextID
	stored := *review
	r.reviews[review.ID] = &stored
	return nil
}

func (r *memReviewRepository) List(_ context.Context, _ *domain.ReviewStatus) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Review, 0, len(r.reviews))
	for id := int64(1); id <= r.nextID; id++ {
		if rv, ok := r.reviews[id]; ok {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (r *memReviewRepository) Moderate(_ context.Context, id int64, status domain.ReviewStatus) (*domain.Moderation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	if !rv.Status.CanTransitionTo(status) {
		return nil, domain.InvalidTransition(id, rv.Status, status)
	}
	m := &domain.Moderation{Previous: rv.Status}
	rv.Status = status
	if status == domain.ReviewApproved {
		var sum, count int64
		for _, other := range r.reviews {
			if other.ToolID == rv.ToolID && other.Status == domain.ReviewApproved {
				sum += int64(other.Rating)
				count++
			}
		}
		avg := domain.AverageRating(sum, count)
		r.ratings[rv.ToolID] = avg
		m.ToolAvgRating = &avg
	}
	m.Review = *rv
	return m, nil
}

func (r *memReviewRepository) rating(toolID int64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ratings[toolID]
}

func TestReviewService_RatingFollowsApprovals(t *testing.T) {
	repo := newMemReviewRepository(1)
	svc := NewReviewService(repo, nil, event.NewProducer(nil, newTestLogger()), newTestLogger())
	ctx := context.Background()

	submit := func(rating int) int64 {
		rv, err := svc.Submit(ctx, SubmitReviewInput{ToolID: 1, Rating: rating})
		require.NoError(t, err)
		return rv.ID
	}

	assert.Equal(t, 0.0, repo.rating(1))

	for _, rating := range []int{5, 3, 4} {
		_, err := svc.Approve(ctx, submit(rating))
		require.NoError(t, err)
	}
	assert.Equal(t, 4.0, repo.rating(1))

	rejected := submit(1)
	_, err := svc.Reject(ctx, rejected)
	require.NoError(t, err)
	assert.Equal(t, 4.0, repo.rating(1))

	_, err = svc.Approve(ctx, rejected)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Approve(ctx, submit(2))
	require.NoError(t, err)
	assert.Equal(t, 3.5, repo.rating(1))

	_, err = svc.Submit(ctx, SubmitReviewInput{ToolID: 99, Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestReviewService_ConcurrentApprovals(t *testing.T) {
	repo := newMemReviewRepository(1)
	svc := NewReviewService(repo, nil, event.NewProducer(nil, newTestLogger()), newTestLogger())
	ctx := context.Background()

	ratings := []int{5, 4, 4, 3, 5, 2, 1, 5}
	ids := make([]int64, len(ratings))
	var sum int64
	for i, rating := range ratings {
		rv, err := svc.Submit(ctx, SubmitReviewInput{ToolID: 1, Rating: rating})
		require.NoError(t, err)
		ids[i] = rv.ID
		sum += int64(rating)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.Approve(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, domain.AverageRating(sum, int64(len(ratings))), repo.rating(1))
}
