package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/database"
)

var reviewColumns = []string{
	"id", "tool_id", "rating", "comment", "status", "created_at", "updated_at",
}

// ReviewRepository implements review persistence and moderation using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func scanReview(row pgx.Row, rv *domain.Review) error {
	return row.Scan(
		&rv.ID,
		&rv.ToolID,
		&rv.Rating,
		&rv.Comment,
		&rv.Status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
}

const insertReviewQuery = `
		INSERT INTO reviews (tool_id, rating, comment, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

// Create inserts a review. The foreign key on tool_id rejects unknown tools
// without leaving a row behind.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewQuery)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, insertReviewQuery,
		review.ToolID,
		review.Rating,
		review.Comment,
		string(review.Status),
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.ToolNotFound(review.ToolID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// List returns reviews ordered by id.
func (r *ReviewRepository) List(ctx context.Context, status *domain.ReviewStatus) (_ []domain.Review, err error) {
	q := psql.Select(reviewColumns...).From("reviews")
	if status != nil {
		q = q.Where(sq.Eq{"status": string(*status)})
	}
	query, args, err := q.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reviews query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = scanReview(rows, &rv); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

const (
	reviewToolQuery = `SELECT tool_id FROM reviews WHERE id = $1`

	lockReviewQuery = `
		SELECT id, tool_id, rating, comment, status, created_at, updated_at
		FROM reviews
		WHERE id = $1
		FOR UPDATE`

	lockToolQuery = `SELECT id FROM tools WHERE id = $1 FOR UPDATE`

	setReviewStatusQuery = `
		UPDATE reviews
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	approvedRatingsQuery = `
		SELECT COUNT(*), COALESCE(SUM(rating), 0)
		FROM reviews
		WHERE tool_id = $1 AND status = $2`

	setToolRatingQuery = `UPDATE tools SET avg_rating = $2, updated_at = NOW() WHERE id = $1`
)

// Moderate applies a moderation decision inside one transaction.
//
// Approvals lock the tool row before the review row, the same order a tool
// delete takes when it cascades into reviews. Holding the tool lock while
// counting approved ratings serializes concurrent approvals on the same
// tool, and under READ COMMITTED each one sees the approvals committed
// before it acquired the lock. Rejections only lock the review.
func (r *ReviewRepository) Moderate(ctx context.Context, id int64, status domain.ReviewStatus) (_ *domain.Moderation, err error) {
	ctx, end := database.TraceQuery(ctx, "ModerateReview", lockReviewQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin moderation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedToolID int64
	if status == domain.ReviewApproved {
		if lockedToolID, err = lockReviewTool(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	var rv domain.Review
	if err = scanReview(tx.QueryRow(ctx, lockReviewQuery, id), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ReviewNotFound(id)
		}
		return nil, fmt.Errorf("lock review: %w", err)
	}
	if status == domain.ReviewApproved && rv.ToolID != lockedToolID {
		return nil, fmt.Errorf("review %d belongs to tool %d, locked tool %d", id, rv.ToolID, lockedToolID)
	}

	m := &domain.Moderation{Review: rv, Previous: rv.Status}
	if !rv.Status.CanTransitionTo(status) {
		return nil, domain.InvalidTransition(id, rv.Status, status)
	}

	if rv.Status != status {
		if err = tx.QueryRow(ctx, setReviewStatusQuery, id, string(status)).Scan(&m.Review.UpdatedAt); err != nil {
			return nil, fmt.Errorf("update review status: %w", err)
		}
		m.Review.Status = status
	}

	if status == domain.ReviewApproved {
		var count, sum int64
		if err = tx.QueryRow(ctx, approvedRatingsQuery, rv.ToolID, string(domain.ReviewApproved)).Scan(&count, &sum); err != nil {
			return nil, fmt.Errorf("aggregate approved ratings: %w", err)
		}
		avg := domain.AverageRating(sum, count)
		if _, err = tx.Exec(ctx, setToolRatingQuery, rv.ToolID, avg); err != nil {
			return nil, fmt.Errorf("update tool rating: %w", err)
		}
		m.ToolAvgRating = &avg
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit moderation tx: %w", err)
	}
	return m, nil
}

// lockReviewTool reads the review's tool without locking the review, then
// locks that tool row. A missing tool means the review was removed with it.
func lockReviewTool(ctx context.Context, tx pgx.Tx, reviewID int64) (int64, error) {
	var toolID int64
	if err := tx.QueryRow(ctx, reviewToolQuery, reviewID).Scan(&toolID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ReviewNotFound(reviewID)
		}
		return 0, fmt.Errorf("read review tool: %w", err)
	}

	var locked int64
	if err := tx.QueryRow(ctx, lockToolQuery, toolID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ReviewNotFound(reviewID)
		}
		return 0, fmt.Errorf("lock tool: %w", err)
	}
	return toolID, nil
}
