package repository

import (
	"context"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
)

// AdminRepository persists administrator accounts.
type AdminRepository interface {
	// Create inserts admin and fills its ID and CreatedAt. A taken email
	// yields domain.DuplicateEmail.
	Create(ctx context.Context, admin *domain.Admin) error

	// GetByEmail looks up an admin by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

// ToolRepository defines the interface for tool persistence operations.
type ToolRepository interface {
	// Create inserts tool and fills its generated fields.
	Create(ctx context.Context, tool *domain.Tool) error

	// GetByID retrieves a tool by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Tool, error)

	// Update overwrites the editable fields of tool and refreshes the rest
	// from the stored row.
	Update(ctx context.Context, tool *domain.Tool) error

	// Delete removes a tool and its reviews.
	Delete(ctx context.Context, id int64) error

	// List returns the tools matching filter ordered by id.
	List(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, error)
}

// ReviewRepository defines the interface for review persistence and moderation.
type ReviewRepository interface {
	// Create inserts a Pending review. A missing tool yields domain.ToolNotFound.
	Create(ctx context.Context, review *domain.Review) error

	// List returns reviews ordered by id, optionally restricted to one status.
	List(ctx context.Context, status *domain.ReviewStatus) ([]domain.Review, error)

	// Moderate moves a review to status and, on approval, recomputes the
	// tool's average rating in the same transaction.
	Moderate(ctx context.Context, id int64, status domain.ReviewStatus) (*domain.Moderation, error)
}
