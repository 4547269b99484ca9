package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/database"
	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

// AdminRepository implements admin persistence using PostgreSQL.
type AdminRepository struct {
	pool database.DBTX
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(pool database.DBTX) *AdminRepository {
	return &AdminRepository{pool: pool}
}

const insertAdminQuery = `
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateAdmin", insertAdminQuery)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, insertAdminQuery, admin.Email, admin.PasswordHash).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.DuplicateEmail(admin.Email)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

const selectAdminByEmailQuery = `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = $1`

// GetByEmail retrieves an admin by email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (_ *domain.Admin, err error) {
	ctx, end := database.TraceQuery(ctx, "GetAdminByEmail", selectAdminByEmailQuery)
	defer func() { end(err) }()

	var a domain.Admin
	err = r.pool.QueryRow(ctx, selectAdminByEmailQuery, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("admin", email)
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &a, nil
}
