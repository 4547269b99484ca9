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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var toolColumns = []string{
	"id", "name", "use_case", "category", "pricing", "avg_rating", "created_at", "updated_at",
}

// ToolRepository implements tool persistence operations using PostgreSQL.
type ToolRepository struct {
	pool database.DBTX
}

// NewToolRepository creates a new PostgreSQL-backed tool repository.
func NewToolRepository(pool database.DBTX) *ToolRepository {
	return &ToolRepository{pool: pool}
}

func scanTool(row pgx.Row, t *domain.Tool) error {
	return row.Scan(
		&t.ID,
		&t.Name,
		&t.UseCase,
		&t.Category,
		&t.Pricing,
		&t.AvgRating,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}

const insertToolQuery = `
		INSERT INTO tools (name, use_case, category, pricing)
		VALUES ($1, $2, $3, $4)
		RETURNING id, avg_rating, created_at, updated_at`

// Create inserts a new tool. The rating always starts at the column default.
func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateTool", insertToolQuery)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, insertToolQuery, tool.Name, tool.UseCase, tool.Category, tool.Pricing).
		Scan(&tool.ID, &tool.AvgRating, &tool.CreatedAt, &tool.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

const selectToolByIDQuery = `
		SELECT id, name, use_case, category, pricing, avg_rating, created_at, updated_at
		FROM tools
		WHERE id = $1`

// GetByID retrieves a single tool.
func (r *ToolRepository) GetByID(ctx context.Context, id int64) (_ *domain.Tool, err error) {
	ctx, end := database.TraceQuery(ctx, "GetToolByID", selectToolByIDQuery)
	defer func() { end(err) }()

	var t domain.Tool
	if err = scanTool(r.pool.QueryRow(ctx, selectToolByIDQuery, id), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ToolNotFound(id)
		}
		return nil, fmt.Errorf("get tool: %w", err)
	}
	return &t, nil
}

// avg_rating is deliberately absent from the SET list.
const updateToolQuery = `
		UPDATE tools
		SET name = $2, use_case = $3, category = $4, pricing = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING avg_rating, created_at, updated_at`

// Update writes the editable fields of tool.
func (r *ToolRepository) Update(ctx context.Context, tool *domain.Tool) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateTool", updateToolQuery)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, updateToolQuery, tool.ID, tool.Name, tool.UseCase, tool.Category, tool.Pricing).
		Scan(&tool.AvgRating, &tool.CreatedAt, &tool.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ToolNotFound(tool.ID)
		}
		return fmt.Errorf("update tool: %w", err)
	}
	return nil
}

const deleteToolQuery = `DELETE FROM tools WHERE id = $1`

// Delete removes a tool. Its reviews go with it through the foreign key.
func (r *ToolRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteTool", deleteToolQuery)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, deleteToolQuery, id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ToolNotFound(id)
	}
	return nil
}

// listToolsQuery builds the filtered listing. Each set filter adds one AND
// predicate.
func listToolsQuery(filter domain.ToolFilter) (string, []any, error) {
	q := psql.Select(toolColumns...).From("tools")
	if filter.Category != nil {
		q = q.Where(sq.Eq{"category": *filter.Category})
	}
	if filter.Pricing != nil {
		q = q.Where(sq.Eq{"pricing": *filter.Pricing})
	}
	if filter.MinRating != nil {
		q = q.Where(sq.GtOrEq{"avg_rating": *filter.MinRating})
	}
	return q.OrderBy("id ASC").ToSql()
}

// List returns matching tools ordered by id.
func (r *ToolRepository) List(ctx context.Context, filter domain.ToolFilter) (_ []domain.Tool, err error) {
	query, args, err := listToolsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build list tools query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListTools", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	tools := []domain.Tool{}
	for rows.Next() {
		var t domain.Tool
		if err = scanTool(rows, &t); err != nil {
			return nil, fmt.Errorf("scan tool row: %w", err)
		}
		tools = append(tools, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool rows: %w", err)
	}
	return tools, nil
}
