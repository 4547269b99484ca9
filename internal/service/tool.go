package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/event"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/repository"
)

// ToolCache is an optional read-through cache for tool listings.
type ToolCache interface {
	Get(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, bool, error)
	Set(ctx context.Context, filter domain.ToolFilter, tools []domain.Tool) error
	Invalidate(ctx context.Context) error
}

// ToolService implements the business logic for the tool catalog.
type ToolService struct {
	repo     repository.ToolRepository
	cache    ToolCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewToolService creates a new tool service. cache may be nil.
func NewToolService(repo repository.ToolRepository, cache ToolCache, producer *event.Producer, logger *slog.Logger) *ToolService {
	return &ToolService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// Create validates spec and persists a new tool with a zero rating.
func (s *ToolService) Create(ctx context.Context, spec domain.ToolSpec) (*domain.Tool, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	tool := domain.NewTool(spec)
	if err := s.repo.Create(ctx, tool); err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}

	invalidateToolLists(ctx, s.cache, s.logger)
	if err := s.producer.PublishToolCreated(ctx, tool); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.created event",
			slog.Int64("tool_id", tool.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool created",
		slog.Int64("tool_id", tool.ID),
		slog.String("name", tool.Name),
	)

	return tool, nil
}

// Get returns a single tool.
func (s *ToolService) Get(ctx context.Context, id int64) (*domain.Tool, error) {
	tool, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tool: %w", err)
	}
	return tool, nil
}

// Update overwrites the editable fields of a tool. The stored rating is kept.
func (s *ToolService) Update(ctx context.Context, id int64, spec domain.ToolSpec) (*domain.Tool, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	tool := &domain.Tool{ID: id}
	tool.Apply(spec)
	if err := s.repo.Update(ctx, tool); err != nil {
		return nil, fmt.Errorf("update tool: %w", err)
	}

	invalidateToolLists(ctx, s.cache, s.logger)
	if err := s.producer.PublishToolUpdated(ctx, tool); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.updated event",
			slog.Int64("tool_id", tool.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool updated", slog.Int64("tool_id", tool.ID))

	return tool, nil
}

// Delete removes a tool and its reviews.
func (s *ToolService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}

	invalidateToolLists(ctx, s.cache, s.logger)
	if err := s.producer.PublishToolDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish tool.deleted event",
			slog.Int64("tool_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "tool deleted", slog.Int64("tool_id", id))

	return nil
}

// List returns the tools matching every set field of filter, ordered by id.
func (s *ToolService) List(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, error) {
	if s.cache != nil {
		tools, ok, err := s.cache.Get(ctx, filter)
		if err != nil {
			s.logger.WarnContext(ctx, "tool list cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return tools, nil
		}
	}

	tools, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, filter, tools); err != nil {
			s.logger.WarnContext(ctx, "tool list cache write failed", slog.String("error", err.Error()))
		}
	}

	return tools, nil
}

func invalidateToolLists(ctx context.Context, cache ToolCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.WarnContext(ctx, "tool list cache invalidation failed", slog.String("error", err.Error()))
	}
}
