package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
)

type fakeStore struct {
	tools     []domain.Tool
	listErr   error
	createErr error
}

func (f *fakeStore) List(context.Context, domain.ToolFilter) ([]domain.Tool, error) {
	return f.tools, f.listErr
}

func (f *fakeStore) Create(_ context.Context, spec domain.ToolSpec) (*domain.Tool, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	spec = spec.Normalize()
	tool := domain.NewTool(spec)
	tool.ID = int64(len(f.tools) + 1)
	f.tools = append(f.tools, *tool)
	return tool, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range Catalog {
		require.NoError(t, spec.Normalize().Validate(), spec.Name)
		assert.False(t, seen[spec.Name], "duplicate %s", spec.Name)
		seen[spec.Name] = true
	}
}

func TestRun_Idempotent(t *testing.T) {
	store := &fakeStore{}

	created, err := Run(context.Background(), store, Catalog, discard())
	require.NoError(t, err)
	assert.Equal(t, len(Catalog), created)

	created, err = Run(context.Background(), store, Catalog, discard())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, store.tools, len(Catalog))
}

func TestRun_SkipsExistingNames(t *testing.T) {
	store := &fakeStore{tools: []domain.Tool{{ID: 1, Name: "Whisper"}}}
	catalog := []domain.ToolSpec{
		{Name: " Whisper ", UseCase: "Speech recognition", Pricing: "Free"},
		{Name: "DeepL", UseCase: "Machine translation", Pricing: "Freemium"},
	}

	created, err := Run(context.Background(), store, catalog, discard())

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, "DeepL", store.tools[1].Name)
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Run(context.Background(), &fakeStore{listErr: boom}, Catalog, discard())
	assert.ErrorIs(t, err, boom)

	created, err := Run(context.Background(), &fakeStore{createErr: boom}, Catalog, discard())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, created)
}
