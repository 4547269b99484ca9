// Package seed loads a starter catalog of AI tools.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
)

// ToolStore is the part of the tool service the seeder needs.
type ToolStore interface {
	List(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, error)
	Create(ctx context.Context, spec domain.ToolSpec) (*domain.Tool, error)
}

func strPtr(s string) *string { return &s }

// Catalog is the default starter set.
var Catalog = []domain.ToolSpec{
	{Name: "ChatGPT", UseCase: "General purpose conversational assistant", Category: strPtr("Chat"), Pricing: "Freemium"},
	{Name: "Claude", UseCase: "Long-context writing and analysis assistant", Category: strPtr("Chat"), Pricing: "Freemium"},
	{Name: "GitHub Copilot", UseCase: "Code completion inside the editor", Category: strPtr("Coding"), Pricing: "Paid"},
	{Name: "Cursor", UseCase: "AI-first code editor", Category: strPtr("Coding"), Pricing: "Freemium"},
	{Name: "Midjourney", UseCase: "Image generation from text prompts", Category: strPtr("Image"), Pricing: "Paid"},
	{Name: "Stable Diffusion", UseCase: "Open image generation model", Category: strPtr("Image"), Pricing: "Free"},
	{Name: "Whisper", UseCase: "Speech recognition and transcription", Category: strPtr("Audio"), Pricing: "Free"},
	{Name: "ElevenLabs", UseCase: "Text to speech voice synthesis", Category: strPtr("Audio"), Pricing: "Freemium"},
	{Name: "Runway", UseCase: "Video generation and editing", Category: strPtr("Video"), Pricing: "Freemium"},
	{Name: "Perplexity", UseCase: "Answer engine with cited sources", Category: strPtr("Search"), Pricing: "Freemium"},
	{Name: "Notion AI", UseCase: "Writing help inside notes and docs", Category: strPtr("Productivity"), Pricing: "Paid"},
	{Name: "DeepL", UseCase: "Machine translation of text and documents", Category: strPtr("Translation"), Pricing: "Freemium"},
}

// Run creates every entry of catalog whose name is not in the store yet and
// returns how many were created. Running it twice creates nothing new.
func Run(ctx context.Context, store ToolStore, catalog []domain.ToolSpec, logger *slog.Logger) (int, error) {
	existing, err := store.List(ctx, domain.ToolFilter{})
	if err != nil {
		return 0, fmt.Errorf("list existing tools: %w", err)
	}
	names := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		names[t.Name] = struct{}{}
	}

	created := 0
	for _, spec := range catalog {
		if _, ok := names[spec.Normalize().Name]; ok {
			continue
		}
		tool, err := store.Create(ctx, spec)
		if err != nil {
			return created, fmt.Errorf("seed tool %q: %w", spec.Name, err)
		}
		names[tool.Name] = struct{}{}
		created++
		logger.DebugContext(ctx, "seeded tool", slog.Int64("tool_id", tool.ID), slog.String("name", tool.Name))
	}

	logger.InfoContext(ctx, "seed completed",
		slog.Int("created", created),
		slog.Int("skipped", len(catalog)-created),
	)
	return created, nil
}
