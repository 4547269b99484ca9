package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

const (
	MinToolNameLength    = 2
	MinToolUseCaseLength = 5
)

// Tool is a catalog entry. AvgRating is derived from approved reviews and is
// written only by review moderation.
type Tool struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UseCase   string    `json:"use_case"`
	Category  *string   `json:"category"`
	Pricing   string    `json:"pricing"`
	AvgRating float64   `json:"avg_rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToolSpec holds the client-editable fields of a tool.
type ToolSpec struct {
	Name     string
	UseCase  string
	Category *string
	Pricing  string
}

// Normalize trims whitespace and turns a blank category into nil.
func (s ToolSpec) Normalize() ToolSpec {
	s.Name = strings.TrimSpace(s.Name)
	s.UseCase = strings.TrimSpace(s.UseCase)
	s.Pricing = strings.TrimSpace(s.Pricing)
	if s.Category != nil {
		c := strings.TrimSpace(*s.Category)
		if c == "" {
			s.Category = nil
		} else {
			s.Category = &c
		}
	}
	return s
}

// Validate checks the length and presence rules on a normalized spec.
func (s ToolSpec) Validate() error {
	if utf8.RuneCountInString(s.Name) < MinToolNameLength {
		return apperrors.InvalidInput("name must be at least 2 characters")
	}
	if utf8.RuneCountInString(s.UseCase) < MinToolUseCaseLength {
		return apperrors.InvalidInput("use_case must be at least 5 characters")
	}
	if s.Pricing == "" {
		return apperrors.InvalidInput("pricing is required")
	}
	return nil
}

// NewTool builds an unsaved tool from spec with a zero rating.
func NewTool(spec ToolSpec) *Tool {
	t := &Tool{}
	t.Apply(spec)
	return t
}

// Apply overwrites every editable field from spec. AvgRating is left alone.
func (t *Tool) Apply(spec ToolSpec) {
	t.Name = spec.Name
	t.UseCase = spec.UseCase
	t.Category = spec.Category
	t.Pricing = spec.Pricing
}

// ToolFilter narrows a tool listing. Nil fields are not applied; set fields
// are combined with AND.
type ToolFilter struct {
	Category  *string
	Pricing   *string
	MinRating *float64
}
