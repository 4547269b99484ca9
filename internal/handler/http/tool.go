package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/httputil"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/validator"
)

// ToolHandler handles HTTP requests for the tool catalog.
type ToolHandler struct {
	service *service.ToolService
	logger  *slog.Logger
}

// NewToolHandler creates a new tool HTTP handler.
func NewToolHandler(svc *service.ToolService, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{service: svc, logger: logger}
}

// ToolRequest is the JSON request body for creating or replacing a tool.
type ToolRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=200"`
	UseCase  string  `json:"use_case" validate:"required,min=5,max=2000"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Pricing  string  `json:"pricing" validate:"required,max=50"`
}

func (req ToolRequest) spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:     req.Name,
		UseCase:  req.UseCase,
		Category: req.Category,
		Pricing:  req.Pricing,
	}
}

// Create handles POST /admin/tools
func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ToolRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	tool, err := h.service.Create(r.Context(), req.spec())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tool)
}

// Update handles PUT /admin/tools/{id}
func (h *ToolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ToolRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if _, err := h.service.Update(r.Context(), id, req.spec()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Tool updated successfully")
}

// Delete handles DELETE /admin/tools/{id}
func (h *ToolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Tool deleted successfully")
}

// Get handles GET /tools/{id}
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	tool, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tool)
}

// List handles GET /tools?category=&pricing=&rating=
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseToolFilter(w, r)
	if !ok {
		return
	}

	tools, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tools)
}

// parseToolFilter reads the optional list filters. Absent and empty
// parameters are not applied.
func parseToolFilter(w http.ResponseWriter, r *http.Request) (domain.ToolFilter, bool) {
	q := r.URL.Query()
	var filter domain.ToolFilter

	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("pricing"); v != "" {
		filter.Pricing = &v
	}
	if v := strings.TrimSpace(q.Get("rating")); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			httputil.WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "rating must be a number")
			return filter, false
		}
		filter.MinRating = &rating
	}

	return filter, true
}
