package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/httputil"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/validator"
)

// ReviewHandler handles HTTP requests for review submission and moderation.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// SubmitReviewRequest is the JSON request body for POST /review.
type SubmitReviewRequest struct {
	ToolID  int64   `json:"tool_id" validate:"required,gt=0"`
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// Submit handles POST /review
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	_, err := h.service.Submit(r.Context(), service.SubmitReviewInput{
		ToolID:  req.ToolID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Review submitted and waiting for admin approval")
}

// List handles GET /admin/reviews?status=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.ReviewStatus
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := domain.ParseReviewStatus(v)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		status = &parsed
	}

	reviews, err := h.service.List(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// Approve handles PUT /admin/reviews/{id}/approve
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if _, err := h.service.Approve(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Review approved and rating updated")
}

// Reject handles PUT /admin/reviews/{id}/reject
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if _, err := h.service.Reject(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Review rejected")
}
