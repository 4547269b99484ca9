package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/auth"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/event"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/health"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/middleware"
)

// ============================================================================
// In-memory stores
// ============================================================================

type memStore struct {
	mu      sync.Mutex
	now     time.Time
	admins  map[string]domain.Admin
	tools   map[int64]domain.Tool
	reviews map[int64]domain.Review
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		admins:  make(map[string]domain.Admin),
		tools:   make(map[int64]domain.Tool),
		reviews: make(map[int64]domain.Review),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memAdminRepo struct{ *memStore }

func (r memAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[admin.Email]; ok {
		return domain.DuplicateEmail(admin.Email)
	}
	admin.ID = r.id()
	admin.CreatedAt = r.now
	r.admins[admin.Email] = *admin
	return nil
}

func (r memAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[email]
	if !ok {
		return nil, apperrors.NotFound("admin", email)
	}
	return &a, nil
}

type memToolRepo struct{ *memStore }

func (r memToolRepo) Create(_ context.Context, tool *domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tool.ID = r.id()
	tool.CreatedAt, tool.UpdatedAt = r.now, r.now
	r.tools[tool.ID] = *tool
	return nil
}

func (r memToolRepo) GetByID(_ context.Context, id int64) (*domain.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[id]
	if !ok {
		return nil, domain.ToolNotFound(id)
	}
	return &t, nil
}

func (r memToolRepo) Update(_ context.Context, tool *domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tools[tool.ID]
	if !ok {
		return domain.ToolNotFound(tool.ID)
	}
	stored.Name, stored.UseCase, stored.Category, stored.Pricing = tool.Name, tool.UseCase, tool.Category, tool.Pricing
	r.tools[tool.ID] = stored
	*tool = stored
	return nil
}

func (r memToolRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[id]; !ok {
		return domain.ToolNotFound(id)
	}
	delete(r.tools, id)
	for rid, rv := range r.reviews {
		if rv.ToolID == id {
			delete(r.reviews, rid)
		}
	}
	return nil
}

func (r memToolRepo) List(_ context.Context, f domain.ToolFilter) ([]domain.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Tool{}
	for _, t := range r.tools {
		if f.Category != nil && (t.Category == nil || *t.Category != *f.Category) {
			continue
		}
		if f.Pricing != nil && t.Pricing != *f.Pricing {
			continue
		}
		if f.MinRating != nil && t.AvgRating < *f.MinRating {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memReviewRepo struct{ *memStore }

func (r memReviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[review.ToolID]; !ok {
		return domain.ToolNotFound(review.ToolID)
	}
	review.ID = r.id()
	review.CreatedAt, review.UpdatedAt = r.now, r.now
	r.reviews[review.ID] = *review
	return nil
}

func (r memReviewRepo) List(_ context.Context, status *domain.ReviewStatus) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rv := range r.reviews {
		if status == nil || rv.Status == *status {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memReviewRepo) Moderate(_ context.Context, id int64, status domain.ReviewStatus) (*domain.Moderation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	if !rv.Status.CanTransitionTo(status) {
		return nil, domain.InvalidTransition(id, rv.Status, status)
	}
	m := &domain.Moderation{Previous: rv.Status}
	rv.Status = status
	r.reviews[id] = rv
	m.Review = rv

	if status == domain.ReviewApproved {
		var sum, count int64
		for _, other := range r.reviews {
			if other.ToolID == rv.ToolID && other.Status == domain.ReviewApproved {
				sum += int64(other.Rating)
				count++
			}
		}
		avg := domain.AverageRating(sum, count)
		tool := r.tools[rv.ToolID]
		tool.AvgRating = avg
		r.tools[rv.ToolID] = tool
		m.ToolAvgRating = &avg
	}
	return m, nil
}

// ============================================================================
// Test harness
// ============================================================================

const testAdminEmail = "root@example.com"

type testEnv struct {
	store  *memStore
	tokens *auth.TokenService
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	tokens, err := auth.NewTokenService("handler-test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	producer := event.NewProducer(nil, logger)
	adminSvc := service.NewAdminService(memAdminRepo{store}, auth.NewHasher(bcrypt.MinCost), tokens, logger)
	toolSvc := service.NewToolService(memToolRepo{store}, nil, producer, logger)
	reviewSvc := service.NewReviewService(memReviewRepo{store}, nil, producer, logger)

	router := NewRouter(adminSvc, toolSvc, reviewSvc, tokens, health.NewHandler(), logger, RouterConfig{
		ServiceName:    "toolfinder-test",
		CORS:           middleware.DefaultCORSConfig(),
		ToolListMaxAge: 30,
	})

	return &testEnv{store: store, tokens: tokens, router: router}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue(testAdminEmail, domain.RoleAdmin, 0)
	require.NoError(t, err)
	return token
}

// do sends a request through the router. body may be nil, a string (sent
// as-is) or any value to JSON-encode.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createTool(t *testing.T, name, category, pricing string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/admin/tools", map[string]any{
		"name":     name,
		"use_case": "Helps with " + name,
		"category": category,
		"pricing":  pricing,
	}, e.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tool domain.Tool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tool))
	return tool.ID
}

func (e *testEnv) submitReview(t *testing.T, toolID int64, rating int) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/review", map[string]any{
		"tool_id": toolID,
		"rating":  rating,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.nextID
}

type errorEnvelope struct {
	Error struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Fields    map[string]string `json:"fields"`
		RequestID string            `json:"request_id"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + strconv.FormatInt(id, 10) + suffix
}
