package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/auth"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/health"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/middleware"
)

// RouterConfig holds the router settings that come from configuration.
type RouterConfig struct {
	ServiceName       string
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
	// ToolListMaxAge is the public Cache-Control max-age for tool reads, in
	// seconds. Zero sends no header.
	ToolListMaxAge int
}

// TokenValidator adapts the token service to the authentication middleware.
func TokenValidator(tokens *auth.TokenService) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := tokens.Verify(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{Subject: claims.Subject, Role: claims.Role}, nil
	}
}

// NewRouter creates a chi router with all tool finder routes registered.
func NewRouter(
	adminService *service.AdminService,
	toolService *service.ToolService,
	reviewService *service.ReviewService,
	tokens *auth.TokenService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	adminHandler := NewAdminHandler(adminService, logger)
	toolHandler := NewToolHandler(toolService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	// Public catalog endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(cfg.ToolListMaxAge))
		r.Get("/tools", toolHandler.List)
		r.Get("/tools/{id}", toolHandler.Get)
	})
	r.Post("/review", reviewHandler.Submit)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Post("/login", adminHandler.Login)

		// Everything else requires an admin token. The guard completes before
		// any handler body runs.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(TokenValidator(tokens)))
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/register", adminHandler.Register)

			r.Post("/tools", toolHandler.Create)
			r.Put("/tools/{id}", toolHandler.Update)
			r.Delete("/tools/{id}", toolHandler.Delete)

			r.Get("/reviews", reviewHandler.List)
			r.Put("/reviews/{id}/approve", reviewHandler.Approve)
			r.Put("/reviews/{id}/reject", reviewHandler.Reject)
		})
	})

	return r
}
