package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/auth"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/repository"
	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/logger"
)

// TokenTypeBearer is the token_type returned with every access token.
const TokenTypeBearer = "bearer"

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AdminService implements administrator registration and login.
type AdminService struct {
	repo   repository.AdminRepository
	hasher *auth.Hasher
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	repo repository.AdminRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an administrator and returns its id.
func (s *AdminService) Register(ctx context.Context, email, password string) (int64, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return 0, apperrors.InvalidInput("email is required")
	}
	if password == "" {
		return 0, apperrors.InvalidInput("password is required")
	}

	// Checked up front to skip the bcrypt cost for a known duplicate. The
	// unique index still decides races.
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return 0, domain.DuplicateEmail(email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("look up admin: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}

	admin := &domain.Admin{Email: email, PasswordHash: hashed}
	if err := s.repo.Create(ctx, admin); err != nil {
		return 0, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin registered",
		slog.Int64("admin_id", admin.ID),
		slog.String("email", admin.Email),
		slog.String("registered_by", logger.SubjectFromContext(ctx)),
	)

	return admin.ID, nil
}

// Login checks credentials and issues an access token whose subject is the
// admin's email.
func (s *AdminService) Login(ctx context.Context, email, password string) (*AccessToken, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.InvalidCredentials()
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.InvalidCredentials()
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.logger.WarnContext(ctx, "admin login failed", slog.String("email", email))
		return nil, domain.InvalidCredentials()
	}

	token, err := s.tokens.Issue(admin.Email, domain.RoleAdmin, 0)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", slog.Int64("admin_id", admin.ID))

	return &AccessToken{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// Bootstrap creates the admin unless the email is already registered. It
// reports whether an account was created.
func (s *AdminService) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	_, err := s.Register(ctx, email, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrAlreadyExists):
		s.logger.InfoContext(ctx, "bootstrap admin already exists", slog.String("email", domain.NormalizeEmail(email)))
		return false, nil
	default:
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
}
