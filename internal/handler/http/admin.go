package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/httputil"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/validator"
)

// AdminHandler handles HTTP requests for admin registration and login.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for admin registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest holds login credentials. Form bodies use the OAuth2 password
// grant field names; JSON bodies may send "email" instead of "username".
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// --- Handlers ---

// Register handles POST /admin/register
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if _, err := h.service.Register(r.Context(), req.Email, req.Password); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Admin created successfully")
}

// Login handles POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(w, r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, token)
}

func decodeLogin(w http.ResponseWriter, r *http.Request) (*LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, validator.MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("decode request body: empty body")
			}
			return nil, fmt.Errorf("decode request body: %w", err)
		}
		username := body.Username
		if username == "" {
			username = body.Email
		}
		return &LoginRequest{Username: username, Password: body.Password}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	return &LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}
