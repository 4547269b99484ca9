package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

// RoleAdmin is the only role issued in access tokens.
const RoleAdmin = "admin"

// Admin is an administrator account. It is immutable after registration.
type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DuplicateEmail is returned when registering an address that already has an
// account. It is a client error (400) rather than a conflict.
func DuplicateEmail(email string) *apperrors.AppError {
	return apperrors.New(
		http.StatusBadRequest,
		apperrors.CodeAlreadyExists,
		fmt.Sprintf("admin with email %q already exists", email),
		apperrors.ErrAlreadyExists,
	)
}

// InvalidCredentials is returned by login for an unknown email or a wrong
// password. Both cases share one message.
func InvalidCredentials() *apperrors.AppError {
	return apperrors.New(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"incorrect email or password",
		apperrors.ErrUnauthorized,
	)
}
