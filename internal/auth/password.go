package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/rajmohan-121/Ai-Tool-Finder/pkg/errors"
)

// MaxPasswordBytes is the longest password bcrypt accepts without truncation.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for passwords above MaxPasswordBytes.
var ErrPasswordTooLong = apperrors.New(
	http.StatusBadRequest,
	"PASSWORD_TOO_LONG",
	fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes),
	apperrors.ErrInvalidInput,
)

// Hasher hashes and verifies passwords with bcrypt. The salt is generated per
// call and embedded in the hash.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost. A cost outside the
// bcrypt range falls back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hashed. It never returns an error: an
// oversized password or a malformed hash simply does not match.
func (h *Hasher) Verify(plain, hashed string) bool {
	if len(plain) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
