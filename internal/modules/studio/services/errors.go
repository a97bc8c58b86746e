package services

import (
	"errors"
	"fmt"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/google/uuid"
)

var (
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrProfileNotFound       = auth.ErrProfileNotFound
	ErrPostNotFound          = errors.New("scheduled post not found")
	ErrInvalidStatusChange   = errors.New("status change not allowed")
	ErrConnectionNotFound    = errors.New("social account not connected")
	ErrNoRefreshToken        = errors.New("connection has no refresh token")
	ErrPlatformNotConfigured = errors.New("platform oauth client is not configured")
	ErrUserNotFound          = errors.New("user_not_found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrGenerationFailed      = errors.New("content generation failed")
)

// ValidationError reports a rejected request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// parseUserID turns the JWT subject into a profile ID
func parseUserID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return id, nil
}
