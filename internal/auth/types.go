package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrCredentialRequired = errors.New("password or otp is required")
	ErrEmailDomain        = errors.New("email domain not allowed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentNotFound    = errors.New("student not found")
	ErrOTPLocked          = errors.New("too many failed otp attempts")
)

// Student is a registered player.
type Student struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Mobile          string    `json:"mobile,omitempty"`
	StudentID       string    `json:"student_id,omitempty"`
	AttemptedLevels []int     `json:"attempted_levels"`
	CreatedAt       time.Time `json:"created_at"`
}

// Admin is a dashboard operator.
type Admin struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest for student registration.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Mobile    string `json:"mobile"`
	StudentID string `json:"student_id"`
}

// LoginRequest authenticates with either a password or a one-time code.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	OTP      string `json:"otp,omitempty"`
}

// OTPRequest asks for a fresh one-time code.
type OTPRequest struct {
	Email string `json:"email"`
}

// AdminLoginRequest for the admin dashboard.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AttemptLookup selects a student by id, email or student id, in that order.
type AttemptLookup struct {
	UserID    uuid.UUID
	Email     string
	StudentID string
}

// OAuthProvider constants.
const (
	OAuthProviderMicrosoft = "microsoft"
)
