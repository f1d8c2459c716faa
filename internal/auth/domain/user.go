package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrMissingPassword    = errors.New("password is required")
	ErrAuthService        = errors.New("authentication service error")
)

// User-facing messages for login failures.
const (
	MessageInvalidEmail    = "Invalid email format. Please enter a valid email address."
	MessageMissingPassword = "Password is required."
	MessageLoginFailed     = "An error occurred during login. Please try again."
)

// User is the signed-in shopper. Name is derived from the email local part.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the persisted login state. A nil User means signed out.
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// IsAuthenticated reports whether the session carries a user.
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

// Validate checks the email format and that a password was given.
func (c Credentials) Validate() error {
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

// ValidateEmail checks the address shape only. Deliverability is not checked.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// DisplayNameFromEmail returns the part of email before the first '@'.
func DisplayNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// NewUser synthesizes a user with a random UUIDv4 id.
func NewUser(email string) User {
	return User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  DisplayNameFromEmail(email),
	}
}

// RejectedError is a login refused by the credential service. Message is the
// text the service returned, if any.
type RejectedError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return "login rejected: " + e.Message
	}
	return "login rejected"
}

func (e *RejectedError) Unwrap() error {
	return ErrAuthService
}
