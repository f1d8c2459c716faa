package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "plain address", email: "dev@errorfix.io", wantErr: false},
		{name: "subdomain", email: "a.b@mail.example.co", wantErr: false},
		{name: "missing at", email: "bad-email", wantErr: true},
		{name: "missing dot in domain", email: "dev@localhost", wantErr: true},
		{name: "whitespace in local part", email: "dev ops@example.com", wantErr: true},
		{name: "two at signs", email: "a@b@example.com", wantErr: true},
		{name: "empty", email: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidEmailFormat) {
				t.Errorf("expected ErrInvalidEmailFormat, got %v", err)
			}
		})
	}
}

func TestCredentialsValidate(t *testing.T) {
	t.Run("missing password is rejected", func(t *testing.T) {
		err := domain.Credentials{Email: "dev@errorfix.io"}.Validate()
		if !errors.Is(err, domain.ErrMissingPassword) {
			t.Errorf("expected ErrMissingPassword, got %v", err)
		}
	})

	t.Run("email is checked before password", func(t *testing.T) {
		err := domain.Credentials{Email: "nope"}.Validate()
		if !errors.Is(err, domain.ErrInvalidEmailFormat) {
			t.Errorf("expected ErrInvalidEmailFormat, got %v", err)
		}
	})

	t.Run("any non-empty password is accepted", func(t *testing.T) {
		if err := (domain.Credentials{Email: "dev@errorfix.io", Password: "x"}).Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestNewUser(t *testing.T) {
	user := domain.NewUser("grace.hopper@navy.mil")

	if user.Name != "grace.hopper" {
		t.Errorf("expected name grace.hopper, got %s", user.Name)
	}
	parsed, err := uuid.Parse(user.ID)
	if err != nil {
		t.Fatalf("expected UUID id, got %q", user.ID)
	}
	if parsed.Version() != 4 {
		t.Errorf("expected UUIDv4, got version %d", parsed.Version())
	}
	if other := domain.NewUser("grace.hopper@navy.mil"); other.ID == user.ID {
		t.Error("expected distinct ids for separate users")
	}
}

func TestSessionIsAuthenticated(t *testing.T) {
	if (domain.Session{}).IsAuthenticated() {
		t.Error("expected empty session to be signed out")
	}
	user := domain.NewUser("dev@errorfix.io")
	if !(domain.Session{User: &user}).IsAuthenticated() {
		t.Error("expected session with user to be signed in")
	}
}
