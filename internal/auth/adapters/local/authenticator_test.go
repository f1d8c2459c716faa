package local_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/errorfix/internal/auth/adapters/local"
	"github.com/dejobratic/errorfix/internal/auth/domain"
)

func TestAuthenticate(t *testing.T) {
	auth := local.NewAuthenticator()

	t.Run("accepts well-formed credentials", func(t *testing.T) {
		session, err := auth.Authenticate(context.Background(), domain.Credentials{
			Email:    "ada@errorfix.io",
			Password: "anything",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if session.User == nil || session.User.Name != "ada" {
			t.Fatalf("unexpected user: %+v", session.User)
		}
		if session.Token != session.User.ID {
			t.Errorf("expected token to equal user id, got %q", session.Token)
		}
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := auth.Authenticate(context.Background(), domain.Credentials{Email: "ada", Password: "x"})
		if !errors.Is(err, domain.ErrInvalidEmailFormat) {
			t.Errorf("expected ErrInvalidEmailFormat, got %v", err)
		}
	})

	t.Run("cancelled context is a service error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := auth.Authenticate(ctx, domain.Credentials{Email: "ada@errorfix.io", Password: "x"})
		if !errors.Is(err, domain.ErrAuthService) {
			t.Errorf("expected ErrAuthService, got %v", err)
		}
	})
}
