// Package app holds the Auth Store: the persisted login session and the
// logout cascade into the other client stores.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dejobratic/errorfix/internal/auth/domain"
	"github.com/dejobratic/errorfix/internal/auth/ports"
	"github.com/dejobratic/errorfix/internal/observe"
	"github.com/dejobratic/errorfix/internal/result"
	"github.com/dejobratic/errorfix/internal/storage"
)

var ErrPersist = errors.New("persist session")

// LogoutHook runs after the session is cleared.
type LogoutHook func(ctx context.Context) error

// Store owns the session. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	session domain.Session
	hooks   []LogoutHook

	auth    ports.Authenticator
	storage storage.Store
	logger  *slog.Logger
	subject observe.Subject[domain.Session]
}

func NewStore(auth ports.Authenticator, st storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		auth:    auth,
		storage: st,
		logger:  logger,
	}
}

// OnLogout registers hook to run on every Logout, in registration order.
func (s *Store) OnLogout(hook LogoutHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Login validates the credentials locally, verifies them with the
// Authenticator and persists the resulting session. Expected failures come
// back as a failed result; the session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) result.Result {
	creds := domain.Credentials{Email: email, Password: password}

	if err := creds.Validate(); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmailFormat):
			return result.Fail(err, domain.MessageInvalidEmail)
		default:
			return result.Fail(err, domain.MessageMissingPassword)
		}
	}

	session, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		if !errors.Is(err, domain.ErrAuthService) {
			err = fmt.Errorf("%w: %w", domain.ErrAuthService, err)
		}
		s.logger.WarnContext(ctx, "login failed", "error", err)
		return result.Fail(err, loginFailureMessage(err))
	}
	if session.User == nil {
		err := fmt.Errorf("%w: no user in session", domain.ErrAuthService)
		s.logger.ErrorContext(ctx, "login failed", "error", err)
		return result.Fail(err, domain.MessageLoginFailed)
	}

	data, err := encodeSession(session)
	if err == nil {
		err = s.storage.Put(ctx, storage.SessionKey, data)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPersist, err)
		s.logger.ErrorContext(ctx, "failed to persist session", "error", err)
		return result.Fail(err, domain.MessageLoginFailed)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "user logged in", "user_id", session.User.ID)
	s.subject.Notify(session)
	return result.OK()
}

// Logout clears the session and runs every logout hook. Calling it while
// signed out is harmless. Hook and storage failures are joined and returned
// after all hooks have run.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = domain.Session{}
	hooks := make([]LogoutHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	var errs []error
	if err := s.storage.Delete(ctx, storage.SessionKey); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrPersist, err))
	}
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.subject.Notify(domain.Session{})

	if err := errors.Join(errs...); err != nil {
		s.logger.ErrorContext(ctx, "logout incomplete", "error", err)
		return err
	}
	return nil
}

// Restore loads the persisted session. A missing or unreadable snapshot
// leaves the store signed out.
func (s *Store) Restore(ctx context.Context) error {
	data, err := s.storage.Get(ctx, storage.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	session, err := decodeSession(data)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable session snapshot", "error", err)
		return nil
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.subject.Notify(session)
	return nil
}

func (s *Store) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) IsAuthenticated() bool {
	return s.Session().IsAuthenticated()
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *domain.User {
	session := s.Session()
	if session.User == nil {
		return nil
	}
	u := *session.User
	return &u
}

// BearerToken returns the credential to present to protected endpoints.
func (s *Store) BearerToken() (string, bool) {
	session := s.Session()
	if !session.IsAuthenticated() || session.Token == "" {
		return "", false
	}
	return session.Token, true
}

func (s *Store) Subscribe(fn func(domain.Session)) func() {
	return s.subject.Subscribe(fn)
}

func loginFailureMessage(err error) string {
	var rejected *domain.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return domain.MessageLoginFailed
}
