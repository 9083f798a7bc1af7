package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// MinPasswordLength is the shortest password accepted before calling the backend.
const MinPasswordLength = 6

var ErrInvalidCredentials = errors.New("invalid email or password")

// InputError reports a login form value rejected before any network call.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

type authAPI interface {
	Me(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	Logout(ctx context.Context) ([]*http.Cookie, error)
}

// Recorder counts resolutions.
type Recorder interface {
	SessionResolved(authenticated bool)
}

type nopRecorder struct{}

func (nopRecorder) SessionResolved(bool) {}

// Resolver answers who the visitor is, using the visitor's forwarded cookies.
type Resolver struct {
	api      authAPI
	logger   *zap.Logger
	recorder Recorder
}

func New(api authAPI, logger *zap.Logger, recorder Recorder) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Resolver{api: api, logger: logger, recorder: recorder}
}

// Resolve asks the backend once whether the visitor is signed in. Any failure yields a
// guest session; it never returns an error and never retries.
func (r *Resolver) Resolve(ctx context.Context) domain.Session {
	user, err := r.api.Me(ctx)
	if err != nil {
		r.logger.Debug("AuthCheckFailed", zap.Error(err))
		r.recorder.SessionResolved(false)
		return domain.Guest()
	}
	r.recorder.SessionResolved(true)
	return domain.Session{Authenticated: true, User: user}
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	Session domain.Session
	// Cookies are the credentials the backend issued, to be relayed to the browser.
	Cookies []*http.Cookie
}

// Login validates the form and signs in against the backend.
func (r *Resolver) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if err := validateLogin(email, password); err != nil {
		return nil, err
	}
	res, err := r.api.Login(ctx, email, password)
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	r.logger.Info("login succeeded", zap.Bool("user_known", res.User != nil))
	return &LoginResult{
		Session: domain.Session{Authenticated: true, User: res.User},
		Cookies: res.Cookies,
	}, nil
}

func validateLogin(email, password string) error {
	if email == "" {
		return &InputError{Field: "email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &InputError{Field: "email", Message: "Email is invalid"}
	}
	if len(password) < MinPasswordLength {
		return &InputError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	return nil
}

// Logout ends the backend session and returns the cookies it cleared.
func (r *Resolver) Logout(ctx context.Context) ([]*http.Cookie, error) {
	cookies, err := r.api.Logout(ctx)
	if err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}
	return cookies, nil
}
