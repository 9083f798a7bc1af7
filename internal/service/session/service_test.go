package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

type stubAPI struct {
	user      *domain.User
	meErr     error
	loginErr  error
	meCalls   int
	loginArgs []string
}

func (s *stubAPI) Me(context.Context) (*domain.User, error) {
	s.meCalls++
	return s.user, s.meErr
}

func (s *stubAPI) Login(_ context.Context, email, password string) (*backend.LoginResult, error) {
	s.loginArgs = append(s.loginArgs, email, password)
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &backend.LoginResult{User: s.user, Cookies: []*http.Cookie{{Name: "access_token", Value: "t"}}}, nil
}

func (s *stubAPI) Logout(context.Context) ([]*http.Cookie, error) {
	return []*http.Cookie{{Name: "access_token", MaxAge: -1}}, nil
}

type countRecorder struct{ auth, guest int }

func (c *countRecorder) SessionResolved(ok bool) {
	if ok {
		c.auth++
	} else {
		c.guest++
	}
}

func TestResolveAuthenticated(t *testing.T) {
	api := &stubAPI{user: &domain.User{ID: "u1", Role: domain.RoleB2B}}
	rec := &countRecorder{}
	s := New(api, nil, rec).Resolve(context.Background())

	assert.True(t, s.Authenticated)
	assert.Equal(t, domain.RoleB2B, s.Role())
	assert.Equal(t, 1, api.meCalls)
	assert.Equal(t, 1, rec.auth)
}

func TestResolveWithoutUserRecord(t *testing.T) {
	s := New(&stubAPI{}, nil, nil).Resolve(context.Background())
	assert.True(t, s.Authenticated)
	assert.Nil(t, s.User)
}

func TestResolveFailureIsGuest(t *testing.T) {
	for _, err := range []error{
		&backend.StatusError{StatusCode: http.StatusUnauthorized},
		errors.New("connection refused"),
	} {
		api := &stubAPI{meErr: err, user: &domain.User{ID: "u1"}}
		rec := &countRecorder{}
		s := New(api, nil, rec).Resolve(context.Background())
		assert.Equal(t, domain.Guest(), s)
		assert.Equal(t, 1, api.meCalls, "no retry")
		assert.Equal(t, 1, rec.guest)
	}
}

func TestLoginValidation(t *testing.T) {
	tests := []struct {
		email, password, field, message string
	}{
		{"", "secret12", "email", "Email is required"},
		{"not-an-email", "secret12", "email", "Email is invalid"},
		{"a@b.co", "12345", "password", "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		api := &stubAPI{}
		_, err := New(api, nil, nil).Login(context.Background(), tt.email, tt.password)
		var ie *InputError
		require.True(t, errors.As(err, &ie), "%q/%q", tt.email, tt.password)
		assert.Equal(t, tt.field, ie.Field)
		assert.Equal(t, tt.message, ie.Error())
		assert.Empty(t, api.loginArgs, "no network call")
	}
}

func TestLoginSuccess(t *testing.T) {
	api := &stubAPI{user: &domain.User{ID: "u1", Role: domain.RoleCustomer}}
	res, err := New(api, nil, nil).Login(context.Background(), " a@b.co ", "secret12")
	require.NoError(t, err)
	assert.True(t, res.Session.Authenticated)
	assert.Equal(t, "u1", res.Session.UserID())
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, []string{"a@b.co", "secret12"}, api.loginArgs)
}

func TestLoginRejected(t *testing.T) {
	api := &stubAPI{loginErr: &backend.StatusError{StatusCode: http.StatusUnauthorized, Message: "bad password"}}
	_, err := New(api, nil, nil).Login(context.Background(), "a@b.co", "secret12")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	api = &stubAPI{loginErr: &backend.StatusError{StatusCode: http.StatusBadGateway}}
	_, err = New(api, nil, nil).Login(context.Background(), "a@b.co", "secret12")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	cookies, err := New(&stubAPI{}, nil, nil).Logout(context.Background())
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
