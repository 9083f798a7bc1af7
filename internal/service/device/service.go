// Package device identifies a browser profile across visits so its cart can be kept
// between page loads.
package device

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid device id")

// Config controls the identity cookie.
type Config struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type Service struct {
	cfg   Config
	newID func() (uuid.UUID, error)
}

func New(cfg Config) *Service {
	if cfg.CookieName == "" {
		cfg.CookieName = "device_id"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}
	return &Service{cfg: cfg, newID: uuid.NewRandom}
}

// CookieName is the name of the identity cookie.
func (s *Service) CookieName() string {
	return s.cfg.CookieName
}

// ParseID parses a device id; only random (version 4) UUIDs are accepted.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id.Version() != 4 {
		return "", ErrInvalidID
	}
	return id.String(), nil
}

// Validate parses a device id presented by a browser.
func (s *Service) Validate(raw string) (string, error) {
	return ParseID(raw)
}

// Issue creates a new device id.
func (s *Service) Issue() (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Identify returns the device id carried by r, issuing a new one when the cookie is
// missing or invalid. issued reports whether the caller must set Cookie(id).
func (s *Service) Identify(r *http.Request) (id string, issued bool, err error) {
	if c, cerr := r.Cookie(s.cfg.CookieName); cerr == nil {
		if id, verr := s.Validate(c.Value); verr == nil {
			return id, false, nil
		}
	}
	id, err = s.Issue()
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Cookie builds the identity cookie for id.
func (s *Service) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
