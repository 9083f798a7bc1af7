// Package cart keeps a visitor's cart on the device and mirrors signed-in changes to
// the backend.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/devicestore"
	"storefront/internal/domain"
)

const (
	// StorageKey holds the JSON array of cart lines.
	StorageKey = "cart"
	// PendingKey holds backend writes that failed and await replay.
	PendingKey = "cart.pending"
)

type cartAPI interface {
	GetCart(ctx context.Context) ([]domain.CartLine, error)
	SetCartLineQuantity(ctx context.Context, id string, quantity int) error
	DeleteCartLine(ctx context.Context, id string) error
}

// Recorder counts cart outcomes.
type Recorder interface {
	MirrorFailed(op string)
	CartLoaded(source string)
}

type nopRecorder struct{}

func (nopRecorder) MirrorFailed(string) {}
func (nopRecorder) CartLoaded(string)   {}

// Store is the cart of one visitor on one device for the lifetime of a request or page
// session. Operations are applied in call order.
type Store struct {
	mu       sync.Mutex
	api      cartAPI
	device   devicestore.Store
	session  domain.Session
	cart     domain.Cart
	loaded   bool
	warnings []Warning
	logger   *zap.Logger
	recorder Recorder
}

// New binds a store to the visitor's device storage and session. api is only used when
// the session is authenticated.
func New(api cartAPI, device devicestore.Store, session domain.Session, logger *zap.Logger, recorder Recorder) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Store{
		api:      api,
		device:   device,
		session:  session,
		logger:   logger.With(zap.Bool("authenticated", session.Authenticated)),
		recorder: recorder,
	}
}

// Load replaces the in-memory cart. Signed-in visitors get the backend's cart, which
// also overwrites the device copy; everyone else, and signed-in visitors whose fetch
// failed, get the device copy. Load never fails.
func (s *Store) Load(ctx context.Context) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return s.cart.Clone()
}

// ensureLoaded loads the cart before the first mutation so a write never replaces
// lines it has not seen.
func (s *Store) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.load(ctx)
	}
}

func (s *Store) load(ctx context.Context) {
	s.loaded = true
	if s.session.Authenticated {
		s.replayPending(ctx)
		lines, err := s.api.GetCart(ctx)
		if err == nil {
			s.cart = domain.NewCart(lines)
			if err := s.persist(ctx); err != nil {
				s.logger.Warn("cache server cart on device", zap.Error(err))
			}
			s.recorder.CartLoaded("server")
			return
		}
		s.warn(Warning{Kind: CartLoadDegraded, Message: "Showing the cart saved on this device; it may be out of date."})
		s.logger.Warn("CartLoadDegraded", zap.Error(err))
	}

	s.cart = s.readDevice(ctx)
	s.recorder.CartLoaded("device")
}

func (s *Store) readDevice(ctx context.Context) domain.Cart {
	raw, err := s.device.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, devicestore.ErrNotFound) {
			s.logger.Warn("read device cart", zap.Error(err))
		}
		return domain.Cart{}
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		s.logger.Warn("discard malformed device cart", zap.Error(err))
		if err := s.device.Delete(ctx, StorageKey); err != nil {
			s.logger.Warn("delete malformed device cart", zap.Error(err))
		}
		return domain.Cart{}
	}
	return domain.NewCart(lines)
}

func (s *Store) persist(ctx context.Context) error {
	lines := s.cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.device.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Add puts line into the cart, accumulating quantity on an existing line.
func (s *Store) Add(ctx context.Context, line domain.CartLine) error {
	line.ID = strings.TrimSpace(line.ID)
	if line.ID == "" || line.Price.IsNegative() {
		return domain.ErrInvalidLine
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	added := s.cart.Add(line)
	if err := s.persist(ctx); err != nil {
		return err
	}
	return s.mirror(ctx, mirrorOp{ID: added.ID, Op: opSetQuantity, Quantity: added.Quantity})
}

// SetQuantity sets the quantity of line id. Quantities below one and unknown ids are
// ignored; use Remove to delete a line.
func (s *Store) SetQuantity(ctx context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	if !s.cart.SetQuantity(id, qty) {
		return nil
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	return s.mirror(ctx, mirrorOp{ID: id, Op: opSetQuantity, Quantity: qty})
}

// Remove deletes line id whatever its quantity.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	s.cart.Remove(id)
	if err := s.persist(ctx); err != nil {
		return err
	}
	return s.mirror(ctx, mirrorOp{ID: id, Op: opDelete})
}

// Total is recomputed from the current lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Lines returns a snapshot of the cart.
func (s *Store) Lines() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Warnings returns the non-fatal problems seen since the store was created.
func (s *Store) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Warning(nil), s.warnings...)
}

func (s *Store) warn(w Warning) {
	s.warnings = append(s.warnings, w)
}
