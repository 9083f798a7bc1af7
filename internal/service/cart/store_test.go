package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/devicestore"
	"storefront/internal/domain"
)

type call struct {
	op  string
	id  string
	qty int
}

// stubAPI records backend cart calls. failWrites makes every PATCH and DELETE fail.
type stubAPI struct {
	lines      []domain.CartLine
	getErr     error
	failWrites bool
	calls      []call
}

func (s *stubAPI) GetCart(context.Context) ([]domain.CartLine, error) {
	s.calls = append(s.calls, call{op: "get"})
	if s.getErr != nil {
		return nil, s.getErr
	}
	return append([]domain.CartLine(nil), s.lines...), nil
}

func (s *stubAPI) SetCartLineQuantity(_ context.Context, id string, qty int) error {
	s.calls = append(s.calls, call{op: "patch", id: id, qty: qty})
	if s.failWrites {
		return errors.New("network down")
	}
	return nil
}

func (s *stubAPI) DeleteCartLine(_ context.Context, id string) error {
	s.calls = append(s.calls, call{op: "delete", id: id})
	if s.failWrites {
		return errors.New("network down")
	}
	return nil
}

type failingStore struct{ devicestore.Store }

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk full") }

// flakyQueueStore fails reads of the pending queue while failReads is set.
type flakyQueueStore struct {
	devicestore.Store
	failReads bool
}

func (f *flakyQueueStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failReads && key == PendingKey {
		return nil, errors.New("connection reset")
	}
	return f.Store.Get(ctx, key)
}

var signedIn = domain.Session{Authenticated: true, User: &domain.User{ID: "u1", Role: domain.RoleCustomer}}

func line(id string, price int64, qty int) domain.CartLine {
	return domain.CartLine{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price), Quantity: qty}
}

func seed(t *testing.T, dev devicestore.Store, lines ...domain.CartLine) {
	t.Helper()
	raw, err := json.Marshal(lines)
	require.NoError(t, err)
	require.NoError(t, dev.Put(context.Background(), StorageKey, raw))
}

func stored(t *testing.T, dev devicestore.Store) []domain.CartLine {
	t.Helper()
	raw, err := dev.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	var lines []domain.CartLine
	require.NoError(t, json.Unmarshal(raw, &lines))
	return lines
}

func TestTotalScenario(t *testing.T) {
	dev := devicestore.NewMemory()
	seed(t, dev, line("p1", 10, 2), line("p2", 5, 1))
	s := New(nil, dev, domain.Guest(), nil, nil)
	s.Load(context.Background())

	assert.True(t, s.Total().Equal(decimal.NewFromInt(25)), "total %s", s.Total())
}

func TestSetQuantityScenario(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	seed(t, dev, line("p1", 10, 2), line("p2", 5, 1))
	s := New(nil, dev, domain.Guest(), nil, nil)
	s.Load(ctx)

	require.NoError(t, s.SetQuantity(ctx, "p1", 3))
	assert.True(t, s.Total().Equal(decimal.NewFromInt(35)), "total %s", s.Total())

	want := []domain.CartLine{line("p1", 10, 3), line("p2", 5, 1)}
	if diff := cmp.Diff(want, stored(t, dev)); diff != "" {
		t.Fatalf("device store (-want +got):\n%s", diff)
	}
}

// Guest mutations reload identically from the device store.
func TestGuestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	for seedValue := uint64(1); seedValue <= 25; seedValue++ {
		f := gofakeit.New(seedValue)
		dev := devicestore.NewMemory()
		ids := []string{"p1", "p2", "p3", "p4"}

		s := New(nil, dev, domain.Guest(), nil, nil)
		s.Load(ctx)
		for i := 0; i < 30; i++ {
			id := ids[f.Number(0, len(ids)-1)]
			switch f.Number(0, 2) {
			case 0:
				require.NoError(t, s.Add(ctx, domain.CartLine{
					ID:       id,
					Name:     f.ProductName(),
					Price:    decimal.NewFromFloat(f.Price(1, 100)).Round(2),
					Quantity: f.Number(1, 3),
				}))
			case 1:
				require.NoError(t, s.SetQuantity(ctx, id, f.Number(-2, 9)))
			default:
				require.NoError(t, s.Remove(ctx, id))
			}
		}

		reloaded := New(nil, dev, domain.Guest(), nil, nil).Load(ctx)
		if diff := cmp.Diff(s.Lines().Lines, reloaded.Lines); diff != "" {
			t.Fatalf("seed %d: reload differs (-want +got):\n%s", seedValue, diff)
		}
	}
}

// Repeated adds of one product never duplicate its line.
func TestAddNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	f := gofakeit.New(42)
	s := New(nil, devicestore.NewMemory(), domain.Guest(), nil, nil)

	want := 0
	for i := 0; i < 50; i++ {
		qty := f.Number(1, 5)
		want += qty
		require.NoError(t, s.Add(ctx, domain.CartLine{ID: "p1", Price: decimal.NewFromInt(3), Quantity: qty}))
	}
	lines := s.Lines().Lines
	require.Len(t, lines, 1)
	assert.Equal(t, want, lines[0].Quantity)
}

func TestAddTrimsLineID(t *testing.T) {
	ctx := context.Background()
	s := New(nil, devicestore.NewMemory(), domain.Guest(), nil, nil)
	require.NoError(t, s.Add(ctx, line("p1", 10, 1)))
	require.NoError(t, s.Add(ctx, line(" p1 ", 10, 2)))

	lines := s.Lines().Lines
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.ErrorIs(t, s.Add(ctx, line("   ", 1, 1)), domain.ErrInvalidLine)
}

func TestAuthenticatedLoadPrefersServer(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	seed(t, dev, line("local", 1, 1), line("p1", 10, 9))
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 2), line("p2", 5, 1)}}

	got := New(api, dev, signedIn, nil, nil).Load(ctx)

	want := []domain.CartLine{line("p1", 10, 2), line("p2", 5, 1)}
	if diff := cmp.Diff(want, got.Lines); diff != "" {
		t.Fatalf("loaded cart (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, stored(t, dev)); diff != "" {
		t.Fatalf("device store not overwritten (-want +got):\n%s", diff)
	}
}

func TestQuantityFloor(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	seed(t, dev, line("p1", 10, 7))
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 7)}}
	s := New(api, dev, signedIn, nil, nil)
	s.Load(ctx)

	require.NoError(t, s.SetQuantity(ctx, "p1", 0))
	require.NoError(t, s.SetQuantity(ctx, "p1", -1))
	require.NoError(t, s.SetQuantity(ctx, "ghost", 3))
	if diff := cmp.Diff([]domain.CartLine{line("p1", 10, 7)}, s.Lines().Lines); diff != "" {
		t.Fatalf("cart changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, []call{{op: "get"}}, api.calls, "no-ops issue no writes")

	require.NoError(t, s.Remove(ctx, "p1"))
	assert.True(t, s.Lines().Empty())
	assert.Equal(t, call{op: "delete", id: "p1"}, api.calls[len(api.calls)-1])
}

func TestGuestNeverCallsBackend(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{}
	s := New(api, devicestore.NewMemory(), domain.Guest(), nil, nil)
	s.Load(ctx)
	require.NoError(t, s.Add(ctx, line("p1", 2, 1)))
	require.NoError(t, s.SetQuantity(ctx, "p1", 4))
	require.NoError(t, s.Remove(ctx, "p1"))
	assert.Empty(t, api.calls)
}

func TestAuthenticatedMutationsMirror(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 1)}}
	s := New(api, devicestore.NewMemory(), signedIn, nil, nil)
	s.Load(ctx)

	require.NoError(t, s.Add(ctx, line("p1", 10, 2)))
	require.NoError(t, s.SetQuantity(ctx, "p1", 5))
	require.NoError(t, s.Remove(ctx, "p1"))

	assert.Equal(t, []call{
		{op: "get"},
		{op: "patch", id: "p1", qty: 3},
		{op: "patch", id: "p1", qty: 5},
		{op: "delete", id: "p1"},
	}, api.calls)
	assert.Empty(t, s.Warnings())
}

func TestMalformedDeviceCartIsDiscarded(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	require.NoError(t, dev.Put(ctx, StorageKey, []byte("{not json")))

	c := New(nil, dev, domain.Guest(), nil, nil).Load(ctx)
	assert.True(t, c.Empty())
	_, err := dev.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, devicestore.ErrNotFound)
}

func TestLoadDegradesToDevice(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	seed(t, dev, line("p1", 10, 2))
	api := &stubAPI{getErr: errors.New("timeout")}
	s := New(api, dev, signedIn, nil, nil)

	c := s.Load(ctx)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "p1", c.Lines[0].ID)
	warnings := s.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, CartLoadDegraded, warnings[0].Kind)
}

func TestMirrorFailureIsQueuedAndReplayed(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 1), line("p2", 5, 1)}, failWrites: true}

	s := New(api, dev, signedIn, nil, nil)
	s.Load(ctx)
	require.NoError(t, s.SetQuantity(ctx, "p1", 2))
	require.NoError(t, s.SetQuantity(ctx, "p1", 4))
	require.NoError(t, s.Remove(ctx, "p2"))

	qty, _ := s.Lines().Line("p1")
	assert.Equal(t, 4, qty.Quantity, "local state is kept")
	warnings := s.Warnings()
	require.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Equal(t, MirrorWriteFailed, w.Kind)
	}

	var queued []mirrorOp
	raw, err := dev.Get(ctx, PendingKey)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &queued))
	assert.Equal(t, []mirrorOp{
		{ID: "p1", Op: opSetQuantity, Quantity: 4, UserID: "u1"},
		{ID: "p2", Op: opDelete, UserID: "u1"},
	}, queued, "last write per line wins")

	api.failWrites = false
	api.calls = nil
	next := New(api, dev, signedIn, nil, nil)
	next.Load(ctx)

	assert.Equal(t, []call{
		{op: "patch", id: "p1", qty: 4},
		{op: "delete", id: "p2"},
		{op: "get"},
	}, api.calls, "pending writes replay before the fetch")
	_, err = dev.Get(ctx, PendingKey)
	assert.ErrorIs(t, err, devicestore.ErrNotFound)
	assert.Empty(t, next.Warnings())
}

func TestReplaySkipsOtherAccounts(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	raw, err := json.Marshal([]mirrorOp{{ID: "p9", Op: opDelete, UserID: "someone-else"}})
	require.NoError(t, err)
	require.NoError(t, dev.Put(ctx, PendingKey, raw))

	api := &stubAPI{}
	New(api, dev, signedIn, nil, nil).Load(ctx)
	assert.Equal(t, []call{{op: "get"}}, api.calls)
}

func TestSuccessfulWriteClearsQueuedLine(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 1)}, failWrites: true}
	s := New(api, dev, signedIn, nil, nil)
	s.Load(ctx)
	require.NoError(t, s.SetQuantity(ctx, "p1", 2))

	api.failWrites = false
	require.NoError(t, s.SetQuantity(ctx, "p1", 3))
	_, err := dev.Get(ctx, PendingKey)
	assert.ErrorIs(t, err, devicestore.ErrNotFound)
}

func TestUnreadableQueueIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	dev := &flakyQueueStore{Store: devicestore.NewMemory()}
	api := &stubAPI{lines: []domain.CartLine{line("p1", 10, 1), line("p2", 5, 1)}, failWrites: true}
	s := New(api, dev, signedIn, nil, nil)
	s.Load(ctx)
	require.NoError(t, s.SetQuantity(ctx, "p1", 4))

	dev.failReads = true
	err := s.SetQuantity(ctx, "p2", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	qty, _ := s.Lines().Line("p2")
	assert.Equal(t, 3, qty.Quantity, "local state is kept")

	dev.failReads = false
	var queued []mirrorOp
	raw, err := dev.Get(ctx, PendingKey)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &queued))
	assert.Equal(t, []mirrorOp{{ID: "p1", Op: opSetQuantity, Quantity: 4, UserID: "u1"}}, queued)
}

func TestDeviceWriteFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	s := New(nil, failingStore{devicestore.NewMemory()}, domain.Guest(), nil, nil)
	err := s.Add(ctx, line("p1", 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAddRejectsInvalidLine(t *testing.T) {
	s := New(nil, devicestore.NewMemory(), domain.Guest(), nil, nil)
	assert.ErrorIs(t, s.Add(context.Background(), domain.CartLine{}), domain.ErrInvalidLine)
	assert.ErrorIs(t, s.Add(context.Background(), domain.CartLine{ID: "p1", Price: decimal.NewFromInt(-1)}), domain.ErrInvalidLine)
}

func TestMutationLoadsFirst(t *testing.T) {
	ctx := context.Background()
	dev := devicestore.NewMemory()
	seed(t, dev, line("p1", 10, 1))

	s := New(nil, dev, domain.Guest(), nil, nil)
	require.NoError(t, s.Add(ctx, line("p2", 5, 1)))

	got := stored(t, dev)
	require.Len(t, got, 2, fmt.Sprint(got))
}
