package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"storefront/internal/devicestore"
	"storefront/internal/domain"
	"storefront/internal/service/cart"
)

// Apply writes a demo cart of n lines for deviceID, replacing any cart it had. The same
// seed always produces the same cart.
func Apply(ctx context.Context, store devicestore.Store, deviceID string, n int, seed uint64) (domain.Cart, error) {
	if n <= 0 {
		return domain.Cart{}, fmt.Errorf("line count must be positive, got %d", n)
	}
	f := gofakeit.New(seed)

	lines := make([]domain.CartLine, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, domain.CartLine{
			ID:       fmt.Sprintf("demo-%03d", i+1),
			Name:     f.ProductName(),
			Price:    decimal.NewFromFloat(f.Price(2, 80)).Round(2),
			Quantity: f.Number(1, 4),
			Image:    f.URL(),
		})
	}
	c := domain.NewCart(lines)

	raw, err := json.Marshal(c.Lines)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("encode demo cart: %w", err)
	}
	if err := devicestore.Scoped(store, deviceID).Put(ctx, cart.StorageKey, raw); err != nil {
		return domain.Cart{}, fmt.Errorf("write demo cart: %w", err)
	}
	return c, nil
}
