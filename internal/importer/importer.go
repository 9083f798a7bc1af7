package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/devicestore"
	"storefront/internal/domain"
	"storefront/internal/service/cart"
	"storefront/internal/service/device"
)

var requiredColumns = []string{"device_id", "id", "price", "quantity"}

// CSVImporter restores guest carts from a CSV export with the columns
// device_id,id,name,price,quantity,image. Rows of one device may be scattered; each
// device's cart replaces whatever the store held for it.
type CSVImporter struct {
	reader *csv.Reader
	store  devicestore.Store
}

func NewCSVImporter(r io.Reader, store devicestore.Store) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, store: store}
}

// Run parses all rows first and writes nothing when any row is invalid. It returns the
// number of carts written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	var order []string
	carts := make(map[string][]domain.CartLine)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		deviceID, item, err := parseRow(record, index)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if _, seen := carts[deviceID]; !seen {
			order = append(order, deviceID)
		}
		carts[deviceID] = append(carts[deviceID], item)
	}

	imported := 0
	for _, deviceID := range order {
		if err := i.save(ctx, deviceID, carts[deviceID]); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, deviceID string, lines []domain.CartLine) error {
	raw, err := json.Marshal(domain.NewCart(lines).Lines)
	if err != nil {
		return fmt.Errorf("encode cart for device %s: %w", deviceID, err)
	}
	if err := devicestore.Scoped(i.store, deviceID).Put(ctx, cart.StorageKey, raw); err != nil {
		return fmt.Errorf("write cart for device %s: %w", deviceID, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (string, domain.CartLine, error) {
	deviceID, err := device.ParseID(pick(record, index, "device_id"))
	if err != nil {
		return "", domain.CartLine{}, fmt.Errorf("device_id must be a version 4 uuid: %w", err)
	}
	productID := pick(record, index, "id")
	if productID == "" {
		return "", domain.CartLine{}, errors.New("product id required")
	}
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || price.IsNegative() {
		return "", domain.CartLine{}, fmt.Errorf("invalid price for %s", productID)
	}
	qty, err := strconv.Atoi(pick(record, index, "quantity"))
	if err != nil || qty <= 0 {
		return "", domain.CartLine{}, fmt.Errorf("invalid quantity for %s", productID)
	}
	return deviceID, domain.CartLine{
		ID:       productID,
		Name:     pick(record, index, "name"),
		Price:    price,
		Quantity: qty,
		Image:    pick(record, index, "image"),
	}, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
