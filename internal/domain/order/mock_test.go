package order

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/catalog"
	"github.com/xenking/order-intake/internal/domain/discount"
)

type mockCatalog struct {
	products map[int64]*catalog.Product
	items    []catalog.SubItem
	getErr   error
	itemsErr error
}

func (m *mockCatalog) ProductByCode(_ context.Context, code int64) (*catalog.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.products[code]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) SubItemsByIDs(_ context.Context, ids []string) ([]catalog.SubItem, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.SubItem
	for _, it := range m.items {
		if want[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

type mockResolver struct {
	quote *discount.Quote
	err   error
	calls []discount.Slots
}

func (m *mockResolver) Resolve(_ context.Context, slots discount.Slots, _ string) (*discount.Quote, error) {
	m.calls = append(m.calls, slots)
	if slots.Empty() {
		return nil, nil
	}
	return m.quote, m.err
}

func ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func comboRef(qty string, sels ...cart.Selection) cart.ProductRef {
	return cart.ProductRef{
		OldID:    "10",
		Quantity: qty,
		Name:     "Combo",
		Sections: []cart.Section{{ID: "s1", Items: sels}},
	}
}
