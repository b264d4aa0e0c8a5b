package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a catalog identifier does not resolve.
var ErrNotFound = errors.New("catalog product not found")

// Kind classifies how a product expands into order lines.
type Kind string

const (
	KindIndividual Kind = "INDIVIDUAL"
	KindCombo      Kind = "COMBO"
	KindMixto      Kind = "MIXTO"
)

// ParseKind maps the stored product type to a Kind. Unknown or empty types
// are treated as individual products.
func ParseKind(s string) Kind {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindCombo:
		return KindCombo
	case KindMixto:
		return KindMixto
	default:
		return KindIndividual
	}
}

// Product is a catalog entry resolved by its legacy identifier.
type Product struct {
	Code     int64
	PLU      *int64
	Name     string
	CoreName string
	Price    decimal.Decimal
	Kind     Kind
}

// PLUString returns the wire catalog code, falling back to fallback when the
// product carries no PLU.
func (p Product) PLUString(fallback string) string {
	if p.PLU == nil {
		return fallback
	}
	return strconv.FormatInt(*p.PLU, 10)
}

// Description prefers the canonical core name, then the catalog name, then
// the supplied fallback.
func (p Product) Description(fallback string) string {
	if p.CoreName != "" {
		return p.CoreName
	}
	if p.Name != "" {
		return p.Name
	}
	return fallback
}

// SubItem is a selectable component referenced from a product section.
type SubItem struct {
	ID              string
	PLU             *int64
	Price           decimal.Decimal
	CoreDescription string
	CoreGroup       string
}

// PLUString returns the sub-item PLU or an empty string.
func (s SubItem) PLUString() string {
	if s.PLU == nil {
		return ""
	}
	return strconv.FormatInt(*s.PLU, 10)
}

// Repository resolves catalog reference data.
type Repository interface {
	ProductByCode(ctx context.Context, code int64) (*Product, error)
	// SubItemsByIDs returns the sub-items that exist; unknown ids are
	// simply absent from the result.
	SubItemsByIDs(ctx context.Context, ids []string) ([]SubItem, error)
}

// IndexSubItems keys sub-items by id.
func IndexSubItems(items []SubItem) map[string]SubItem {
	m := make(map[string]SubItem, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
