package order

import (
	"github.com/shopspring/decimal"
)

// LineKind tags how the intake system interprets a line.
type LineKind string

const (
	KindNormal LineKind = "NORMAL"
	KindMixto  LineKind = "MIXTO"
)

// noModifiers is the modifier flag sent for every line; modifiers are not
// supported by this pipeline.
const noModifiers = "N"

// Line is one priced order line.
type Line struct {
	// Number is 1-based and contiguous across the whole order.
	Number      int
	PLU         string
	Quantity    int
	Description string
	// Amount is already fixed to two decimals.
	Amount decimal.Decimal
	Kind   LineKind
	Source string
	// Blend is only populated for MIXTO lines.
	Blend []BlendComponent
}

// BlendComponent is one itemized part of a MIXTO line.
type BlendComponent struct {
	Role        string
	Quantity    string
	PLU         string
	Description string
}

// Total sums line amounts. Amounts are not re-rounded.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// Root is the order's own durable record, stored before submission to obtain
// the order number.
type Root struct {
	UserID          int64
	ContactName     string
	ContactPhone    string
	InvoiceName     string
	InvoiceNIT      string
	DeliveryAddress string
	Coordinates     string
	RestaurantID    *int64
	Total           decimal.Decimal
	Lines           []Line
	Observations    string
	Channel         string
}
