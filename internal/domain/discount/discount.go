// Package discount selects which discount quote, if any, applies to a set of
// catalog codes.
package discount

import (
	"context"

	"github.com/shopspring/decimal"
)

// SlotCount is the number of positional catalog-code inputs a quote accepts.
const SlotCount = 5

// Slot indexes (1-based, matching the pricing collaborator's parameters).
const (
	SlotProduct  = 1
	SlotSandwich = 2
	SlotFries    = 3
	SlotDrink    = 4
	SlotOther    = 5
)

// Cluster labels recognised by the selection policy.
const (
	ClusterPrefix   = "CLUSTER"
	ClusterDelivery = "DELIVERY"
)

// RoleSlots maps a combo component role to the slot its catalog code is
// quoted in. Slot 1 is reserved for a product's own code and never appears
// here.
var RoleSlots = map[string]int{
	"SDW": SlotSandwich,
	"FRI": SlotFries,
	"BEB": SlotDrink,
	"OTR": SlotOther,
	"POS": SlotOther,
}

// Slots holds up to five optional catalog codes. A nil element is absent and
// is passed to the pricing collaborator as absent, not as zero.
type Slots [SlotCount]*int64

// Set assigns code to the 1-based slot index.
func (s *Slots) Set(slot int, code int64) {
	s[slot-1] = &code
}

// Get returns the code in the 1-based slot index.
func (s Slots) Get(slot int) (int64, bool) {
	if v := s[slot-1]; v != nil {
		return *v, true
	}
	return 0, false
}

// Empty reports whether every slot is absent.
func (s Slots) Empty() bool {
	for _, v := range s {
		if v != nil {
			return false
		}
	}
	return true
}

// ForRole returns the slot index mapped to role.
func ForRole(role string) (int, bool) {
	slot, ok := RoleSlots[role]
	return slot, ok
}

// Quote is one candidate result of a discount lookup.
type Quote struct {
	// Price is the aggregate discounted price.
	Price   decimal.NullDecimal
	Code    int64
	Cluster string
	// SlotPrices holds the discounted unit price per requested slot.
	SlotPrices [SlotCount]decimal.NullDecimal
}

// SlotPrice returns the discounted price of the 1-based slot index.
func (q *Quote) SlotPrice(slot int) (decimal.Decimal, bool) {
	p := q.SlotPrices[slot-1]
	return p.Decimal, p.Valid
}

// Pricer is the pricing collaborator computing candidate quotes.
type Pricer interface {
	QuoteDiscount(ctx context.Context, slots Slots) ([]Quote, error)
}
