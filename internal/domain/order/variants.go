package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/catalog"
	"github.com/xenking/order-intake/internal/domain/discount"
)

// expansion is the resolved input every product variant is priced from.
type expansion struct {
	entry   cart.Entry
	ref     cart.ProductRef
	product catalog.Product
	// items holds the resolved sub-items referenced by the ref selections.
	items map[string]catalog.SubItem
	start int
}

func (x expansion) principal(amount decimal.Decimal, kind LineKind) Line {
	return Line{
		Number:      x.start,
		PLU:         x.product.PLUString(x.ref.OldID),
		Quantity:    x.ref.Qty(),
		Description: x.product.Description(x.ref.Name),
		Amount:      amount.Round(2),
		Kind:        kind,
		Source:      x.entry.SourceOrDefault(),
	}
}

func (x expansion) listPrice() decimal.Decimal {
	return x.product.Price.Mul(decimal.NewFromInt(int64(x.ref.Qty())))
}

func individualLines(x expansion) []Line {
	return []Line{x.principal(x.listPrice(), KindNormal)}
}

// comboSlots maps resolved combo selections to discount slots by role. Slot 1
// stays absent for combos; later selections of the same role win.
func comboSlots(x expansion) discount.Slots {
	var slots discount.Slots
	for _, sec := range x.ref.Sections {
		for _, sel := range sec.Items {
			item, ok := x.items[sel.ID]
			if !ok || item.PLU == nil {
				continue
			}
			if slot, ok := discount.ForRole(sel.NormalizedRole()); ok {
				slots.Set(slot, *item.PLU)
			}
		}
	}
	return slots
}

// foldedRoles are priced into the principal combo line and never get their
// own line.
var foldedRoles = map[string]bool{
	"SDW": true,
	"FRI": true,
}

// comboLines prices a combo with section selections. quote may be nil.
// Selections without a role tag never become lines.
func comboLines(x expansion, quote *discount.Quote) []Line {
	qty := decimal.NewFromInt(int64(x.ref.Qty()))

	amount := x.listPrice()
	if quote != nil {
		sdw, okSDW := quote.SlotPrice(discount.SlotSandwich)
		fri, okFRI := quote.SlotPrice(discount.SlotFries)
		if okSDW && okFRI {
			amount = sdw.Add(fri).Mul(qty)
		}
	}

	lines := []Line{x.principal(amount, KindNormal)}
	next := x.start + 1
	for _, sec := range x.ref.Sections {
		for _, sel := range sec.Items {
			item, ok := x.items[sel.ID]
			if !ok || item.CoreDescription == "" {
				continue
			}
			role := sel.NormalizedRole()
			if role == "" || foldedRoles[role] {
				continue
			}
			lines = append(lines, Line{
				Number:      next,
				PLU:         item.PLUString(),
				Quantity:    sel.Qty(),
				Description: item.CoreDescription,
				Amount:      componentAmount(quote, role, item, sel, qty).Round(2),
				Kind:        KindNormal,
				Source:      x.entry.SourceOrDefault(),
			})
			next++
		}
	}
	return lines
}

// componentAmount prices a non-folded combo component. Without a quote the
// component is already included in the combo price.
func componentAmount(quote *discount.Quote, role string, item catalog.SubItem, sel cart.Selection, comboQty decimal.Decimal) decimal.Decimal {
	if quote == nil {
		return decimal.Zero
	}
	if slot, ok := discount.ForRole(role); ok {
		if price, ok := quote.SlotPrice(slot); ok {
			return price.Mul(comboQty)
		}
	}
	return item.Price.Mul(decimal.NewFromInt(int64(sel.Qty())))
}

// mixtoLine prices a blended product. quote may be nil; a quote with an
// aggregate price replaces the catalog unit price.
func mixtoLine(x expansion, quote *discount.Quote) Line {
	amount := x.listPrice()
	if quote != nil && quote.Price.Valid {
		amount = quote.Price.Decimal.Mul(decimal.NewFromInt(int64(x.ref.Qty())))
	}

	line := x.principal(amount, KindMixto)
	for _, sec := range x.ref.BlendSections() {
		for _, sel := range sec.Items {
			item, ok := x.items[sel.ID]
			if !ok || item.CoreDescription == "" {
				continue
			}
			line.Blend = append(line.Blend, BlendComponent{
				Role:        NormalizeRole(item.CoreGroup),
				Quantity:    sel.Quantity,
				PLU:         item.PLUString(),
				Description: item.CoreDescription,
			})
		}
	}
	return line
}
