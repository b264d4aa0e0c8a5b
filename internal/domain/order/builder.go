package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/catalog"
	"github.com/xenking/order-intake/internal/domain/discount"
)

// DiscountResolver picks the discount quote for a set of slots.
type DiscountResolver interface {
	Resolve(ctx context.Context, slots discount.Slots, cluster string) (*discount.Quote, error)
}

var _ DiscountResolver = (*discount.Resolver)(nil)

// Builder expands one product reference into priced lines.
type Builder struct {
	catalog   catalog.Repository
	discounts DiscountResolver
}

// NewBuilder creates a Builder.
func NewBuilder(products catalog.Repository, discounts DiscountResolver) *Builder {
	return &Builder{
		catalog:   products,
		discounts: discounts,
	}
}

// Build prices ref, numbering lines from start. A product missing from the
// catalog yields an error wrapping catalog.ErrNotFound. Discount lookup
// failures never fail the build; the catalog price is used instead.
func (b *Builder) Build(ctx context.Context, entry cart.Entry, ref cart.ProductRef, start int, cluster string) ([]Line, error) {
	code, ok := ref.Code()
	if !ok {
		return nil, errors.Errorf("invalid product code %q", ref.OldID)
	}

	x, err := b.expand(ctx, entry, ref, code, start)
	if err != nil {
		return nil, err
	}

	switch x.product.Kind {
	case catalog.KindCombo:
		if !ref.HasSections() {
			return individualLines(x), nil
		}
		quote := b.resolve(ctx, comboSlots(x), cluster, ref)
		return comboLines(x, quote), nil
	case catalog.KindMixto:
		var slots discount.Slots
		if x.product.PLU != nil {
			slots.Set(discount.SlotProduct, *x.product.PLU)
		}
		quote := b.resolve(ctx, slots, cluster, ref)
		return []Line{mixtoLine(x, quote)}, nil
	default:
		return individualLines(x), nil
	}
}

// expand loads the product and the sub-items referenced by ref concurrently.
func (b *Builder) expand(ctx context.Context, entry cart.Entry, ref cart.ProductRef, code int64, start int) (expansion, error) {
	var (
		product *catalog.Product
		items   []catalog.SubItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.catalog.ProductByCode(gctx, code)
		if err != nil {
			return errors.Wrapf(err, "product %d", code)
		}
		product = p
		return nil
	})
	if ids := cart.SelectionIDs(ref.BlendSections()); len(ids) > 0 {
		g.Go(func() error {
			found, err := b.catalog.SubItemsByIDs(gctx, ids)
			if err != nil {
				return errors.Wrap(err, "sub-items")
			}
			items = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return expansion{}, err
	}

	return expansion{
		entry:   entry,
		ref:     ref,
		product: *product,
		items:   catalog.IndexSubItems(items),
		start:   start,
	}, nil
}

func (b *Builder) resolve(ctx context.Context, slots discount.Slots, cluster string, ref cart.ProductRef) *discount.Quote {
	quote, err := b.discounts.Resolve(ctx, slots, cluster)
	if err != nil {
		zctx.From(ctx).Warn("Discount lookup failed, using catalog price",
			zap.String("old_id", ref.OldID),
			zap.String("cluster", cluster),
			zap.Error(err),
		)
		return nil
	}
	return quote
}
