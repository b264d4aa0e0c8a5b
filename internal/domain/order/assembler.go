package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/cart"
)

// ErrNoLines is returned when a cart produced no order lines.
var ErrNoLines = errors.New("no valid order lines")

// LineBuilder expands one product reference into lines numbered from start.
type LineBuilder interface {
	Build(ctx context.Context, entry cart.Entry, ref cart.ProductRef, start int, cluster string) ([]Line, error)
}

var _ LineBuilder = (*Builder)(nil)

// Assembler turns cart entries into one contiguous list of order lines.
type Assembler struct {
	builder LineBuilder
}

// NewAssembler creates an Assembler.
func NewAssembler(builder LineBuilder) *Assembler {
	return &Assembler{builder: builder}
}

// Assemble expands entries in order. Entries or references that cannot be
// expanded are logged and skipped; line numbers advance only by the lines
// actually produced.
func (a *Assembler) Assemble(ctx context.Context, owner cart.Owner, entries []cart.Entry, cluster string) ([]Line, error) {
	lg := zctx.From(ctx).With(zap.Stringer("owner", owner))

	var lines []Line
	next := 1
	for _, entry := range entries {
		refs, err := entry.Products()
		if err != nil {
			lg.Warn("Skipping malformed cart entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}
		for _, ref := range refs {
			if _, ok := ref.Code(); !ok {
				lg.Warn("Skipping cart product without catalog code",
					zap.String("entry_id", entry.ID),
					zap.String("old_id", ref.OldID),
				)
				continue
			}
			built, err := a.builder.Build(ctx, entry, ref, next, cluster)
			if err != nil {
				lg.Warn("Skipping cart product",
					zap.String("entry_id", entry.ID),
					zap.String("old_id", ref.OldID),
					zap.Error(err),
				)
				continue
			}
			lines = append(lines, built...)
			next += len(built)
		}
	}

	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	return lines, nil
}
