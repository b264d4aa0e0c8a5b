package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-intake/internal/domain/discount"
)

const quoteDiscountSQL = `SELECT discount_price, discount_code, cluster,
		"plu1DiscountPrice", "plu2DiscountPrice", "plu3DiscountPrice", "plu4DiscountPrice", "plu5DiscountPrice"
	FROM get_discount_price_by_plu($1, $2, $3, $4, $5)`

var _ discount.Pricer = (*DiscountRepository)(nil)

// DiscountRepository queries the get_discount_price_by_plu pricing function.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// QuoteDiscount returns every candidate quote for slots. Absent slots are
// passed as NULL.
func (r *DiscountRepository) QuoteDiscount(ctx context.Context, slots discount.Slots) ([]discount.Quote, error) {
	rows, err := r.pool.Query(ctx, quoteDiscountSQL, slots[0], slots[1], slots[2], slots[3], slots[4])
	if err != nil {
		return nil, fmt.Errorf("quoting discount: %w", err)
	}
	quotes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (discount.Quote, error) {
		var (
			q       discount.Quote
			code    *int64
			cluster *string
		)
		err := row.Scan(&q.Price, &code, &cluster,
			&q.SlotPrices[0], &q.SlotPrices[1], &q.SlotPrices[2], &q.SlotPrices[3], &q.SlotPrices[4],
		)
		q.Code = deref(code)
		q.Cluster = deref(cluster)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("quoting discount: %w", err)
	}
	return quotes, nil
}
