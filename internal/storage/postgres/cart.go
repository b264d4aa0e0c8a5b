package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-intake/internal/domain/cart"
)

const (
	cartByUserSQL = `SELECT id::text, "userId", "sessionId", source, product
		FROM carts WHERE "userId" = $1 ORDER BY "createdAt", id`

	cartBySessionSQL = `SELECT id::text, "userId", "sessionId", source, product
		FROM carts WHERE "sessionId" = $1 ORDER BY "createdAt", id`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// FetchCart returns the owner's cart rows in insertion order. Users are
// matched by id, anonymous owners by session.
func (r *CartRepository) FetchCart(ctx context.Context, owner cart.Owner) ([]cart.Entry, error) {
	query, arg := cartByUserSQL, any(owner.UserID)
	if owner.UserID == 0 {
		query, arg = cartBySessionSQL, owner.SessionID
	}

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("fetching cart for %s: %w", owner, err)
	}
	entries, err := pgx.CollectRows(rows, scanCartEntry)
	if err != nil {
		return nil, fmt.Errorf("fetching cart for %s: %w", owner, err)
	}
	return entries, nil
}

func scanCartEntry(row pgx.CollectableRow) (cart.Entry, error) {
	var (
		e         cart.Entry
		userID    *int64
		sessionID *string
		source    *string
	)
	err := row.Scan(&e.ID, &userID, &sessionID, &source, &e.Product)
	e.Owner = cart.Owner{UserID: deref(userID), SessionID: deref(sessionID)}
	e.Source = deref(source)
	return e, err
}
